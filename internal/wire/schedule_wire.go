package wire

import (
	"appointment-booking/internal/adaptor"
	"appointment-booking/internal/data/repository"
	"appointment-booking/pkg/middleware"
	"appointment-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireSchedule(
	r chi.Router,
	scheduleHandler *adaptor.ScheduleHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== TENANT ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.Tenant(repo.Tenant, log))

		// GET /api/schedule?date=YYYY-MM-DD - Occupied slots for a day
		r.Get("/api/schedule", scheduleHandler.GetOccupiedSlots)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/blocked-slots", func(r chi.Router) {
		r.Use(middleware.Tenant(repo.Tenant, log))
		r.Use(middleware.Admin(config.Admin.KeyHash, log))

		// POST /api/admin/blocked-slots - Block a slot, cancelling overlaps
		r.Post("/", scheduleHandler.BlockSlot)
	})
}
