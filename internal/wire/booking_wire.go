package wire

import (
	"appointment-booking/internal/adaptor"
	"appointment-booking/internal/data/repository"
	"appointment-booking/pkg/middleware"
	"appointment-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== TENANT ROUTES ====================
	// Every booking route is scoped to a tenant via the X-Tenant-ID header.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Tenant(repo.Tenant, log))

		// POST /api/bookings - Create new booking
		r.Post("/api/bookings", bookingHandler.CreateBooking)

		// DELETE /api/bookings/{id} - Cancel own booking
		r.Delete("/api/bookings/{id}", bookingHandler.CancelBooking)

		// POST /api/bookings/{id}/reschedule - Move booking to a new slot
		r.Post("/api/bookings/{id}/reschedule", bookingHandler.RescheduleBooking)

		// GET /api/user/bookings - View booking history (user's own bookings)
		r.Get("/api/user/bookings", bookingHandler.GetUserBookings)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/bookings", func(r chi.Router) {
		// Require a valid tenant AND the admin API key
		r.Use(middleware.Tenant(repo.Tenant, log))
		r.Use(middleware.Admin(config.Admin.KeyHash, log))

		// DELETE /api/admin/bookings/{id} - Cancel any booking (admin)
		r.Delete("/{id}", bookingHandler.AdminCancelBooking)
	})
}
