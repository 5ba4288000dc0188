package repository

import (
	"appointment-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Tenant      TenantRepository
	Service     ServiceRepository
	Booking     BookingRepository
	BlockedSlot BlockedSlotRepository
	History     HistoryRepository

	log *zap.Logger
}

func NewRepository(db database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		Tenant:      NewTenantRepository(db, log),
		Service:     NewServiceRepository(db, log),
		Booking:     NewBookingRepository(db, log),
		BlockedSlot: NewBlockedSlotRepository(db, log),
		History:     NewHistoryRepository(db, log),
		log:         log,
	}
}

// WithQuerier rebinds every repository to q, typically an open transaction,
// so a unit of work reads and writes through the same isolation boundary.
func (r *Repository) WithQuerier(q database.Querier) *Repository {
	return NewRepository(q, r.log)
}
