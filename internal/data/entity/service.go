package entity

import "github.com/google/uuid"

// Service is a bookable offering. It is managed by the admin surface of the
// platform and read-only to the booking engine.
type Service struct {
	BaseSimple
	TenantID        uuid.UUID `db:"tenant_id"`
	Name            string    `db:"name"`
	DurationMinutes int       `db:"duration_minutes"`
	Price           string    `db:"price"` // opaque display value
	IsActive        bool      `db:"is_active"`
}
