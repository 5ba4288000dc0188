package entity

import "github.com/google/uuid"

// BlockedSlot is an administrator-imposed unavailability window. Its duration
// is one slot-granularity unit of the owning tenant.
type BlockedSlot struct {
	BaseSimple
	TenantID    uuid.UUID `db:"tenant_id"`
	Date        string    `db:"date"`
	StartMinute int       `db:"start_minute"`
	Reason      string    `db:"reason"`
	CreatedBy   string    `db:"created_by"`
}
