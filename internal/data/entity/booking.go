package entity

import "github.com/google/uuid"

type BookingStatus string

const (
	BookingStatusRequested BookingStatus = "requested"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	// Completed is derived at read time once the slot has passed; it is never
	// written to storage.
	BookingStatusCompleted BookingStatus = "completed"
)

type Booking struct {
	Base
	TenantID        uuid.UUID     `db:"tenant_id"`
	UserID          string        `db:"user_id"`
	ServiceID       uuid.UUID     `db:"service_id"`
	Date            string        `db:"date"` // tenant-local, "2006-01-02"
	StartMinute     int           `db:"start_minute"`
	DurationMinutes int           `db:"duration_minutes"`
	Status          BookingStatus `db:"status"`
	CancelReason    string        `db:"cancel_reason"`
}

// EndMinute is the exclusive end of the occupied interval [start, start+duration).
func (b *Booking) EndMinute() int {
	return b.StartMinute + b.DurationMinutes
}
