package response

import "time"

type BookingResponse struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	ServiceID       string    `json:"service_id"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	EndTime         string    `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	CancelReason    string    `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type OccupiedSlotResponse struct {
	Date   string `json:"date"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Kind   string `json:"kind"` // booking | blocked
	Status string `json:"status,omitempty"`
}

type AffectedBookingResponse struct {
	BookingID string `json:"booking_id"`
	UserID    string `json:"user_id"`
}

type BlockSlotResponse struct {
	ID               string                    `json:"id"`
	Date             string                    `json:"date"`
	Start            string                    `json:"start"`
	End              string                    `json:"end"`
	Reason           string                    `json:"reason"`
	AffectedBookings []AffectedBookingResponse `json:"affected_bookings,omitempty"`
}
