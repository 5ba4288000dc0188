// Package events publishes domain events for collaborators (notification
// dispatch, reminder scheduling) to consume. Publishing is fire-and-forget:
// a failed publish never rolls back the booking transaction that caused it.
package events

import "context"

// Routing keys on the booking topic exchange.
const (
	KeyBookingConfirmed   = "booking.confirmed"
	KeyBookingCancelled   = "booking.cancelled"
	KeyBookingRescheduled = "booking.rescheduled"
	KeySlotBlocked        = "slot.blocked"
)

type Publisher interface {
	Publish(ctx context.Context, key string, payload any) error
	Close() error
}

// BookingEvent is the payload for booking lifecycle keys.
type BookingEvent struct {
	BookingID       string `json:"booking_id"`
	TenantID        string `json:"tenant_id"`
	UserID          string `json:"user_id"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration_minutes"`
	Reason          string `json:"reason,omitempty"`
}

// SlotBlockedEvent is the payload for slot.blocked.
type SlotBlockedEvent struct {
	TenantID      string   `json:"tenant_id"`
	Date          string   `json:"date"`
	Time          string   `json:"time"`
	Reason        string   `json:"reason"`
	BlockedBy     string   `json:"blocked_by"`
	AffectedUsers []string `json:"affected_users,omitempty"`
}

// NopPublisher drops every event; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, key string, payload any) error { return nil }
func (NopPublisher) Close() error                                               { return nil }
