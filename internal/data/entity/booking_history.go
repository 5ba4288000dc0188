package entity

import "github.com/google/uuid"

type HistoryAction string

const (
	HistoryActionCreated        HistoryAction = "created"
	HistoryActionCancelled      HistoryAction = "cancelled"
	HistoryActionRescheduled    HistoryAction = "rescheduled"
	HistoryActionBlockedCascade HistoryAction = "blocked_cascade"
)

// BookingHistory is an append-only audit record written in the same
// transaction as the state transition it describes.
type BookingHistory struct {
	BaseSimple
	BookingID uuid.UUID     `db:"booking_id"`
	TenantID  uuid.UUID     `db:"tenant_id"`
	Action    HistoryAction `db:"action"`
	Actor     string        `db:"actor"`
	Detail    string        `db:"detail"`
}
