package usecase

import (
	"errors"

	"appointment-booking/pkg/database"
)

// Sentinel errors for every distinguishable rejection. Handlers map them to
// HTTP statuses and wire codes with errors.Is; nothing is ever matched by
// message text.
var (
	ErrSlotTaken            = errors.New("slot already taken")
	ErrSlotBlocked          = errors.New("slot is blocked")
	ErrBookingLimitExceeded = errors.New("active booking limit reached")
	ErrCancellationWindow   = errors.New("cancellation window has passed")
	ErrRateLimited          = errors.New("too many attempts")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrNotOwner             = errors.New("booking belongs to another user")
	ErrBookingNotActive     = errors.New("booking is not active")
	ErrServiceUnavailable   = errors.New("service is not available")
	ErrInvalidSlot          = errors.New("invalid slot")
	ErrOutsideWorkHours     = errors.New("slot is outside work hours")
	ErrPastSlot             = errors.New("slot is in the past")
	ErrValidation           = errors.New("validation failed")
)

// ErrorCode returns the stable wire code for err, empty for success paths.
// These are the typed results callers switch on; "slot_taken" must never be
// confused with "tx_timeout".
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSlotTaken):
		return "slot_taken"
	case errors.Is(err, ErrSlotBlocked):
		return "slot_blocked"
	case errors.Is(err, ErrBookingLimitExceeded):
		return "booking_limit_exceeded"
	case errors.Is(err, ErrCancellationWindow):
		return "cancellation_window"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrBookingNotFound):
		return "not_found"
	case errors.Is(err, ErrNotOwner):
		return "forbidden"
	case errors.Is(err, ErrBookingNotActive):
		return "booking_not_active"
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, ErrInvalidSlot),
		errors.Is(err, ErrOutsideWorkHours),
		errors.Is(err, ErrPastSlot),
		errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, database.ErrTxTimeout):
		return "tx_timeout"
	case errors.Is(err, database.ErrRetriesExhausted):
		return "retries_exhausted"
	default:
		return "internal"
	}
}
