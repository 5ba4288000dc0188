package usecase

import (
	"context"
	"fmt"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/data/repository"

	"github.com/google/uuid"
)

// overlaps applies the half-open interval rule: [a1,a2) and [b1,b2) overlap
// iff a1 < b2 && b1 < a2. Adjacent intervals (a2 == b1) never conflict.
func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// conflictResolver decides whether a proposed interval is free on a tenant's
// calendar. Check must run inside the caller's transaction so that the
// availability decision and the mutation it guards share one isolation
// boundary; a pre-check outside the transaction would reintroduce the
// check-then-act race this engine exists to prevent.
type conflictResolver struct{}

// Check returns nil when [startMinute, startMinute+durationMinutes) is free
// on tenant's calendar for date, ErrSlotTaken when a confirmed booking
// occupies part of it, and ErrSlotBlocked when an administrative block does.
// excludeBookingID skips one booking, used when rescheduling it.
func (conflictResolver) Check(ctx context.Context, repo *repository.Repository, tenant *entity.Tenant, date string, startMinute, durationMinutes int, excludeBookingID uuid.UUID) error {
	endMinute := startMinute + durationMinutes

	bookings, err := repo.Booking.FindConfirmedByDate(ctx, tenant.ID, date)
	if err != nil {
		return fmt.Errorf("load occupied bookings: %w", err)
	}
	for _, booking := range bookings {
		if booking.ID == excludeBookingID {
			continue
		}
		if overlaps(startMinute, endMinute, booking.StartMinute, booking.EndMinute()) {
			return ErrSlotTaken
		}
	}

	blocks, err := repo.BlockedSlot.FindByDate(ctx, tenant.ID, date)
	if err != nil {
		return fmt.Errorf("load blocked slots: %w", err)
	}
	for _, block := range blocks {
		if overlaps(startMinute, endMinute, block.StartMinute, block.StartMinute+tenant.SlotGranularity) {
			return ErrSlotBlocked
		}
	}

	return nil
}
