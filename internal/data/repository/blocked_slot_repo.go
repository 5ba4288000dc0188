package repository

import (
	"context"
	"fmt"

	"appointment-booking/internal/data/entity"
	"appointment-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BlockedSlotRepository interface {
	Create(ctx context.Context, slot *entity.BlockedSlot) error
	FindByDate(ctx context.Context, tenantID uuid.UUID, date string) ([]*entity.BlockedSlot, error)
}

type blockedSlotRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewBlockedSlotRepository(db database.Querier, log *zap.Logger) BlockedSlotRepository {
	return &blockedSlotRepository{
		db:  db,
		log: log.With(zap.String("repository", "blocked_slot")),
	}
}

func (r *blockedSlotRepository) Create(ctx context.Context, slot *entity.BlockedSlot) error {
	query := `
		INSERT INTO blocked_slots (id, tenant_id, date, start_minute, reason, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		slot.ID,
		slot.TenantID,
		slot.Date,
		slot.StartMinute,
		slot.Reason,
		slot.CreatedBy,
		slot.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create blocked slot",
			zap.Error(err),
			zap.String("tenant_id", slot.TenantID.String()),
			zap.String("date", slot.Date),
			zap.Int("start_minute", slot.StartMinute),
		)
		return fmt.Errorf("create blocked slot %s: %w", slot.ID.String(), err)
	}

	return nil
}

func (r *blockedSlotRepository) FindByDate(ctx context.Context, tenantID uuid.UUID, date string) ([]*entity.BlockedSlot, error) {
	query := `
		SELECT id, tenant_id, date, start_minute, reason, created_by, created_at
		FROM blocked_slots
		WHERE tenant_id = $1 AND date = $2
		ORDER BY start_minute
	`

	rows, err := r.db.Query(ctx, query, tenantID, date)
	if err != nil {
		r.log.Error("Failed to find blocked slots by date",
			zap.Error(err),
			zap.String("tenant_id", tenantID.String()),
			zap.String("date", date),
		)
		return nil, fmt.Errorf("find blocked slots for %s: %w", date, err)
	}
	defer rows.Close()

	var slots []*entity.BlockedSlot
	for rows.Next() {
		var slot entity.BlockedSlot
		err := rows.Scan(
			&slot.ID,
			&slot.TenantID,
			&slot.Date,
			&slot.StartMinute,
			&slot.Reason,
			&slot.CreatedBy,
			&slot.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan blocked slot row: %w", err)
		}
		slots = append(slots, &slot)
	}

	return slots, rows.Err()
}
