package repository

import (
	"context"
	"fmt"

	"appointment-booking/internal/data/entity"
	"appointment-booking/pkg/database"

	"go.uber.org/zap"
)

// HistoryRepository is append-only: past entries are never updated or
// deleted, and every append happens inside the transaction of the state
// transition it records.
type HistoryRepository interface {
	Append(ctx context.Context, record *entity.BookingHistory) error
}

type historyRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewHistoryRepository(db database.Querier, log *zap.Logger) HistoryRepository {
	return &historyRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking_history")),
	}
}

func (r *historyRepository) Append(ctx context.Context, record *entity.BookingHistory) error {
	query := `
		INSERT INTO booking_history (id, booking_id, tenant_id, action, actor, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		record.ID,
		record.BookingID,
		record.TenantID,
		record.Action,
		record.Actor,
		record.Detail,
		record.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to append history record",
			zap.Error(err),
			zap.String("booking_id", record.BookingID.String()),
			zap.String("action", string(record.Action)),
		)
		return fmt.Errorf("append history for booking %s: %w", record.BookingID.String(), err)
	}

	return nil
}
