package repository

import (
	"context"
	"fmt"

	"appointment-booking/internal/data/entity"
	"appointment-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type TenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error)
}

type tenantRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewTenantRepository(db database.Querier, log *zap.Logger) TenantRepository {
	return &tenantRepository{
		db:  db,
		log: log.With(zap.String("repository", "tenant")),
	}
}

func (r *tenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error) {
	query := `
		SELECT id, name, timezone, work_start_minute, work_end_minute, slot_granularity_minutes, is_active, created_at
		FROM tenants
		WHERE id = $1
	`

	var tenant entity.Tenant
	err := r.db.QueryRow(ctx, query, id).Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Timezone,
		&tenant.WorkStartMinute,
		&tenant.WorkEndMinute,
		&tenant.SlotGranularity,
		&tenant.IsActive,
		&tenant.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find tenant by ID",
			zap.Error(err),
			zap.String("tenant_id", id.String()),
		)
		return nil, fmt.Errorf("find tenant by ID %s: %w", id.String(), err)
	}

	return &tenant, nil
}
