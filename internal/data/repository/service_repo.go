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

// ServiceRepository is read-only: the offering catalog is managed by the
// platform's admin surface, not the booking engine.
type ServiceRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*entity.Service, error)
	FindActive(ctx context.Context, tenantID uuid.UUID) ([]*entity.Service, error)
}

type serviceRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewServiceRepository(db database.Querier, log *zap.Logger) ServiceRepository {
	return &serviceRepository{
		db:  db,
		log: log.With(zap.String("repository", "service")),
	}
}

func (r *serviceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*entity.Service, error) {
	query := `
		SELECT id, tenant_id, name, duration_minutes, price, is_active, created_at
		FROM services
		WHERE tenant_id = $1 AND id = $2
	`

	var service entity.Service
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(
		&service.ID,
		&service.TenantID,
		&service.Name,
		&service.DurationMinutes,
		&service.Price,
		&service.IsActive,
		&service.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find service by ID",
			zap.Error(err),
			zap.String("service_id", id.String()),
		)
		return nil, fmt.Errorf("find service by ID %s: %w", id.String(), err)
	}

	return &service, nil
}

func (r *serviceRepository) FindActive(ctx context.Context, tenantID uuid.UUID) ([]*entity.Service, error) {
	query := `
		SELECT id, tenant_id, name, duration_minutes, price, is_active, created_at
		FROM services
		WHERE tenant_id = $1 AND is_active = true
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		r.log.Error("Failed to find active services",
			zap.Error(err),
			zap.String("tenant_id", tenantID.String()),
		)
		return nil, fmt.Errorf("find active services: %w", err)
	}
	defer rows.Close()

	var services []*entity.Service
	for rows.Next() {
		var service entity.Service
		err := rows.Scan(
			&service.ID,
			&service.TenantID,
			&service.Name,
			&service.DurationMinutes,
			&service.Price,
			&service.IsActive,
			&service.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan service row: %w", err)
		}
		services = append(services, &service)
	}

	return services, rows.Err()
}
