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

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByUser(ctx context.Context, tenantID uuid.UUID, userID string, limit, offset int) ([]*entity.Booking, error)
	CountByUser(ctx context.Context, tenantID uuid.UUID, userID string) (int64, error)
	UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus, reason string) error

	// Calendar queries
	FindConfirmedByDate(ctx context.Context, tenantID uuid.UUID, date string) ([]*entity.Booking, error)
	FindConfirmedOverlapping(ctx context.Context, tenantID uuid.UUID, date string, startMinute, endMinute int) ([]*entity.Booking, error)
	CountActiveByUser(ctx context.Context, tenantID uuid.UUID, userID string, date string, nowMinute int) (int64, error)
}

type bookingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewBookingRepository(db database.Querier, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, tenant_id, user_id, service_id, date, start_minute, duration_minutes, status, cancel_reason, created_at, updated_at`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.TenantID,
		&booking.UserID,
		&booking.ServiceID,
		&booking.Date,
		&booking.StartMinute,
		&booking.DurationMinutes,
		&booking.Status,
		&booking.CancelReason,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.TenantID,
		booking.UserID,
		booking.ServiceID,
		booking.Date,
		booking.StartMinute,
		booking.DurationMinutes,
		booking.Status,
		booking.CancelReason,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("tenant_id", booking.TenantID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.ID.String(), err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByUser(ctx context.Context, tenantID uuid.UUID, userID string, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE tenant_id = $1 AND user_id = $2
		ORDER BY date DESC, start_minute DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, tenantID, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by user",
			zap.Error(err),
			zap.String("tenant_id", tenantID.String()),
			zap.String("user_id", userID),
		)
		return nil, fmt.Errorf("find bookings by user %s: %w", userID, err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (r *bookingRepository) CountByUser(ctx context.Context, tenantID uuid.UUID, userID string) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE tenant_id = $1 AND user_id = $2`

	var count int64
	if err := r.db.QueryRow(ctx, query, tenantID, userID).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings by user",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return 0, fmt.Errorf("count bookings by user %s: %w", userID, err)
	}

	return count, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus, reason string) error {
	query := `UPDATE bookings SET status = $2, cancel_reason = $3, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, bookingID, status, reason)
	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update booking %s status to %s: %w", bookingID.String(), string(status), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", bookingID.String())
	}

	return nil
}

func (r *bookingRepository) FindConfirmedByDate(ctx context.Context, tenantID uuid.UUID, date string) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE tenant_id = $1 AND date = $2 AND status = 'confirmed'
		ORDER BY start_minute
	`

	rows, err := r.db.Query(ctx, query, tenantID, date)
	if err != nil {
		r.log.Error("Failed to find confirmed bookings by date",
			zap.Error(err),
			zap.String("tenant_id", tenantID.String()),
			zap.String("date", date),
		)
		return nil, fmt.Errorf("find confirmed bookings for %s: %w", date, err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// FindConfirmedOverlapping returns confirmed bookings whose half-open
// interval intersects [startMinute, endMinute).
func (r *bookingRepository) FindConfirmedOverlapping(ctx context.Context, tenantID uuid.UUID, date string, startMinute, endMinute int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE tenant_id = $1 AND date = $2 AND status = 'confirmed'
		  AND start_minute < $4 AND start_minute + duration_minutes > $3
		ORDER BY start_minute
	`

	rows, err := r.db.Query(ctx, query, tenantID, date, startMinute, endMinute)
	if err != nil {
		r.log.Error("Failed to find overlapping bookings",
			zap.Error(err),
			zap.String("tenant_id", tenantID.String()),
			zap.String("date", date),
			zap.Int("start_minute", startMinute),
			zap.Int("end_minute", endMinute),
		)
		return nil, fmt.Errorf("find overlapping bookings for %s: %w", date, err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// CountActiveByUser counts the user's confirmed bookings that have not yet
// started: any future date, or today with a start minute still ahead.
func (r *bookingRepository) CountActiveByUser(ctx context.Context, tenantID uuid.UUID, userID string, date string, nowMinute int) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings
		WHERE tenant_id = $1 AND user_id = $2 AND status = 'confirmed'
		  AND (date > $3 OR (date = $3 AND start_minute >= $4))
	`

	var count int64
	if err := r.db.QueryRow(ctx, query, tenantID, userID, date, nowMinute).Scan(&count); err != nil {
		r.log.Error("Failed to count active bookings",
			zap.Error(err),
			zap.String("tenant_id", tenantID.String()),
			zap.String("user_id", userID),
		)
		return 0, fmt.Errorf("count active bookings for %s: %w", userID, err)
	}

	return count, nil
}

func collectBookings(rows pgx.Rows) ([]*entity.Booking, error) {
	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}
