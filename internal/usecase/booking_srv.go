package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/data/repository"
	"appointment-booking/internal/dto/request"
	"appointment-booking/internal/dto/response"
	"appointment-booking/pkg/database"
	"appointment-booking/pkg/events"
	"appointment-booking/pkg/ratelimit"
	"appointment-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// TxRunner runs a unit of work inside a bounded, isolated transaction.
// *database.Executor satisfies it.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, q database.Querier) error) error
	RunReadOnly(ctx context.Context, fn func(ctx context.Context, q database.Querier) error) error
}

type BookingService interface {
	// User operations
	CreateBooking(ctx context.Context, tenant *entity.Tenant, userID string, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	CancelBooking(ctx context.Context, tenant *entity.Tenant, bookingID, actorID, reason string, adminOverride bool) error
	RescheduleBooking(ctx context.Context, tenant *entity.Tenant, bookingID, userID string, req *request.RescheduleBookingRequest) (*response.BookingResponse, error)
	GetOccupiedSlots(ctx context.Context, tenant *entity.Tenant, date string) ([]response.OccupiedSlotResponse, error)
	GetUserBookings(ctx context.Context, tenant *entity.Tenant, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)

	// Admin operations
	BlockSlot(ctx context.Context, tenant *entity.Tenant, adminID string, req *request.BlockSlotRequest) (*response.BlockSlotResponse, error)
}

type bookingService struct {
	repo     *repository.Repository
	exec     TxRunner
	limiter  ratelimit.Limiter
	events   events.Publisher
	cfg      utils.BookingConfig
	resolver conflictResolver

	// withTx binds repositories to an open transaction; now supplies the
	// wall clock. Both are fields so tests can substitute them.
	withTx func(q database.Querier) *repository.Repository
	now    func() time.Time

	log *zap.Logger
}

func NewBookingService(repo *repository.Repository, exec TxRunner, limiter ratelimit.Limiter, pub events.Publisher, cfg utils.BookingConfig, log *zap.Logger) BookingService {
	return &bookingService{
		repo:    repo,
		exec:    exec,
		limiter: limiter,
		events:  pub,
		cfg:     cfg,
		withTx:  repo.WithQuerier,
		now:     time.Now,
		log:     log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, tenant *entity.Tenant, userID string, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid service ID %s", ErrValidation, req.ServiceID)
	}

	// Rate limit before anything touches storage: a rejected caller must not
	// cost a connection, let alone a transaction slot.
	if res := s.limiter.Check(tenant.ID.String(), userID); !res.Allowed {
		wait := int(res.RetryAfter.Round(time.Second) / time.Second)
		s.log.Warn("Booking attempt rate limited",
			zap.String("tenant_id", tenant.ID.String()),
			zap.String("user_id", userID),
			zap.Duration("retry_after", res.RetryAfter),
		)
		return nil, fmt.Errorf("%w, wait %d seconds", ErrRateLimited, wait)
	}

	service, err := s.repo.Service.FindByID(ctx, tenant.ID, serviceID)
	if err != nil {
		return nil, fmt.Errorf("look up service: %w", err)
	}
	if service == nil || !service.IsActive {
		return nil, fmt.Errorf("%w: service %s", ErrServiceUnavailable, req.ServiceID)
	}

	startMinute, _, err := s.validateSlot(tenant, req.Date, req.Time, service.DurationMinutes)
	if err != nil {
		return nil, err
	}

	var booking *entity.Booking
	err = s.exec.Run(ctx, func(ctx context.Context, q database.Querier) error {
		txRepo := s.withTx(q)

		now := s.tenantNow(tenant)
		active, err := txRepo.Booking.CountActiveByUser(ctx, tenant.ID, userID, now.Format(dateLayout), minuteOfDay(now))
		if err != nil {
			return err
		}
		if active >= int64(s.cfg.MaxPerUser) {
			return fmt.Errorf("%w: %d active bookings", ErrBookingLimitExceeded, active)
		}

		// Availability is decided inside this transaction, never before it.
		if err := s.resolver.Check(ctx, txRepo, tenant, req.Date, startMinute, service.DurationMinutes, uuid.Nil); err != nil {
			return err
		}

		created := s.now()
		b := &entity.Booking{
			Base: entity.Base{
				ID:        uuid.New(),
				CreatedAt: created,
				UpdatedAt: created,
			},
			TenantID:        tenant.ID,
			UserID:          userID,
			ServiceID:       service.ID,
			Date:            req.Date,
			StartMinute:     startMinute,
			DurationMinutes: service.DurationMinutes,
			Status:          entity.BookingStatusConfirmed,
		}

		if err := txRepo.Booking.Create(ctx, b); err != nil {
			return err
		}
		if err := txRepo.History.Append(ctx, s.historyRecord(b, entity.HistoryActionCreated, userID, "")); err != nil {
			return err
		}

		booking = b
		return nil
	})
	if err != nil {
		s.log.Warn("Create booking rejected",
			zap.Error(err),
			zap.String("tenant_id", tenant.ID.String()),
			zap.String("user_id", userID),
			zap.String("date", req.Date),
			zap.String("time", req.Time),
		)
		return nil, err
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("user_id", userID),
		zap.String("date", booking.Date),
		zap.Int("start_minute", booking.StartMinute),
		zap.Int("duration_minutes", booking.DurationMinutes),
	)

	s.publish(events.KeyBookingConfirmed, bookingEvent(booking, ""))

	resp := s.toBookingResponse(tenant, booking)
	return &resp, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, tenant *entity.Tenant, bookingID, actorID, reason string, adminOverride bool) error {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return fmt.Errorf("%w: invalid booking ID %s", ErrValidation, bookingID)
	}

	var booking *entity.Booking
	err = s.exec.Run(ctx, func(ctx context.Context, q database.Querier) error {
		txRepo := s.withTx(q)

		b, err := txRepo.Booking.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if b == nil || b.TenantID != tenant.ID {
			return fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
		}
		if !adminOverride && b.UserID != actorID {
			return fmt.Errorf("%w: %s", ErrNotOwner, bookingID)
		}
		if b.Status != entity.BookingStatusConfirmed {
			return fmt.Errorf("%w: status is %s", ErrBookingNotActive, b.Status)
		}

		start, err := slotStart(tenant, b.Date, b.StartMinute)
		if err != nil {
			return err
		}
		now := s.tenantNow(tenant)
		if !start.After(now) {
			return fmt.Errorf("%w: booking already started", ErrBookingNotActive)
		}
		if !adminOverride && !now.Before(start.Add(-s.cfg.CancellationWindow())) {
			return fmt.Errorf("%w: can only cancel %dh in advance", ErrCancellationWindow, s.cfg.CancellationWindowHours)
		}

		if err := txRepo.Booking.UpdateStatus(ctx, b.ID, entity.BookingStatusCancelled, reason); err != nil {
			return err
		}
		if err := txRepo.History.Append(ctx, s.historyRecord(b, entity.HistoryActionCancelled, actorID, reason)); err != nil {
			return err
		}

		b.Status = entity.BookingStatusCancelled
		b.CancelReason = reason
		booking = b
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("Booking cancelled",
		zap.String("booking_id", booking.ID.String()),
		zap.String("actor", actorID),
		zap.Bool("admin_override", adminOverride),
	)

	s.publish(events.KeyBookingCancelled, bookingEvent(booking, reason))

	return nil
}

func (s *bookingService) RescheduleBooking(ctx context.Context, tenant *entity.Tenant, bookingID, userID string, req *request.RescheduleBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking ID %s", ErrValidation, bookingID)
	}

	var newBooking *entity.Booking
	err = s.exec.Run(ctx, func(ctx context.Context, q database.Querier) error {
		txRepo := s.withTx(q)

		b, err := txRepo.Booking.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if b == nil || b.TenantID != tenant.ID {
			return fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
		}
		if b.UserID != userID {
			return fmt.Errorf("%w: %s", ErrNotOwner, bookingID)
		}
		if b.Status != entity.BookingStatusConfirmed {
			return fmt.Errorf("%w: status is %s", ErrBookingNotActive, b.Status)
		}

		// The window is evaluated against the slot being given up, not the
		// target slot.
		origStart, err := slotStart(tenant, b.Date, b.StartMinute)
		if err != nil {
			return err
		}
		now := s.tenantNow(tenant)
		if !origStart.After(now) {
			return fmt.Errorf("%w: booking already started", ErrBookingNotActive)
		}
		if !now.Before(origStart.Add(-s.cfg.CancellationWindow())) {
			return fmt.Errorf("%w: can only reschedule %dh in advance", ErrCancellationWindow, s.cfg.CancellationWindowHours)
		}

		startMinute, _, err := s.validateSlot(tenant, req.Date, req.Time, b.DurationMinutes)
		if err != nil {
			return err
		}

		// The booking being moved does not conflict with itself. If the new
		// slot is occupied we abort here and the original row is untouched.
		if err := s.resolver.Check(ctx, txRepo, tenant, req.Date, startMinute, b.DurationMinutes, b.ID); err != nil {
			return err
		}

		created := s.now()
		nb := &entity.Booking{
			Base: entity.Base{
				ID:        uuid.New(),
				CreatedAt: created,
				UpdatedAt: created,
			},
			TenantID:        b.TenantID,
			UserID:          b.UserID,
			ServiceID:       b.ServiceID,
			Date:            req.Date,
			StartMinute:     startMinute,
			DurationMinutes: b.DurationMinutes,
			Status:          entity.BookingStatusConfirmed,
		}

		if err := txRepo.Booking.Create(ctx, nb); err != nil {
			return err
		}
		if err := txRepo.Booking.UpdateStatus(ctx, b.ID, entity.BookingStatusCancelled, "rescheduled"); err != nil {
			return err
		}

		detail, _ := json.Marshal(map[string]string{
			"from_date":      b.Date,
			"from_time":      utils.FormatClock(b.StartMinute),
			"to_date":        nb.Date,
			"to_time":        utils.FormatClock(nb.StartMinute),
			"new_booking_id": nb.ID.String(),
		})
		if err := txRepo.History.Append(ctx, s.historyRecord(b, entity.HistoryActionRescheduled, userID, string(detail))); err != nil {
			return err
		}

		newBooking = nb
		return nil
	})
	if err != nil {
		s.log.Warn("Reschedule rejected",
			zap.Error(err),
			zap.String("booking_id", bookingID),
			zap.String("user_id", userID),
		)
		return nil, err
	}

	s.log.Info("Booking rescheduled",
		zap.String("old_booking_id", bookingID),
		zap.String("new_booking_id", newBooking.ID.String()),
		zap.String("date", newBooking.Date),
		zap.Int("start_minute", newBooking.StartMinute),
	)

	s.publish(events.KeyBookingRescheduled, bookingEvent(newBooking, ""))

	resp := s.toBookingResponse(tenant, newBooking)
	return &resp, nil
}

func (s *bookingService) BlockSlot(ctx context.Context, tenant *entity.Tenant, adminID string, req *request.BlockSlotRequest) (*response.BlockSlotResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	startMinute, err := utils.ParseClock(req.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSlot, err)
	}
	if startMinute%tenant.SlotGranularity != 0 {
		return nil, fmt.Errorf("%w: time must align to %d-minute slots", ErrInvalidSlot, tenant.SlotGranularity)
	}
	start, err := slotStart(tenant, req.Date, startMinute)
	if err != nil {
		return nil, err
	}
	if !start.After(s.tenantNow(tenant)) {
		return nil, fmt.Errorf("%w: %s %s", ErrPastSlot, req.Date, req.Time)
	}

	var (
		slot     *entity.BlockedSlot
		affected []*entity.Booking
	)
	err = s.exec.Run(ctx, func(ctx context.Context, q database.Querier) error {
		txRepo := s.withTx(q)

		bs := &entity.BlockedSlot{
			BaseSimple: entity.BaseSimple{
				ID:        uuid.New(),
				CreatedAt: s.now(),
			},
			TenantID:    tenant.ID,
			Date:        req.Date,
			StartMinute: startMinute,
			Reason:      req.Reason,
			CreatedBy:   adminID,
		}
		if err := txRepo.BlockedSlot.Create(ctx, bs); err != nil {
			return err
		}

		// Cascading cancellation: bookings the block invalidates go down in
		// the same commit, so a blocked-but-still-booked state is never
		// observable.
		overlapped, err := txRepo.Booking.FindConfirmedOverlapping(ctx, tenant.ID, req.Date, startMinute, startMinute+tenant.SlotGranularity)
		if err != nil {
			return err
		}
		for _, b := range overlapped {
			if err := txRepo.Booking.UpdateStatus(ctx, b.ID, entity.BookingStatusCancelled, req.Reason); err != nil {
				return err
			}
			if err := txRepo.History.Append(ctx, s.historyRecord(b, entity.HistoryActionBlockedCascade, adminID, req.Reason)); err != nil {
				return err
			}
			b.Status = entity.BookingStatusCancelled
			b.CancelReason = req.Reason
		}

		slot = bs
		affected = overlapped
		return nil
	})
	if err != nil {
		s.log.Warn("Block slot rejected",
			zap.Error(err),
			zap.String("tenant_id", tenant.ID.String()),
			zap.String("date", req.Date),
			zap.String("time", req.Time),
		)
		return nil, err
	}

	s.log.Info("Slot blocked",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("date", req.Date),
		zap.String("time", req.Time),
		zap.String("admin", adminID),
		zap.Int("cancelled_bookings", len(affected)),
	)

	users := make([]string, len(affected))
	for i, b := range affected {
		users[i] = b.UserID
		s.publish(events.KeyBookingCancelled, bookingEvent(b, req.Reason))
	}
	s.publish(events.KeySlotBlocked, events.SlotBlockedEvent{
		TenantID:      tenant.ID.String(),
		Date:          req.Date,
		Time:          req.Time,
		Reason:        req.Reason,
		BlockedBy:     adminID,
		AffectedUsers: users,
	})

	resp := &response.BlockSlotResponse{
		ID:     slot.ID.String(),
		Date:   slot.Date,
		Start:  utils.FormatClock(slot.StartMinute),
		End:    utils.FormatClock(slot.StartMinute + tenant.SlotGranularity),
		Reason: slot.Reason,
	}
	for _, b := range affected {
		resp.AffectedBookings = append(resp.AffectedBookings, response.AffectedBookingResponse{
			BookingID: b.ID.String(),
			UserID:    b.UserID,
		})
	}
	return resp, nil
}

func (s *bookingService) GetOccupiedSlots(ctx context.Context, tenant *entity.Tenant, date string) ([]response.OccupiedSlotResponse, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", ErrValidation, date)
	}

	var slots []response.OccupiedSlotResponse
	err := s.exec.RunReadOnly(ctx, func(ctx context.Context, q database.Querier) error {
		txRepo := s.withTx(q)

		bookings, err := txRepo.Booking.FindConfirmedByDate(ctx, tenant.ID, date)
		if err != nil {
			return err
		}
		blocks, err := txRepo.BlockedSlot.FindByDate(ctx, tenant.ID, date)
		if err != nil {
			return err
		}

		for _, b := range bookings {
			slots = append(slots, response.OccupiedSlotResponse{
				Date:   b.Date,
				Start:  utils.FormatClock(b.StartMinute),
				End:    utils.FormatClock(b.EndMinute()),
				Kind:   "booking",
				Status: string(s.derivedStatus(tenant, b)),
			})
		}
		for _, bl := range blocks {
			slots = append(slots, response.OccupiedSlotResponse{
				Date:  bl.Date,
				Start: utils.FormatClock(bl.StartMinute),
				End:   utils.FormatClock(bl.StartMinute + tenant.SlotGranularity),
				Kind:  "blocked",
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Start < slots[j].Start })
	return slots, nil
}

func (s *bookingService) GetUserBookings(ctx context.Context, tenant *entity.Tenant, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	limit := req.Limit()
	offset := req.Offset()

	var (
		bookings []*entity.Booking
		total    int64
	)
	err := s.exec.RunReadOnly(ctx, func(ctx context.Context, q database.Querier) error {
		txRepo := s.withTx(q)

		var err error
		bookings, err = txRepo.Booking.FindByUser(ctx, tenant.ID, userID, limit, offset)
		if err != nil {
			return err
		}
		total, err = txRepo.Booking.CountByUser(ctx, tenant.ID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	items := make([]response.BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = s.toBookingResponse(tenant, b)
	}

	return response.NewPaginatedResponse(items, req.Page, req.PerPage, total), nil
}

// ==================== HELPERS ====================

func (s *bookingService) tenantNow(tenant *entity.Tenant) time.Time {
	return s.now().In(tenant.Location())
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// slotStart resolves a (date, minute) slot position to tenant-local wall
// clock time.
func slotStart(tenant *entity.Tenant, date string, minute int) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, date, tenant.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrInvalidSlot, date)
	}
	return day.Add(time.Duration(minute) * time.Minute), nil
}

// validateSlot applies the shape rules shared by create and reschedule:
// parseable time, granularity alignment, inside work hours, not in the past.
func (s *bookingService) validateSlot(tenant *entity.Tenant, date, clock string, durationMinutes int) (int, time.Time, error) {
	startMinute, err := utils.ParseClock(clock)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidSlot, err)
	}
	if startMinute%tenant.SlotGranularity != 0 {
		return 0, time.Time{}, fmt.Errorf("%w: time must align to %d-minute slots", ErrInvalidSlot, tenant.SlotGranularity)
	}

	start, err := slotStart(tenant, date, startMinute)
	if err != nil {
		return 0, time.Time{}, err
	}

	if startMinute < tenant.WorkStartMinute || startMinute+durationMinutes > tenant.WorkEndMinute {
		return 0, time.Time{}, fmt.Errorf("%w: %s-%s is outside %s-%s",
			ErrOutsideWorkHours,
			utils.FormatClock(startMinute),
			utils.FormatClock(startMinute+durationMinutes),
			utils.FormatClock(tenant.WorkStartMinute),
			utils.FormatClock(tenant.WorkEndMinute),
		)
	}

	if !start.After(s.tenantNow(tenant)) {
		return 0, time.Time{}, fmt.Errorf("%w: %s %s", ErrPastSlot, date, clock)
	}

	return startMinute, start, nil
}

func (s *bookingService) derivedStatus(tenant *entity.Tenant, b *entity.Booking) entity.BookingStatus {
	if b.Status != entity.BookingStatusConfirmed {
		return b.Status
	}
	end, err := slotStart(tenant, b.Date, b.EndMinute())
	if err == nil && !end.After(s.tenantNow(tenant)) {
		return entity.BookingStatusCompleted
	}
	return b.Status
}

func (s *bookingService) toBookingResponse(tenant *entity.Tenant, b *entity.Booking) response.BookingResponse {
	return response.BookingResponse{
		ID:              b.ID.String(),
		UserID:          b.UserID,
		ServiceID:       b.ServiceID.String(),
		Date:            b.Date,
		Time:            utils.FormatClock(b.StartMinute),
		EndTime:         utils.FormatClock(b.EndMinute()),
		DurationMinutes: b.DurationMinutes,
		Status:          string(s.derivedStatus(tenant, b)),
		CancelReason:    b.CancelReason,
		CreatedAt:       b.CreatedAt,
	}
}

func (s *bookingService) historyRecord(b *entity.Booking, action entity.HistoryAction, actor, detail string) *entity.BookingHistory {
	return &entity.BookingHistory{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: s.now(),
		},
		BookingID: b.ID,
		TenantID:  b.TenantID,
		Action:    action,
		Actor:     actor,
		Detail:    detail,
	}
}

func bookingEvent(b *entity.Booking, reason string) events.BookingEvent {
	return events.BookingEvent{
		BookingID:       b.ID.String(),
		TenantID:        b.TenantID.String(),
		UserID:          b.UserID,
		Date:            b.Date,
		Time:            utils.FormatClock(b.StartMinute),
		DurationMinutes: b.DurationMinutes,
		Reason:          reason,
	}
}

// publish is fire-and-forget on a fresh context: the booking transaction has
// already committed and a broker hiccup must not fail the operation.
func (s *bookingService) publish(key string, payload any) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.events.Publish(ctx, key, payload); err != nil {
		s.log.Warn("Failed to publish event", zap.String("key", key), zap.Error(err))
	}
}
