package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/data/repository"
	"appointment-booking/internal/dto/request"
	"appointment-booking/pkg/database"
	"appointment-booking/pkg/events"
	"appointment-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// In-memory storage fakes. They carry real state, unlike the expectation
// mocks, so concurrent units of work contend over a shared calendar the way
// they would over a real table. All access happens under the serialTxRunner
// lock.

type memStore struct {
	bookings []*entity.Booking
	blocks   []*entity.BlockedSlot
	history  []*entity.BookingHistory
}

type memBookingRepo struct {
	store *memStore
}

func (r *memBookingRepo) Create(ctx context.Context, booking *entity.Booking) error {
	r.store.bookings = append(r.store.bookings, booking)
	return nil
}

func (r *memBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	for _, b := range r.store.bookings {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, nil
}

func (r *memBookingRepo) FindByUser(ctx context.Context, tenantID uuid.UUID, userID string, limit, offset int) ([]*entity.Booking, error) {
	var out []*entity.Booking
	for _, b := range r.store.bookings {
		if b.TenantID == tenantID && b.UserID == userID {
			out = append(out, b)
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *memBookingRepo) CountByUser(ctx context.Context, tenantID uuid.UUID, userID string) (int64, error) {
	var n int64
	for _, b := range r.store.bookings {
		if b.TenantID == tenantID && b.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *memBookingRepo) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus, reason string) error {
	for _, b := range r.store.bookings {
		if b.ID == bookingID {
			b.Status = status
			b.CancelReason = reason
			return nil
		}
	}
	return errors.New("booking not found")
}

func (r *memBookingRepo) FindConfirmedByDate(ctx context.Context, tenantID uuid.UUID, date string) ([]*entity.Booking, error) {
	var out []*entity.Booking
	for _, b := range r.store.bookings {
		if b.TenantID == tenantID && b.Date == date && b.Status == entity.BookingStatusConfirmed {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) FindConfirmedOverlapping(ctx context.Context, tenantID uuid.UUID, date string, startMinute, endMinute int) ([]*entity.Booking, error) {
	var out []*entity.Booking
	for _, b := range r.store.bookings {
		if b.TenantID == tenantID && b.Date == date && b.Status == entity.BookingStatusConfirmed &&
			b.StartMinute < endMinute && b.EndMinute() > startMinute {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) CountActiveByUser(ctx context.Context, tenantID uuid.UUID, userID string, date string, nowMinute int) (int64, error) {
	var n int64
	for _, b := range r.store.bookings {
		if b.TenantID != tenantID || b.UserID != userID || b.Status != entity.BookingStatusConfirmed {
			continue
		}
		if b.Date > date || (b.Date == date && b.StartMinute >= nowMinute) {
			n++
		}
	}
	return n, nil
}

type memBlockedSlotRepo struct {
	store *memStore
}

func (r *memBlockedSlotRepo) Create(ctx context.Context, slot *entity.BlockedSlot) error {
	r.store.blocks = append(r.store.blocks, slot)
	return nil
}

func (r *memBlockedSlotRepo) FindByDate(ctx context.Context, tenantID uuid.UUID, date string) ([]*entity.BlockedSlot, error) {
	var out []*entity.BlockedSlot
	for _, s := range r.store.blocks {
		if s.TenantID == tenantID && s.Date == date {
			out = append(out, s)
		}
	}
	return out, nil
}

type memHistoryRepo struct {
	store *memStore
}

func (r *memHistoryRepo) Append(ctx context.Context, record *entity.BookingHistory) error {
	r.store.history = append(r.store.history, record)
	return nil
}

type staticServiceRepo struct {
	svc *entity.Service
}

func (r staticServiceRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*entity.Service, error) {
	return r.svc, nil
}

func (r staticServiceRepo) FindActive(ctx context.Context, tenantID uuid.UUID) ([]*entity.Service, error) {
	return []*entity.Service{r.svc}, nil
}

func newMemService(tenant *entity.Tenant, offering *entity.Service) (*bookingService, *memStore) {
	store := &memStore{}
	repo := &repository.Repository{
		Service:     staticServiceRepo{svc: offering},
		Booking:     &memBookingRepo{store: store},
		BlockedSlot: &memBlockedSlotRepo{store: store},
		History:     &memHistoryRepo{store: store},
	}

	cfg := utils.BookingConfig{MaxPerUser: 100, CancellationWindowHours: 24}

	svc := NewBookingService(repo, &serialTxRunner{}, openLimiter{}, events.NopPublisher{}, cfg, zap.NewNop()).(*bookingService)
	svc.withTx = func(q database.Querier) *repository.Repository { return repo }
	svc.now = func() time.Time { return testNow }

	return svc, store
}

func TestConcurrentCreateSameSlotOneWins(t *testing.T) {
	tenant := testTenant()
	offering := &entity.Service{
		BaseSimple:      entity.BaseSimple{ID: uuid.New(), CreatedAt: testNow},
		TenantID:        tenant.ID,
		DurationMinutes: 60,
		IsActive:        true,
	}
	svc, store := newMemService(tenant, offering)

	const callers = 20
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateBooking(context.Background(), tenant, "user-"+uuid.NewString()[:8], &request.CreateBookingRequest{
				Date:      "2026-03-02",
				Time:      "10:00",
				ServiceID: offering.ID.String(),
			})
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrSlotTaken):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, won)
	assert.Equal(t, callers-1, lost)
	require.Len(t, store.bookings, 1)
	require.Len(t, store.history, 1)
}

func TestConcurrentBlockAndCreateNeverBothSucceed(t *testing.T) {
	tenant := testTenant()
	offering := &entity.Service{
		BaseSimple:      entity.BaseSimple{ID: uuid.New(), CreatedAt: testNow},
		TenantID:        tenant.ID,
		DurationMinutes: 30,
		IsActive:        true,
	}
	svc, store := newMemService(tenant, offering)

	var wg sync.WaitGroup
	var createErr, blockErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, createErr = svc.CreateBooking(context.Background(), tenant, "user-1", &request.CreateBookingRequest{
			Date:      "2026-03-02",
			Time:      "10:00",
			ServiceID: offering.ID.String(),
		})
	}()
	go func() {
		defer wg.Done()
		_, blockErr = svc.BlockSlot(context.Background(), tenant, "admin-1", &request.BlockSlotRequest{
			Date:   "2026-03-02",
			Time:   "10:00",
			Reason: "maintenance",
		})
	}()
	wg.Wait()

	// The block always lands. Whichever order the two units of work ran in,
	// no confirmed booking may survive on the blocked interval afterwards.
	require.NoError(t, blockErr)
	require.Len(t, store.blocks, 1)

	for _, b := range store.bookings {
		if b.Status == entity.BookingStatusConfirmed {
			t.Fatalf("confirmed booking %s survived on a blocked slot (create err: %v)", b.ID, createErr)
		}
	}
	if createErr != nil {
		assert.ErrorIs(t, createErr, ErrSlotBlocked)
	}
}
