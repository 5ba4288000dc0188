package adaptor

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/dto/request"
	"appointment-booking/internal/dto/response"
	"appointment-booking/internal/usecase"
	"appointment-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) CreateBooking(ctx context.Context, tenant *entity.Tenant, userID string, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	args := m.Called(ctx, tenant, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.BookingResponse), args.Error(1)
}

func (m *MockBookingService) CancelBooking(ctx context.Context, tenant *entity.Tenant, bookingID, actorID, reason string, adminOverride bool) error {
	args := m.Called(ctx, tenant, bookingID, actorID, reason, adminOverride)
	return args.Error(0)
}

func (m *MockBookingService) RescheduleBooking(ctx context.Context, tenant *entity.Tenant, bookingID, userID string, req *request.RescheduleBookingRequest) (*response.BookingResponse, error) {
	args := m.Called(ctx, tenant, bookingID, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.BookingResponse), args.Error(1)
}

func (m *MockBookingService) GetOccupiedSlots(ctx context.Context, tenant *entity.Tenant, date string) ([]response.OccupiedSlotResponse, error) {
	args := m.Called(ctx, tenant, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]response.OccupiedSlotResponse), args.Error(1)
}

func (m *MockBookingService) GetUserBookings(ctx context.Context, tenant *entity.Tenant, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	args := m.Called(ctx, tenant, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.PaginatedResponse[response.BookingResponse]), args.Error(1)
}

func (m *MockBookingService) BlockSlot(ctx context.Context, tenant *entity.Tenant, adminID string, req *request.BlockSlotRequest) (*response.BlockSlotResponse, error) {
	args := m.Called(ctx, tenant, adminID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.BlockSlotResponse), args.Error(1)
}

func testRequest(t *testing.T, method, target string, body any, tenant *entity.Tenant, userID string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)

	ctx := req.Context()
	if tenant != nil {
		ctx = utils.SetTenantContext(ctx, tenant)
	}
	if userID != "" {
		ctx = utils.SetUserContext(ctx, userID)
	}
	return req.WithContext(ctx)
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func handlerTenant() *entity.Tenant {
	return &entity.Tenant{
		BaseSimple:      entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
		Name:            "Main Street Clinic",
		Timezone:        "UTC",
		WorkStartMinute: 540,
		WorkEndMinute:   1080,
		SlotGranularity: 30,
		IsActive:        true,
	}
}

func TestCreateBookingHandler(t *testing.T) {
	tenant := handlerTenant()

	t.Run("created", func(t *testing.T) {
		svc := new(MockBookingService)
		h := NewBookingHandler(svc, zap.NewNop())

		svc.On("CreateBooking", mock.Anything, tenant, "user-1", mock.AnythingOfType("*request.CreateBookingRequest")).
			Return(&response.BookingResponse{ID: uuid.NewString(), Date: "2026-03-02", Time: "10:00", Status: "confirmed"}, nil)

		body := request.CreateBookingRequest{Date: "2026-03-02", Time: "10:00", ServiceID: uuid.NewString()}
		rec := httptest.NewRecorder()
		h.CreateBooking(rec, testRequest(t, http.MethodPost, "/api/bookings", body, tenant, "user-1"))

		assert.Equal(t, http.StatusCreated, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("missing user identity", func(t *testing.T) {
		svc := new(MockBookingService)
		h := NewBookingHandler(svc, zap.NewNop())

		body := request.CreateBookingRequest{Date: "2026-03-02", Time: "10:00", ServiceID: uuid.NewString()}
		rec := httptest.NewRecorder()
		h.CreateBooking(rec, testRequest(t, http.MethodPost, "/api/bookings", body, tenant, ""))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		svc.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid payload", func(t *testing.T) {
		svc := new(MockBookingService)
		h := NewBookingHandler(svc, zap.NewNop())

		body := request.CreateBookingRequest{Date: "bad", Time: "10:00", ServiceID: uuid.NewString()}
		rec := httptest.NewRecorder()
		h.CreateBooking(rec, testRequest(t, http.MethodPost, "/api/bookings", body, tenant, "user-1"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("slot taken maps to conflict", func(t *testing.T) {
		svc := new(MockBookingService)
		h := NewBookingHandler(svc, zap.NewNop())

		svc.On("CreateBooking", mock.Anything, tenant, "user-1", mock.Anything).Return(nil, usecase.ErrSlotTaken)

		body := request.CreateBookingRequest{Date: "2026-03-02", Time: "10:00", ServiceID: uuid.NewString()}
		rec := httptest.NewRecorder()
		h.CreateBooking(rec, testRequest(t, http.MethodPost, "/api/bookings", body, tenant, "user-1"))

		assert.Equal(t, http.StatusConflict, rec.Code)

		var resp utils.Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "slot_taken", resp.Code)
	})

	t.Run("rate limited maps to 429", func(t *testing.T) {
		svc := new(MockBookingService)
		h := NewBookingHandler(svc, zap.NewNop())

		svc.On("CreateBooking", mock.Anything, tenant, "user-1", mock.Anything).Return(nil, usecase.ErrRateLimited)

		body := request.CreateBookingRequest{Date: "2026-03-02", Time: "10:00", ServiceID: uuid.NewString()}
		rec := httptest.NewRecorder()
		h.CreateBooking(rec, testRequest(t, http.MethodPost, "/api/bookings", body, tenant, "user-1"))

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})
}

func TestCancelBookingHandlerErrorMapping(t *testing.T) {
	tenant := handlerTenant()
	bookingID := uuid.NewString()

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"not found", usecase.ErrBookingNotFound, http.StatusNotFound},
		{"not owner", usecase.ErrNotOwner, http.StatusForbidden},
		{"window closed", usecase.ErrCancellationWindow, http.StatusConflict},
		{"not active", usecase.ErrBookingNotActive, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockBookingService)
			h := NewBookingHandler(svc, zap.NewNop())

			svc.On("CancelBooking", mock.Anything, tenant, bookingID, "user-1", "", false).Return(tt.err)

			rec := httptest.NewRecorder()
			req := testRequest(t, http.MethodDelete, "/api/bookings/"+bookingID, nil, tenant, "user-1")
			req = withURLParam(req, "id", bookingID)
			h.CancelBooking(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
