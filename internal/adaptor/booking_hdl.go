package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"appointment-booking/internal/dto/request"
	"appointment-booking/internal/usecase"
	"appointment-booking/pkg/database"
	"appointment-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// CreateBooking handles POST /api/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	tenant, ok := utils.GetTenantFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Tenant context required")
		return
	}
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "User identity required")
		return
	}

	var req request.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), tenant, userID, &req)
	if err != nil {
		h.handleServiceError(w, err, "create booking")
		return
	}

	utils.ResponseCreated(w, "success", booking)
}

// CancelBooking handles DELETE /api/bookings/{id}
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	tenant, ok := utils.GetTenantFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Tenant context required")
		return
	}
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "User identity required")
		return
	}

	bookingID := chi.URLParam(r, "id")
	if bookingID == "" {
		utils.ResponseBadRequest(w, "Booking ID is required", nil)
		return
	}

	// Reason is optional; an empty body is fine.
	var req request.CancelBookingRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.service.CancelBooking(r.Context(), tenant, bookingID, userID, req.Reason, false); err != nil {
		h.handleServiceError(w, err, "cancel booking")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}

// RescheduleBooking handles POST /api/bookings/{id}/reschedule
func (h *BookingHandler) RescheduleBooking(w http.ResponseWriter, r *http.Request) {
	tenant, ok := utils.GetTenantFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Tenant context required")
		return
	}
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "User identity required")
		return
	}

	bookingID := chi.URLParam(r, "id")
	if bookingID == "" {
		utils.ResponseBadRequest(w, "Booking ID is required", nil)
		return
	}

	var req request.RescheduleBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.RescheduleBooking(r.Context(), tenant, bookingID, userID, &req)
	if err != nil {
		h.handleServiceError(w, err, "reschedule booking")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// GetUserBookings handles GET /api/user/bookings
func (h *BookingHandler) GetUserBookings(w http.ResponseWriter, r *http.Request) {
	tenant, ok := utils.GetTenantFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Tenant context required")
		return
	}
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "User identity required")
		return
	}

	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}

	bookings, err := h.service.GetUserBookings(r.Context(), tenant, userID, req)
	if err != nil {
		h.handleServiceError(w, err, "get user bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// ==================== ADMIN METHODS ====================

// AdminCancelBooking handles DELETE /api/admin/bookings/{id}. The override
// skips the ownership and cancellation-window checks.
func (h *BookingHandler) AdminCancelBooking(w http.ResponseWriter, r *http.Request) {
	tenant, ok := utils.GetTenantFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Tenant context required")
		return
	}
	adminID, ok := utils.GetAdminIDFromContext(r.Context())
	if !ok {
		utils.ResponseForbidden(w, "Admin access required")
		return
	}

	bookingID := chi.URLParam(r, "id")
	if bookingID == "" {
		utils.ResponseBadRequest(w, "Booking ID is required", nil)
		return
	}

	var req request.CancelBookingRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.service.CancelBooking(r.Context(), tenant, bookingID, adminID, req.Reason, true); err != nil {
		h.handleServiceError(w, err, "admin cancel booking")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}

// handleServiceError maps engine errors to HTTP responses with their stable
// wire codes.
func (h *BookingHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	handleServiceError(w, err, operation, h.log)
}

func handleServiceError(w http.ResponseWriter, err error, operation string, log *zap.Logger) {
	code := usecase.ErrorCode(err)

	switch {
	case errors.Is(err, usecase.ErrBookingNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrNotOwner):
		log.Warn(operation+" failed - not owner", zap.Error(err))
		utils.ResponseForbidden(w, err.Error())

	case errors.Is(err, usecase.ErrRateLimited):
		log.Warn(operation+" rate limited", zap.Error(err))
		utils.ResponseTooManyRequests(w, err.Error())

	case errors.Is(err, usecase.ErrSlotTaken),
		errors.Is(err, usecase.ErrSlotBlocked),
		errors.Is(err, usecase.ErrBookingLimitExceeded),
		errors.Is(err, usecase.ErrCancellationWindow),
		errors.Is(err, usecase.ErrBookingNotActive):
		log.Warn(operation+" failed - "+code, zap.Error(err))
		utils.ResponseConflict(w, err.Error(), code)

	case errors.Is(err, usecase.ErrValidation),
		errors.Is(err, usecase.ErrInvalidSlot),
		errors.Is(err, usecase.ErrOutsideWorkHours),
		errors.Is(err, usecase.ErrPastSlot),
		errors.Is(err, usecase.ErrServiceUnavailable):
		log.Warn(operation+" failed - validation", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, database.ErrTxTimeout),
		errors.Is(err, database.ErrRetriesExhausted):
		// The cause stays in operator logs; the caller just gets "retry".
		log.Error(operation+" failed - "+code, zap.Error(err))
		utils.ResponseServiceUnavailable(w, "Temporarily unavailable, please try again", code)

	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
