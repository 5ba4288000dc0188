package adaptor

import (
	"encoding/json"
	"net/http"

	"appointment-booking/internal/dto/request"
	"appointment-booking/internal/usecase"
	"appointment-booking/pkg/utils"

	"go.uber.org/zap"
)

type ScheduleHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewScheduleHandler(service usecase.BookingService, log *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
		log:     log.With(zap.String("handler", "schedule")),
	}
}

// GetOccupiedSlots handles GET /api/schedule?date=YYYY-MM-DD
func (h *ScheduleHandler) GetOccupiedSlots(w http.ResponseWriter, r *http.Request) {
	tenant, ok := utils.GetTenantFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Tenant context required")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		utils.ResponseBadRequest(w, "Query parameter 'date' is required", nil)
		return
	}

	slots, err := h.service.GetOccupiedSlots(r.Context(), tenant, date)
	if err != nil {
		handleServiceError(w, err, "get occupied slots", h.log)
		return
	}

	utils.ResponseSuccess(w, "success", slots)
}

// BlockSlot handles POST /api/admin/blocked-slots
func (h *ScheduleHandler) BlockSlot(w http.ResponseWriter, r *http.Request) {
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

	var req request.BlockSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	result, err := h.service.BlockSlot(r.Context(), tenant, adminID, &req)
	if err != nil {
		handleServiceError(w, err, "block slot", h.log)
		return
	}

	utils.ResponseCreated(w, "success", result)
}
