package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"appointment-booking/internal/data/repository"
	"appointment-booking/pkg/utils"
)

// Tenant resolves the X-Tenant-ID header into a tenant record and stores it
// on the request context together with the optional X-User-ID identity.
// Requests without a valid, active tenant never reach the handlers.
func Tenant(tenants repository.TenantRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawID := r.Header.Get("X-Tenant-ID")
			if rawID == "" {
				utils.ResponseBadRequest(w, "X-Tenant-ID header is required", nil)
				return
			}

			tenantID, err := uuid.Parse(rawID)
			if err != nil {
				utils.ResponseBadRequest(w, "X-Tenant-ID must be a valid UUID", nil)
				return
			}

			tenant, err := tenants.FindByID(r.Context(), tenantID)
			if err != nil {
				logger.Error("Failed to resolve tenant",
					zap.Error(err),
					zap.String("tenant_id", rawID),
				)
				utils.ResponseInternalError(w, "Internal server error")
				return
			}
			if tenant == nil || !tenant.IsActive {
				utils.ResponseNotFound(w, "Tenant not found")
				return
			}

			ctx := utils.SetTenantContext(r.Context(), tenant)
			if userID := r.Header.Get("X-User-ID"); userID != "" {
				ctx = utils.SetUserContext(ctx, userID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
