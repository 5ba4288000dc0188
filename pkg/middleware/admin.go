package middleware

import (
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"appointment-booking/pkg/utils"
)

// Admin guards administrative routes. The caller proves possession of the
// admin API key via X-Admin-Key, compared against the bcrypt hash from
// configuration. X-Admin-ID is recorded in the audit trail and defaults
// to "admin" when absent.
func Admin(keyHash string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if keyHash == "" {
				logger.Warn("Admin route hit but no admin key is configured",
					zap.String("path", r.URL.Path),
				)
				utils.ResponseForbidden(w, "Administrative access is disabled")
				return
			}

			key := r.Header.Get("X-Admin-Key")
			if key == "" {
				utils.ResponseUnauthorized(w, "X-Admin-Key header is required")
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)); err != nil {
				logger.Warn("Rejected admin request with invalid key",
					zap.String("path", r.URL.Path),
					zap.String("ip", r.RemoteAddr),
				)
				utils.ResponseUnauthorized(w, "Invalid admin key")
				return
			}

			adminID := r.Header.Get("X-Admin-ID")
			if adminID == "" {
				adminID = "admin"
			}

			ctx := utils.SetAdminContext(r.Context(), adminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
