package utils

import (
	"context"

	"appointment-booking/internal/data/entity"
)

type contextKey string

const (
	TenantKey  contextKey = "tenant"
	UserIDKey  contextKey = "user_id"
	AdminIDKey contextKey = "admin_id"
)

// SetTenantContext stores the resolved tenant for the request.
func SetTenantContext(ctx context.Context, tenant *entity.Tenant) context.Context {
	return context.WithValue(ctx, TenantKey, tenant)
}

func GetTenantFromContext(ctx context.Context) (*entity.Tenant, bool) {
	tenant, ok := ctx.Value(TenantKey).(*entity.Tenant)
	if !ok || tenant == nil {
		return nil, false
	}
	return tenant, true
}

// SetUserContext stores the caller identity forwarded in the X-User-ID header.
func SetUserContext(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

// SetAdminContext marks the request as an authenticated administrative call.
func SetAdminContext(ctx context.Context, adminID string) context.Context {
	return context.WithValue(ctx, AdminIDKey, adminID)
}

func GetAdminIDFromContext(ctx context.Context) (string, bool) {
	adminID, ok := ctx.Value(AdminIDKey).(string)
	if !ok || adminID == "" {
		return "", false
	}
	return adminID, true
}
