package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/mutua/takabill/pkg/response"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// TenantIDKey is the context key for the resolved tenant ID
	TenantIDKey ContextKey = "tenant_id"
	// OperatorKey is the context key for the acting operator name
	OperatorKey ContextKey = "operator"
)

// OperatorAuth guards operator endpoints with a shared API key.
// An empty configured key disables the check (dev mode).
func OperatorAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey != "" {
				got := r.Header.Get("X-API-Key")
				if subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
					response.Unauthorized(w, "Invalid or missing API key")
					return
				}
			}

			ctx := r.Context()
			if operator := r.Header.Get("X-Operator"); operator != "" {
				ctx = context.WithValue(ctx, OperatorKey, operator)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantResolver reads the tenant ID from the X-Tenant-ID header and puts it
// on the request context. Every tenant-scoped route requires it.
func TenantResolver(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantIDStr := r.Header.Get("X-Tenant-ID")
		tenantID, err := strconv.ParseInt(tenantIDStr, 10, 64)
		if err != nil || tenantID < 1 {
			response.BadRequest(w, "Missing or invalid X-Tenant-ID header")
			return
		}

		ctx := context.WithValue(r.Context(), TenantIDKey, tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetTenantID extracts the tenant ID from the request context
func GetTenantID(ctx context.Context) (int64, bool) {
	tenantID, ok := ctx.Value(TenantIDKey).(int64)
	return tenantID, ok
}

// GetOperator extracts the acting operator from the request context,
// defaulting to "system" when no operator header was sent.
func GetOperator(ctx context.Context) string {
	if operator, ok := ctx.Value(OperatorKey).(string); ok && operator != "" {
		return operator
	}
	return "system"
}
