package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/berryfarm/backend/internal/models"
)

type contextKey string

const (
	ctxAccountIDKey contextKey = "account_id"
	ctxRoleKey      contextKey = "role"
)

// TokenValidator is the subset of the identity service auth needs.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (uuid.UUID, string, error)
}

// Auth authenticates requests by validating the Bearer token and putting
// the account id and role into request context.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				http.Error(w, `{"error":"missing or malformed Authorization header"}`, http.StatusUnauthorized)
				return
			}
			accountID, role, err := validator.ValidateToken(r.Context(), raw)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxAccountIDKey, accountID)
			ctx = context.WithValue(ctx, ctxRoleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOperator rejects authenticated requests whose role is not operator.
// Must run after Auth.
func RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if role, _ := RoleFromCtx(r.Context()); role != models.RoleOperator {
			http.Error(w, `{"error":"operator role required"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AccountIDFromCtx returns the authenticated account id.
func AccountIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxAccountIDKey).(uuid.UUID)
	return id, ok
}

// RoleFromCtx returns the authenticated role.
func RoleFromCtx(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(ctxRoleKey).(string)
	return role, ok
}

// WithAccount returns a context carrying the given identity. Test helper
// and internal plumbing.
func WithAccount(ctx context.Context, accountID uuid.UUID, role string) context.Context {
	ctx = context.WithValue(ctx, ctxAccountIDKey, accountID)
	return context.WithValue(ctx, ctxRoleKey, role)
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
