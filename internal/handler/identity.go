package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/burger-shop/internal/domain/auth"
	"github.com/xenking/burger-shop/pkg/httpmiddleware"
)

const (
	// UserIDHeader is set by the session layer in front of the API.
	UserIDHeader = "X-User-ID"
	// APIKeyHeader carries the admin API key.
	APIKeyHeader = "api_key"
)

type userIDKey struct{}

// UserID returns the caller set by requireUser.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey{}).(int64)
	return id, ok
}

func parseUserID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.Header.Get(UserIDHeader), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// requireUser rejects requests without a valid X-User-ID.
func (h *Handler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUserID(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "user id required")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey{}, id)
		ctx = zctx.With(ctx, zap.Int64("user_id", id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAPIKey admits callers whose api_key has the admin scope.
func (h *Handler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, err := h.keys.Authenticate(r.Context(), r.Header.Get(APIKeyHeader), auth.ScopeAdmin)
		if err != nil {
			fail(w, r, err)
			return
		}
		ctx := zctx.With(r.Context(), zap.String("api_key", info.Name))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RateLimitKey buckets requests by user when known and by client IP
// otherwise.
func RateLimitKey(r *http.Request) string {
	if id, ok := parseUserID(r); ok {
		return "user:" + strconv.FormatInt(id, 10)
	}
	return "ip:" + httpmiddleware.ClientIP(r)
}
