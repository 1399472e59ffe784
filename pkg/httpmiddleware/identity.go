package httpmiddleware

import (
	"context"
	"encoding/json"
	"net/http"
)

type userIDKey struct{}

// UserID extracts the caller identity stored by Identity.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}

// WithUserID returns a context carrying the given caller identity. Intended
// for tests and internal calls.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// Identity reads the caller identity from the X-User-ID header and stores it
// in the request context. The header is trusted: authentication happens at
// the edge proxy, this service only consumes the result.
func Identity() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := r.Header.Get("X-User-ID"); id != "" {
				r = r.WithContext(WithUserID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser rejects requests without a caller identity with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserID(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"code":    401,
				"message": "missing user identity",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
