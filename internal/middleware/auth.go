package middleware

import (
	"context"
	"encoding/json"
	"net/http"
)

// SessionContexter threads the device's current identity into a context.
type SessionContexter interface {
	Context(ctx context.Context) (context.Context, bool)
}

// RequireSession rejects requests with 401 while no one is logged in on
// the device, and otherwise carries the session owner in the request
// context.
func RequireSession(sessions SessionContexter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, ok := sessions.Context(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "not logged in")
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
