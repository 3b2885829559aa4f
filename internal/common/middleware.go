package common

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserIDFromContext returns the authenticated user id injected by the auth
// middleware (or by the websocket handshake).
func UserIDFromContext(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(userIDKey).(uint64)
	return id, ok
}

// WithUserID injects the authenticated identity into a context.
func WithUserID(ctx context.Context, userID uint64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// BearerToken extracts the credential from an HTTP request. The websocket
// handshake also accepts ?token= because browsers cannot set headers on a
// WebSocket upgrade.
func BearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.Fields(header)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// AuthMiddleware validates the bearer credential on every request and
// injects the resolved user id into the request context.
func AuthMiddleware(resolver TokenResolver, log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				http.Error(w, "authorization required", http.StatusUnauthorized)
				return
			}

			userID, err := resolver.Resolve(token)
			if err != nil {
				log.WithFields(logrus.Fields{
					"path":   r.URL.Path,
					"remote": r.RemoteAddr,
				}).Warn("rejected request with invalid token")
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
