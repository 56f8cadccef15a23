package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/numberdesk/numberdesk/internal/number_service/app"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// SessionContextKey carries the authenticated *app.Session.
	SessionContextKey = ContextKey("session")
)

// SessionFromContext extracts the authenticated session placed by AuthMiddleware.
func SessionFromContext(ctx context.Context) (*app.Session, bool) {
	s, ok := ctx.Value(SessionContextKey).(*app.Session)
	return s, ok
}

// AuthMiddleware validates the bearer JWT issued at login and resolves the
// session it names. Requests without a live session are rejected; expired
// tokens mean the session data is gone too.
func AuthMiddleware(jwtSecret string, sessions *app.SessionManager, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.WarnContext(r.Context(), "Authorization header missing")
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.WarnContext(r.Context(), "Invalid Authorization header format")
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			claims := jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(parts[1], &claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				logger.WarnContext(r.Context(), "Token validation failed", "error", err)
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			session, err := sessions.Get(claims.Subject)
			if err != nil {
				logger.WarnContext(r.Context(), "Token valid but session no longer exists", "session_id", claims.Subject)
				http.Error(w, "Session expired, please login again", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), SessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
