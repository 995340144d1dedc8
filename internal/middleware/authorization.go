package middleware

import (
	"context"
	"net/http"

	"shopease/internal/domain"

	"go.uber.org/zap"
)

// SessionLookup resolves the active session of a visitor; nil means logged out
type SessionLookup interface {
	CurrentSession(ctx context.Context, clientID string) (*domain.Session, error)
}

// RequireSession lets the request through only for a logged-in visitor and
// stores the session in the context. Other requests are handed to deny.
func RequireSession(sessions SessionLookup, deny http.HandlerFunc, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID, ok := GetClientID(r.Context())
			if !ok {
				logger.Warn("Client ID not found in context")
				deny(w, r)
				return
			}

			session, err := sessions.CurrentSession(r.Context(), clientID)
			if err != nil {
				logger.Error("Failed to load session", zap.String("client_id", clientID), zap.Error(err))
				respondWithError(w, r, http.StatusInternalServerError, "internal server error")
				return
			}

			if session == nil {
				logger.Debug("Login required", zap.String("client_id", clientID), zap.String("path", r.URL.Path))
				deny(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession extracts the session stored by RequireSession
func GetSession(ctx context.Context) (*domain.Session, bool) {
	session, ok := ctx.Value(SessionKey).(*domain.Session)
	return session, ok && session != nil
}
