package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	ClientIDKey contextKey = "client_id"
	SessionKey  contextKey = "session"
)

// VisitorConfig configures the signed visitor cookie
type VisitorConfig struct {
	Secret     string
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

// VisitorMiddleware identifies the browser making the request. The client ID
// travels in an HS256-signed cookie; a missing, expired or tampered cookie
// gets a fresh ID. Every request leaves with a client ID in its context.
func VisitorMiddleware(cfg VisitorConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := ""
			if cookie, err := r.Cookie(cfg.CookieName); err == nil {
				id, err := ParseVisitorToken(cookie.Value, cfg.Secret)
				if err != nil {
					logger.Debug("Rejected visitor cookie", zap.Error(err))
				} else {
					clientID = id
				}
			}

			if clientID == "" {
				clientID = uuid.NewString()
				token, err := NewVisitorToken(clientID, cfg.Secret, cfg.MaxAge)
				if err != nil {
					logger.Error("Failed to sign visitor token", zap.Error(err))
					respondWithError(w, r, http.StatusInternalServerError, "internal server error")
					return
				}

				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(cfg.MaxAge.Seconds()),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
				logger.Debug("Issued visitor identity", zap.String("client_id", clientID))
			}

			ctx := context.WithValue(r.Context(), ClientIDKey, clientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewVisitorToken signs clientID as the subject of a JWT
func NewVisitorToken(clientID, secret string, maxAge time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   clientID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(maxAge)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseVisitorToken validates a visitor token and returns its client ID
func ParseVisitorToken(tokenString, secret string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", jwt.ErrTokenInvalidSubject
	}
	return claims.Subject, nil
}

// GetClientID extracts the visitor's client ID from request context
func GetClientID(ctx context.Context) (string, bool) {
	clientID, ok := ctx.Value(ClientIDKey).(string)
	return clientID, ok && clientID != ""
}

// WithClientID returns a context carrying clientID
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, ClientIDKey, clientID)
}
