package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"vanshavali/pkg/requestcontext"
)

// Claims are the token claims the portal's auth service issues. managedVansh
// is present only for branch admins and drives the vansh scope filter.
type Claims struct {
	Role         string `json:"role"`
	ManagedVansh string `json:"managedVansh,omitempty"`
	jwt.RegisteredClaims
}

// TokenValidator validates bearer tokens into an Actor.
type TokenValidator interface {
	ValidateToken(tokenString string) (requestcontext.Actor, error)
}

// JWTValidator validates HMAC-signed tokens.
type JWTValidator struct {
	signingKey []byte
}

func NewJWTValidator(signingKey string) *JWTValidator {
	return &JWTValidator{signingKey: []byte(signingKey)}
}

func (v *JWTValidator) ValidateToken(tokenString string) (requestcontext.Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return v.signingKey, nil
	})
	if err != nil {
		return requestcontext.Actor{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return requestcontext.Actor{}, fmt.Errorf("invalid token")
	}
	return requestcontext.Actor{
		Subject:      claims.Subject,
		Role:         claims.Role,
		ManagedVansh: claims.ManagedVansh,
	}, nil
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"success":false,"message":"%s"}`, message))
}

// RequireAuth rejects requests without a valid bearer token and stores the
// actor on the context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(r.Context(), "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(r.Context()))
				writeJSONError(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
				return
			}

			actor, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(r.Context()))
				writeJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithActor(r.Context(), actor)))
		})
	}
}

// RequireAdmin rejects authenticated callers without an administrative role.
// Must run after RequireAuth.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := requestcontext.GetActor(r.Context())
			if !actor.IsAdmin() {
				logger.WarnContext(r.Context(), "forbidden - admin role required",
					"subject", actor.Subject,
					"role", actor.Role,
					"request_id", requestcontext.RequestID(r.Context()))
				writeJSONError(w, http.StatusForbidden, "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
