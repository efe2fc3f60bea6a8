package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/forgo/storefront/api/internal/model"
	"github.com/forgo/storefront/api/internal/service"
	"github.com/forgo/storefront/api/pkg/jwt"
)

// TokenVerifier validates bearer tokens. *service.TokenService implements it.
type TokenVerifier interface {
	Verify(token string) (service.Claims, error)
}

const (
	// ClaimsKey is the context key for verified token claims
	ClaimsKey contextKey = "claims"

	// UserEmailKey is the context key for the email claim
	UserEmailKey contextKey = "userEmail"
)

// Auth returns a middleware that requires a valid bearer token
func Auth(verifier TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Extract token from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				model.NewUnauthorizedError("missing authorization header").WriteJSON(w)
				return
			}

			// Check Bearer prefix
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				model.NewUnauthorizedError("invalid authorization header format").WriteJSON(w)
				return
			}

			claims, err := verifier.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				switch {
				case errors.Is(err, service.ErrTokenConfiguration):
					model.NewConfigurationError("Token Secret Not Configured!").WriteJSON(w)
				case errors.Is(err, service.ErrSigning):
					// The configured key is unusable; no token could verify.
					model.NewSigningError("Token Signing Key Is Invalid!", true).WriteJSON(w)
				case errors.Is(err, jwt.ErrTokenExpired):
					model.NewUnauthorizedError("token expired").WriteJSON(w)
				case errors.Is(err, jwt.ErrInvalidSignature):
					model.NewUnauthorizedError("invalid token signature").WriteJSON(w)
				default:
					model.NewUnauthorizedError("invalid token").WriteJSON(w)
				}
				return
			}

			// Add claims to context
			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			if email, ok := claims["email"].(string); ok {
				ctx = context.WithValue(ctx, UserEmailKey, email)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims extracts the verified claims from context
func GetClaims(ctx context.Context) service.Claims {
	if claims, ok := ctx.Value(ClaimsKey).(service.Claims); ok {
		return claims
	}
	return nil
}

// GetUserEmail extracts the email claim from context
func GetUserEmail(ctx context.Context) string {
	if email, ok := ctx.Value(UserEmailKey).(string); ok {
		return email
	}
	return ""
}
