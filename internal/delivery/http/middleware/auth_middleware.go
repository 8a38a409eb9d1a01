package middleware

import (
	"context"
	"net/http"
	"strings"

	"clinic-scheduling/internal/domain/entity"
	"clinic-scheduling/internal/service"
	"clinic-scheduling/pkg/response"
)

type contextKey string

const claimsKey contextKey = "claims"

type AuthMiddleware struct {
	identity service.IdentityService
}

func NewAuthMiddleware(identity service.IdentityService) *AuthMiddleware {
	return &AuthMiddleware{
		identity: identity,
	}
}

// Authenticate resolves the bearer token into claims. Every failure gets the
// same 401 body.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			response.Unauthorized(w)
			return
		}

		claims, err := m.identity.Resolve(r.Context(), strings.TrimSpace(token))
		if err != nil {
			response.Unauthorized(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// WithClaims stores the caller's claims in ctx.
func WithClaims(ctx context.Context, claims *entity.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the claims set by Authenticate, or nil.
func ClaimsFromContext(ctx context.Context) *entity.Claims {
	claims, _ := ctx.Value(claimsKey).(*entity.Claims)
	return claims
}
