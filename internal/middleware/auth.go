package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/classroom-assistant/classroom-go/internal/errors"
	"github.com/classroom-assistant/classroom-go/internal/model"
)

type contextKey string

const ClaimsContextKey contextKey = "claims"

func GetClaims(ctx context.Context) *model.Claims {
	if claims, ok := ctx.Value(ClaimsContextKey).(*model.Claims); ok {
		return claims
	}
	return nil
}

func WithClaims(ctx context.Context, claims *model.Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

type TokenVerifier interface {
	Verify(token string) (*model.Claims, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeError(w, apperrors.Unauthorized("Missing authentication token"))
			return
		}

		claims, err := m.verifier.Verify(token)
		if err != nil {
			log.Warn().Err(err).Str("path", r.URL.Path).Msg("auth middleware: invalid token attempt")
			writeError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireRole must run after Handler.
func RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r.Context())
			if claims == nil {
				writeError(w, apperrors.Unauthorized("Missing authentication token"))
				return
			}
			if claims.Role != role {
				writeError(w, apperrors.Forbidden(string(role)+" access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}

	// EventSource cannot set headers.
	return r.URL.Query().Get("token")
}
