package middleware

import (
	"errors"
	"net/http"

	"github.com/juniorjunco/blog-pro/internal/auth"
	"github.com/juniorjunco/blog-pro/internal/domain"
	"go.uber.org/zap"
)

// TokenVerifier resolves a bearer token to an identity.
type TokenVerifier interface {
	Verify(token string) (domain.Identity, error)
}

// JWTAuth rejects requests without a bearer token with 401 and requests
// with an invalid or expired one with 403. Accepted requests carry the
// identity in their context.
func JWTAuth(verifier TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logger.Named("JWTAuth")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.BearerToken(r.Header.Get("Authorization"))

			identity, err := verifier.Verify(token)
			if err != nil {
				if errors.Is(err, domain.ErrMissingToken) {
					http.Error(w, "No token provided", http.StatusUnauthorized)
					return
				}
				logger.Debug("Token rejected", zap.String("path", r.URL.Path), zap.Error(err))
				http.Error(w, "Invalid or expired token", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}
