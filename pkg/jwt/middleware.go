package jwt

import (
	"context"
	"net/http"
	"strings"

	"github.com/readlingo/readlingo/core"
)

type claimsCtxKey struct{}

// ClaimsFromContext returns the verified claims injected by Middleware.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsCtxKey{}).(Claims)
	return claims, ok
}

// SetClaimsToContext injects claims into a context. Exposed for tests.
func SetClaimsToContext(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey{}, claims)
}

// Middleware validates the Bearer token on every request and injects its
// claims into the request context. Requests without a valid token get a
// structured 401 and never reach the handler.
func Middleware(service *Service) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := extractBearer(r)
			if err != nil {
				core.WriteError(w, http.StatusUnauthorized, core.ErrUnauthorized.Code, "Missing or malformed authorization header", "")
				return
			}

			claims, err := service.Parse(token)
			if err != nil {
				core.WriteError(w, http.StatusUnauthorized, core.ErrUnauthorized.Code, "Invalid or expired token", "")
				return
			}

			next.ServeHTTP(w, r.WithContext(SetClaimsToContext(r.Context(), claims)))
		})
	}
}

func extractBearer(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(auth[len(prefix):]), nil
}
