package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	apperrors "github.com/utafrali/catalog/pkg/errors"
	"github.com/utafrali/catalog/pkg/httputil"
)

type ctxKey int

const claimsKey ctxKey = iota

// Claims describes the authenticated caller.
type Claims struct {
	UserID string
	Email  string
	Roles  []string
}

// HasAnyRole reports whether the caller holds at least one of roles.
func (c *Claims) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if slices.Contains(c.Roles, r) {
			return true
		}
	}
	return false
}

// Authenticator resolves a bearer token into the caller's claims. It must
// reject tokens whose user no longer exists or is inactive.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Claims, error)
}

// Auth requires a valid bearer token and stores the caller's claims in the
// request context.
func Auth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httputil.WriteError(w, r, apperrors.Unauthorized("missing or malformed bearer token"), nil)
				return
			}

			claims, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				httputil.WriteError(w, r, err, nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole lets the request through when no roles are listed or the
// caller holds any of them. Callers without claims get 401, callers without
// a matching role get 403.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(roles) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				httputil.WriteError(w, r, apperrors.Unauthorized("user not found in request"), nil)
				return
			}
			if !claims.HasAnyRole(roles...) {
				httputil.WriteError(w, r, apperrors.Forbidden(
					"user "+claims.Email+" needs a valid role: ["+strings.Join(roles, ", ")+"]"), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithClaims stores claims in ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// ClaimsFromContext returns the caller's claims, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey).(*Claims)
	return c
}

// UserIDFromContext returns the caller's user ID, or "".
func UserIDFromContext(ctx context.Context) string {
	if c := ClaimsFromContext(ctx); c != nil {
		return c.UserID
	}
	return ""
}
