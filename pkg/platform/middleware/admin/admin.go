// Package admin gates the administrative plane. Admin requests carry either
// a bearer JWT whose subject is the configured admin principal, or the
// static admin token (dev deployments). The authenticated admin principal is
// made available to handlers for audit attribution.
package admin

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"proofgate/pkg/domain"
)

// Context key for storing the authenticated admin principal.
type contextKeyAdminPrincipal struct{}

// GetAdminPrincipal retrieves the admin principal from the context.
// Returns the zero Address if this is not an authenticated admin request.
func GetAdminPrincipal(ctx context.Context) domain.Address {
	if principal, ok := ctx.Value(contextKeyAdminPrincipal{}).(domain.Address); ok {
		return principal
	}
	return ""
}

// WithAdminPrincipal injects an admin principal into a context. Used by
// tests that exercise handlers without the middleware chain.
func WithAdminPrincipal(ctx context.Context, principal domain.Address) context.Context {
	return context.WithValue(ctx, contextKeyAdminPrincipal{}, principal)
}

// Config holds the credentials the middleware accepts.
type Config struct {
	// SigningKey verifies HS256 admin JWTs. The token subject must equal
	// the admin principal.
	SigningKey []byte
	// StaticToken, when non-empty, is accepted via the X-Admin-Token
	// header using a constant-time comparison.
	StaticToken string
	// Principal is the configured admin address attached to the request
	// context on success.
	Principal domain.Address
}

// Require returns middleware that rejects requests lacking valid admin
// credentials with 401 and never reaches the wrapped handler.
func Require(cfg Config, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if token := r.Header.Get("X-Admin-Token"); token != "" && cfg.StaticToken != "" {
				// Constant-time comparison to prevent timing attacks.
				if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.StaticToken)) == 1 {
					ctx = WithAdminPrincipal(ctx, cfg.Principal)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
				logger.WarnContext(ctx, "admin token mismatch", "path", r.URL.Path)
				writeUnauthorized(w)
				return
			}

			bearer := r.Header.Get("Authorization")
			if !strings.HasPrefix(bearer, "Bearer ") {
				writeUnauthorized(w)
				return
			}

			principal, err := verifyAdminJWT(strings.TrimPrefix(bearer, "Bearer "), cfg)
			if err != nil {
				logger.WarnContext(ctx, "admin JWT rejected",
					"error", err,
					"path", r.URL.Path,
				)
				writeUnauthorized(w)
				return
			}

			ctx = WithAdminPrincipal(ctx, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func verifyAdminJWT(tokenStr string, cfg Config) (domain.Address, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return cfg.SigningKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub != cfg.Principal.String() {
		return "", jwt.ErrTokenInvalidSubject
	}
	return cfg.Principal, nil
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin credentials required"}`))
}
