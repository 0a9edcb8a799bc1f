package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/coverlane-ai/coverlane-backend/api/responses"
	"github.com/coverlane-ai/coverlane-backend/pkg/config"
	pkgerrors "github.com/coverlane-ai/coverlane-backend/pkg/errors"
	"github.com/coverlane-ai/coverlane-backend/pkg/logger"
)

type ctxKeyDealerID struct{}

// DealerClaims is the token payload issued to dealer integrations.
type DealerClaims struct {
	DealerID string `json:"dealer_id"`
	jwt.RegisteredClaims
}

// Auth validates a bearer token and seeds the request context with the dealer
// identity. When auth is disabled the chain passes through untouched.
func Auth(cfg config.AuthConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.Enabled {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := parseDealerToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyDealerID{}, claims.DealerID)
			if logg != nil && claims.DealerID != "" {
				ctx = logg.WithDealerID(ctx, claims.DealerID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DealerIDFromContext returns the authenticated dealer id, if any.
func DealerIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyDealerID{}).(string); ok {
		return v
	}
	return ""
}

func parseDealerToken(cfg config.AuthConfig, token string) (*DealerClaims, error) {
	claims := &DealerClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(cfg.Secret), nil
	}, jwt.WithIssuer(cfg.Issuer), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}
