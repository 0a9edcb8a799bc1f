package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/coverlane-ai/coverlane-backend/api/responses"
	pkgerrors "github.com/coverlane-ai/coverlane-backend/pkg/errors"
	"github.com/coverlane-ai/coverlane-backend/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// RateLimitPolicy defines the per-IP fixed window applied to quote traffic.
type RateLimitPolicy struct {
	name    string
	window  time.Duration
	ipLimit int
}

func NewRateLimitPolicy(name string, window time.Duration, ipLimit int) RateLimitPolicy {
	return RateLimitPolicy{
		name:    strings.ToLower(strings.TrimSpace(name)),
		window:  window,
		ipLimit: ipLimit,
	}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && p.ipLimit > 0
}

func (p RateLimitPolicy) key(ip string) string {
	if ip == "" {
		return ""
	}
	name := p.name
	if name == "" {
		name = "api"
	}
	return fmt.Sprintf("rl:ip:%s:%s", name, ip)
}

// RateLimit enforces the per-IP counter ahead of the quote endpoints.
func RateLimit(policy RateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			key := policy.key(clientIP(r))
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			count, err := store.IncrWithTTL(ctx, key, policy.window)
			if err != nil {
				// A limiter outage should not take quote traffic down with it.
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "error", err.Error()), "rate_limit.store_unavailable")
				}
				next.ServeHTTP(w, r)
				return
			}

			if count > int64(policy.ipLimit) {
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{
						"count": count,
						"limit": policy.ipLimit,
					})
					logg.Warn(ctx, "rate_limit.exceeded")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
