package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/coverlane-ai/coverlane-backend/api/responses"
	"github.com/coverlane-ai/coverlane-backend/pkg/config"
	pkgerrors "github.com/coverlane-ai/coverlane-backend/pkg/errors"
	"github.com/coverlane-ai/coverlane-backend/pkg/logger"
	"github.com/coverlane-ai/coverlane-backend/pkg/redis"
)

// HealthLive answers the liveness probe.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{
			"status": "ok",
			"env":    cfg.App.Env,
		})
	}
}

// HealthReady pings the cache backend; without redis configured the in-memory
// cache is always ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, cache redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cache == nil {
			responses.WriteSuccess(w, map[string]string{"status": "ready", "cache": "memory"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := cache.Ping(ctx); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cache unavailable"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready", "cache": "redis"})
	}
}
