package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coverlane-ai/coverlane-backend/api/controllers"
	quotecontrollers "github.com/coverlane-ai/coverlane-backend/api/controllers/quotes"
	"github.com/coverlane-ai/coverlane-backend/api/middleware"
	quotesvc "github.com/coverlane-ai/coverlane-backend/internal/quotes"
	"github.com/coverlane-ai/coverlane-backend/internal/vehicles"
	"github.com/coverlane-ai/coverlane-backend/pkg/config"
	"github.com/coverlane-ai/coverlane-backend/pkg/logger"
	"github.com/coverlane-ai/coverlane-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	quoteService quotesvc.Service,
	vehicleLookup *vehicles.Lookup,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingerOrNil(redisClient)))
	})

	r.Handle("/metrics", promhttp.Handler())

	quotePolicy := middleware.NewRateLimitPolicy("quotes", cfg.RateLimit.Window, cfg.RateLimit.IPLimit)

	r.Route("/api", func(r chi.Router) {
		if redisClient != nil {
			r.Use(middleware.RateLimit(quotePolicy, redisClient, logg))
		}
		r.Use(middleware.Auth(cfg.Auth, logg))

		r.Route("/quotes", func(r chi.Router) {
			r.Post("/", quotecontrollers.Create(quoteService, logg))
			r.Get("/products", quotecontrollers.ProductCatalog(logg))
			r.Get("/vehicle/{vin}", quotecontrollers.VehicleLookup(vehicleLookup, logg))
		})
	})

	return r
}

func pingerOrNil(client *redis.Client) redis.Pinger {
	if client == nil {
		return nil
	}
	return client
}
