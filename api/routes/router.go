package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/samcart-relay/api/controllers"
	webhookcontrollers "github.com/angelmondragon/samcart-relay/api/controllers/webhooks"
	"github.com/angelmondragon/samcart-relay/api/middleware"
	"github.com/angelmondragon/samcart-relay/api/responses"
	samcartwebhook "github.com/angelmondragon/samcart-relay/internal/webhooks/samcart"
	"github.com/angelmondragon/samcart-relay/pkg/config"
	pkgerrors "github.com/angelmondragon/samcart-relay/pkg/errors"
	"github.com/angelmondragon/samcart-relay/pkg/logger"
	"github.com/angelmondragon/samcart-relay/pkg/metrics"
	"github.com/angelmondragon/samcart-relay/pkg/redis"
	"github.com/angelmondragon/samcart-relay/pkg/security"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	webhookService webhookcontrollers.SamCartWebhookService,
	verifier *security.SignatureVerifier,
	guard *samcartwebhook.IdempotencyGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
	)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		responses.WriteError(req.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		responses.WriteError(req.Context(), logg, w, pkgerrors.New(pkgerrors.CodeMethodNotAllowed, "method not allowed"))
	})

	// typed nils must not reach the handlers as non-nil interfaces
	var pinger redis.Pinger
	if redisClient != nil {
		pinger = redisClient
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pinger))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	opts := webhookcontrollers.SamCartOptions{
		SignatureHeader: cfg.SamCart.SignatureHeader,
		MaxBodyBytes:    cfg.Webhook.MaxBodyBytes,
		ProcessTimeout:  cfg.Webhook.ProcessTimeout,
	}
	var handler http.HandlerFunc
	if guard != nil {
		handler = webhookcontrollers.SamCartWebhook(webhookService, verifier, guard, opts, httpMetrics, logg)
	} else {
		handler = webhookcontrollers.SamCartWebhook(webhookService, verifier, nil, opts, httpMetrics, logg)
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimit, logg))
		r.Post("/samcart", handler)
	})

	return r
}
