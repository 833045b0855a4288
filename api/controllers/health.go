package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/samcart-relay/api/responses"
	"github.com/angelmondragon/samcart-relay/pkg/config"
	"github.com/angelmondragon/samcart-relay/pkg/logger"
	"github.com/angelmondragon/samcart-relay/pkg/redis"
	"github.com/angelmondragon/samcart-relay/pkg/types"
)

const (
	envHeader        = "X-Relay-Env"
	readinessTimeout = 2 * time.Second
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, types.HealthStatus{Status: "live"})
	}
}

// HealthReady pings Redis when a client is configured. A nil pinger means the
// duplicate guard is disabled and readiness depends on nothing external.
func HealthReady(cfg *config.Config, logg *logger.Logger, redisPinger redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		if redisPinger == nil {
			responses.WriteSuccess(w, types.HealthStatus{Status: "ready"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := redisPinger.Ping(ctx); err != nil {
			logg.Error(r.Context(), "readiness.redis", err)
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, types.HealthStatus{
				Status:       "unavailable",
				Dependencies: map[string]string{"redis": "down"},
			})
			return
		}
		responses.WriteSuccess(w, types.HealthStatus{
			Status:       "ready",
			Dependencies: map[string]string{"redis": "up"},
		})
	}
}
