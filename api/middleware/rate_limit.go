package middleware

import (
	"math"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/angelmondragon/samcart-relay/api/responses"
	"github.com/angelmondragon/samcart-relay/pkg/config"
	pkgerrors "github.com/angelmondragon/samcart-relay/pkg/errors"
	"github.com/angelmondragon/samcart-relay/pkg/logger"
)

// RateLimit applies a process-wide token bucket. A non-positive RPS disables it.
func RateLimit(cfg config.RateLimitConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if cfg.RPS <= 0 {
			return next
		}
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter := rate.NewLimiter(rate.Limit(cfg.RPS), burst)
		retryAfter := strconv.Itoa(int(math.Max(1, math.Ceil(1/cfg.RPS))))

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", retryAfter)
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
