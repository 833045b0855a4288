package utmify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
	defaultMaxDelay    = 30 * time.Second

	// jitterSpread is the largest fraction added on top of the exponential delay.
	jitterSpread = 0.5
)

// RetryPolicy bounds the delivery loop.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = defaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = defaultMaxDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	return p
}

// Floor is the delay after the given attempt without jitter:
// min(base * 2^(attempt-1), max).
func (p RetryPolicy) Floor(attempt int) time.Duration {
	return p.Delay(attempt, 0)
}

// Delay returns min(base * 2^(attempt-1) * (1 + 0.5*u), max) for u in [0,1).
// Jitter only ever adds to the exponential value.
func (p RetryPolicy) Delay(attempt int, u float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if u < 0 || math.IsNaN(u) {
		u = 0
	}
	if u >= 1 {
		u = math.Nextafter(1, 0)
	}
	exp := float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	delay := exp * (1 + jitterSpread*u)
	if p.MaxDelay > 0 && delay >= float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// Sleeper suspends for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// APIError is a non-2xx reply from the destination.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("utmify responded %d", e.StatusCode)
	}
	return fmt.Sprintf("utmify responded %d: %s", e.StatusCode, e.Body)
}

// HTTPStatusCode exposes the remote status to error dumps.
func (e *APIError) HTTPStatusCode() int {
	return e.StatusCode
}

// IsRetryable classifies a failed attempt. Transport errors without a response,
// including per-request client timeouts, are retryable, as are 5xx and 429
// replies. Other 4xx replies are fatal. Cancellation of the caller's context is
// checked by Send before classification.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.StatusCode)
	}
	return true
}

func retryableStatus(status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500 && status < 600
}
