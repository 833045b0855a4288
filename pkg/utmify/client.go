package utmify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/samcart-relay/pkg/config"
	"github.com/angelmondragon/samcart-relay/pkg/enums"
	pkgerrors "github.com/angelmondragon/samcart-relay/pkg/errors"
	"github.com/angelmondragon/samcart-relay/pkg/logger"
	"github.com/angelmondragon/samcart-relay/pkg/metrics"
)

const (
	headerAPIToken = "x-api-token"

	maxResponseBytes = 64 << 10
	maxLoggedBody    = 512
)

var errEndpointRequired = errors.New("utmify api url is required")

// Client delivers canonical orders to the UTMify orders endpoint.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	policy   RetryPolicy
	sleep    Sleeper
	jitter   func() float64
	metrics  *metrics.DeliveryMetrics
	logger   *logger.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithSleeper replaces the timer used between attempts.
func WithSleeper(s Sleeper) Option {
	return func(c *Client) {
		if s != nil {
			c.sleep = s
		}
	}
}

// WithJitter replaces the source of u in [0,1) used by RetryPolicy.Delay.
func WithJitter(fn func() float64) Option {
	return func(c *Client) {
		if fn != nil {
			c.jitter = fn
		}
	}
}

func WithMetrics(m *metrics.DeliveryMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds a delivery client from configuration.
func NewClient(cfg config.UtmifyConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.APIURL)
	if endpoint == "" {
		return nil, errEndpointRequired
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		endpoint: endpoint,
		token:    strings.TrimSpace(cfg.APIToken),
		http:     &http.Client{Timeout: timeout},
		policy: RetryPolicy{
			MaxAttempts: cfg.RetryAttempts,
			BaseDelay:   cfg.RetryDelay(),
			MaxDelay:    cfg.MaxRetryDelay(),
		}.withDefaults(),
		sleep:  sleepContext,
		jitter: rand.Float64,
		logger: logg,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.token == "" {
		c.logger.Warn(context.Background(), "utmify api token is empty; requests will be unauthenticated")
	}
	return c, nil
}

// Policy reports the effective retry policy.
func (c *Client) Policy() RetryPolicy {
	return c.policy
}

// Send posts the order, retrying transient failures with exponential backoff.
// The returned error is a *pkgerrors.Error coded DELIVERY_FATAL,
// DELIVERY_RETRY_EXHAUSTED or DELIVERY_CANCELED.
func (c *Client) Send(ctx context.Context, order *Order) (*Acknowledgement, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	payload, err := json.Marshal(order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode order")
	}

	ctx = c.logger.WithOrderID(ctx, order.OrderID)
	started := time.Now()

	for attempt := 1; ; attempt++ {
		c.log(ctx, "request", attempt, nil)

		ack, err := c.post(ctx, payload)
		if err == nil {
			ack.Attempts = attempt
			c.metrics.IncAttempt(string(enums.DeliveryOutcomeSuccess))
			c.metrics.ObserveResult(string(enums.DeliveryOutcomeSuccess), time.Since(started))
			c.log(ctx, "response", attempt, map[string]any{"status_code": ack.StatusCode})
			return ack, nil
		}

		if ctx.Err() != nil {
			return nil, c.fail(ctx, enums.DeliveryOutcomeCanceled, order.OrderID, attempt, started, errors.Join(ctx.Err(), err))
		}
		if !IsRetryable(err) {
			c.metrics.IncAttempt(string(enums.DeliveryOutcomeFatal))
			return nil, c.fail(ctx, enums.DeliveryOutcomeFatal, order.OrderID, attempt, started, err)
		}
		c.metrics.IncAttempt(string(enums.DeliveryOutcomeRetryable))
		if attempt >= c.policy.MaxAttempts {
			return nil, c.fail(ctx, enums.DeliveryOutcomeExhausted, order.OrderID, attempt, started, err)
		}

		delay := c.policy.Delay(attempt, c.jitter())
		c.metrics.ObserveBackoff(delay)
		c.log(ctx, "retry", attempt, map[string]any{
			"error":        err.Error(),
			"delay_ms":     delay.Milliseconds(),
			"next_attempt": attempt + 1,
		})
		if err := c.sleep(ctx, delay); err != nil {
			return nil, c.fail(ctx, enums.DeliveryOutcomeCanceled, order.OrderID, attempt, started, err)
		}
	}
}

func (c *Client) post(ctx context.Context, payload []byte) (*Acknowledgement, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerAPIToken, c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: truncate(string(body), maxLoggedBody)}
	}
	if readErr != nil {
		c.logger.Warn(ctx, fmt.Sprintf("utmify acknowledgement body unreadable: %v", readErr))
	}
	return &Acknowledgement{StatusCode: resp.StatusCode, Body: opaqueBody(body)}, nil
}

func (c *Client) fail(ctx context.Context, outcome enums.DeliveryOutcome, orderID string, attempts int, started time.Time, cause error) error {
	c.metrics.ObserveResult(string(outcome), time.Since(started))

	details := map[string]any{
		"order_id": orderID,
		"attempts": attempts,
	}
	var apiErr *APIError
	if errors.As(cause, &apiErr) {
		details["status_code"] = apiErr.StatusCode
	}

	var wrapped *pkgerrors.Error
	switch outcome {
	case enums.DeliveryOutcomeFatal:
		wrapped = pkgerrors.Wrap(pkgerrors.CodeDeliveryFatal, cause, "utmify rejected order")
	case enums.DeliveryOutcomeCanceled:
		wrapped = pkgerrors.Wrap(pkgerrors.CodeDeliveryCanceled, cause, "delivery canceled")
	default:
		wrapped = pkgerrors.Wrap(pkgerrors.CodeDeliveryRetry, cause, fmt.Sprintf("delivery failed after %d attempts", attempts))
	}
	wrapped.WithDetails(details)

	c.log(ctx, "error", attempts, map[string]any{
		"outcome": string(outcome),
		"error":   cause.Error(),
	})
	return wrapped
}

func (c *Client) log(ctx context.Context, phase string, attempt int, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": "send_order",
		"phase":     phase,
		"attempt":   attempt,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, "utmify delivery failed", errors.New(fmt.Sprint(fields["error"])))
	case "retry":
		c.logger.Warn(ctx, "utmify delivery retry scheduled")
	default:
		c.logger.Info(ctx, fmt.Sprintf("utmify %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "secret", "email", "phone", "document"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func opaqueBody(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	encoded, err := json.Marshal(string(trimmed))
	if err != nil {
		return nil
	}
	return encoded
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}
