package webhooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/samcart-relay/api/responses"
	"github.com/angelmondragon/samcart-relay/internal/samcart"
	samcartwebhook "github.com/angelmondragon/samcart-relay/internal/webhooks/samcart"
	pkgerrors "github.com/angelmondragon/samcart-relay/pkg/errors"
	"github.com/angelmondragon/samcart-relay/pkg/logger"
	"github.com/angelmondragon/samcart-relay/pkg/metrics"
	"github.com/angelmondragon/samcart-relay/pkg/types"
)

const (
	DefaultSignatureHeader = "X-SamCart-Signature"
	defaultMaxBodyBytes    = 1 << 20
)

type SamCartWebhookService interface {
	HandleEvent(ctx context.Context, event samcart.Event, checkoutURL string) (*samcartwebhook.Result, error)
}

type samCartWebhookGuard interface {
	CheckAndMark(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

type signatureVerifier interface {
	Verify(ctx context.Context, signature string, body []byte) bool
}

// SamCartOptions tunes request handling. Zero values fall back to defaults.
type SamCartOptions struct {
	SignatureHeader string
	MaxBodyBytes    int64
	ProcessTimeout  time.Duration
}

// SamCartWebhook accepts SamCart order notifications and relays them to UTMify.
// guard may be nil, in which case every delivery is processed.
func SamCartWebhook(svc SamCartWebhookService, verifier signatureVerifier, guard samCartWebhookGuard, opts SamCartOptions, m *metrics.HTTPMetrics, logg *logger.Logger) http.HandlerFunc {
	header := strings.TrimSpace(opts.SignatureHeader)
	if header == "" {
		header = DefaultSignatureHeader
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			m.IncWebhook("method_not_allowed")
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeMethodNotAllowed, "method not allowed"))
			return
		}
		if svc == nil || verifier == nil {
			m.IncWebhook("error")
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				m.IncWebhook("too_large")
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodePayloadTooLarge, err, fmt.Sprintf("payload exceeds %d bytes", maxBody)))
				return
			}
			m.IncWebhook("invalid")
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		if !verifier.Verify(ctx, r.Header.Get(header), payload) {
			m.IncWebhook("unauthorized")
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid signature"))
			return
		}

		event, err := samcart.Decode(payload)
		if err != nil {
			m.IncWebhook("invalid")
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid JSON payload"))
			return
		}
		ctx = logg.WithOrderID(ctx, event.OrderID())

		key := ""
		if guard != nil {
			key = samcartwebhook.EventKey(event)
		}
		if key != "" {
			seen, err := guard.CheckAndMark(ctx, key)
			if err != nil {
				m.IncWebhook("error")
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if seen {
				m.IncWebhook("duplicate")
				logg.Info(ctx, fmt.Sprintf("samcart event %s already relayed", key))
				responses.WriteSuccess(w, types.WebhookResult{
					Success:   true,
					Message:   "duplicate notification ignored",
					OrderID:   event.OrderID(),
					Duplicate: true,
				})
				return
			}
		}

		processCtx := ctx
		if opts.ProcessTimeout > 0 {
			var cancel context.CancelFunc
			processCtx, cancel = context.WithTimeout(ctx, opts.ProcessTimeout)
			defer cancel()
		}

		result, err := svc.HandleEvent(processCtx, event, r.URL.Query().Get("checkout_url"))
		if err != nil {
			if key != "" {
				if delErr := guard.Delete(ctx, key); delErr != nil {
					logg.Warn(ctx, fmt.Sprintf("release idempotency key: %v", delErr))
				}
			}
			m.IncWebhook(outcomeLabel(err))
			responses.WriteError(ctx, logg, w, err)
			return
		}

		m.IncWebhook("relayed")
		responses.WriteSuccess(w, types.WebhookResult{
			Success:  true,
			Message:  "order relayed to utmify",
			OrderID:  result.OrderID,
			Status:   string(result.Status),
			Attempts: result.Attempts,
		})
	}
}

func outcomeLabel(err error) string {
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeValidation:
		return "invalid"
	case pkgerrors.CodeMapping:
		return "mapping_failed"
	case pkgerrors.CodeDeliveryFatal, pkgerrors.CodeDeliveryRetry, pkgerrors.CodeDeliveryCanceled:
		return "delivery_failed"
	default:
		return "error"
	}
}
