package samcartwebhook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/samcart-relay/internal/samcart"
	"github.com/angelmondragon/samcart-relay/pkg/redis"
)

const defaultScope = "samcart"

// IdempotencyGuard suppresses redelivery of a notification already relayed.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	scope string
}

func NewIdempotencyGuard(store redis.IdempotencyStore, ttl time.Duration, scope string) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if scope == "" {
		scope = defaultScope
	}
	return &IdempotencyGuard{
		store: store,
		ttl:   ttl,
		scope: scope,
	}, nil
}

// EventKey identifies a notification by order and raw status, so a refund for
// an already relayed sale is not treated as a duplicate. Events without an
// order id have no key.
func EventKey(event samcart.Event) string {
	orderID := event.OrderID()
	if orderID == "" {
		return ""
	}
	status, _ := event.String(samcart.PathStatus)
	return orderID + ":" + strings.ToLower(status)
}

// CheckAndMark records key and reports whether it had been recorded before.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("event key is required")
	}
	set, err := g.store.SetNX(ctx, g.store.IdempotencyKey(g.scope, key), "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

// Delete forgets key so a failed notification can be retried by the sender.
func (g *IdempotencyGuard) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("event key is required")
	}
	return g.store.Del(ctx, g.store.IdempotencyKey(g.scope, key))
}
