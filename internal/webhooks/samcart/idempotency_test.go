package samcartwebhook

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/samcart-relay/internal/samcart"
)

type inMemoryStore struct {
	mu   sync.Mutex
	keys map[string]time.Duration
	err  error
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{keys: map[string]time.Duration{}}
}

func (s *inMemoryStore) SetNX(_ context.Context, key string, _ any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	if _, ok := s.keys[key]; ok {
		return false, nil
	}
	s.keys[key] = ttl
	return true, nil
}

func (s *inMemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.keys, key)
	}
	return nil
}

func (s *inMemoryStore) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

func TestIdempotencyGuardCheckAndMark(t *testing.T) {
	store := newInMemoryStore()
	guard, err := NewIdempotencyGuard(store, time.Hour, "")
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	ctx := context.Background()

	seen, err := guard.CheckAndMark(ctx, "ORD-1:paid")
	if err != nil || seen {
		t.Fatalf("first mark should be new, seen=%v err=%v", seen, err)
	}
	if ttl := store.keys["test:samcart:ORD-1:paid"]; ttl != time.Hour {
		t.Fatalf("expected key stored with ttl, got %v", store.keys)
	}
	seen, err = guard.CheckAndMark(ctx, "ORD-1:paid")
	if err != nil || !seen {
		t.Fatalf("second mark should be a duplicate, seen=%v err=%v", seen, err)
	}

	if err := guard.Delete(ctx, "ORD-1:paid"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	seen, _ = guard.CheckAndMark(ctx, "ORD-1:paid")
	if seen {
		t.Fatalf("deleted key should be accepted again")
	}
}

func TestIdempotencyGuardErrors(t *testing.T) {
	if _, err := NewIdempotencyGuard(nil, time.Hour, ""); err == nil {
		t.Fatalf("expected error for nil store")
	}
	if _, err := NewIdempotencyGuard(newInMemoryStore(), -time.Second, ""); err == nil {
		t.Fatalf("expected error for negative ttl")
	}

	store := newInMemoryStore()
	store.err = errors.New("connection reset")
	guard, _ := NewIdempotencyGuard(store, time.Hour, "custom")
	if _, err := guard.CheckAndMark(context.Background(), "k"); err == nil {
		t.Fatalf("expected store error to surface")
	}
	if _, err := guard.CheckAndMark(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if err := guard.Delete(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty key on delete")
	}
}

func TestEventKey(t *testing.T) {
	tests := []struct {
		name  string
		event samcart.Event
		want  string
	}{
		{name: "order and status", event: samcart.Event{"order_id": "A1", "status": "Completed"}, want: "A1:completed"},
		{name: "numeric order id", event: samcart.Event{"order_id": 42, "status": "refunded"}, want: "42:refunded"},
		{name: "missing status", event: samcart.Event{"order_id": "A1"}, want: "A1:"},
		{name: "missing order id", event: samcart.Event{"status": "paid"}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EventKey(tt.event); got != tt.want {
				t.Fatalf("EventKey = %q, want %q", got, tt.want)
			}
		})
	}
}
