package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/samcart-relay/pkg/config"
)

func TestSetNXAndDel(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	key := client.IdempotencyKey("samcart", "ORD-1:paid")

	set, err := client.SetNX(ctx, key, "1", time.Hour)
	if err != nil || !set {
		t.Fatalf("expected first SetNX to succeed, set=%v err=%v", set, err)
	}
	if mock.ttls[key] != time.Hour {
		t.Fatalf("expected ttl to be forwarded, got %s", mock.ttls[key])
	}

	set, err = client.SetNX(ctx, key, "1", time.Hour)
	if err != nil || set {
		t.Fatalf("expected second SetNX to report existing key, set=%v err=%v", set, err)
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if set, _ := client.SetNX(ctx, key, "1", time.Hour); !set {
		t.Fatalf("expected key to be settable after delete")
	}
}

func TestPingPropagatesErrors(t *testing.T) {
	mock := newMockCmdable()
	client := &Client{store: mock}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
	mock.pingErr = errors.New("connection refused")
	if err := client.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error")
	}
}

func TestUninitializedClient(t *testing.T) {
	var client *Client
	ctx := context.Background()
	if _, err := client.SetNX(ctx, "k", "v", 0); err == nil {
		t.Fatalf("expected error from nil client")
	}
	if err := client.Del(ctx, "k"); err == nil {
		t.Fatalf("expected error from nil client")
	}
	if err := client.Ping(ctx); err == nil {
		t.Fatalf("expected error from nil client")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("closing nil client should be a no-op: %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("samcart", "ORD-1:paid"); got != "relay:idempotency:samcart:ORD-1:paid" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.IdempotencyKey("", " id "); got != "relay:idempotency:id" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatalf("expected error without url")
	}
	if _, err := optionsFromConfig(config.RedisConfig{URL: "://bad"}); err == nil {
		t.Fatalf("expected error for malformed url")
	}

	opts, err := optionsFromConfig(config.RedisConfig{
		URL:          "redis://:secret@localhost:6380/2",
		PoolSize:     7,
		MinIdleConns: 1,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.DB != 2 || opts.Password != "secret" {
		t.Fatalf("url fields not parsed: %+v", opts)
	}
	if opts.PoolSize != 7 || opts.MinIdleConns != 1 || opts.DialTimeout != 2*time.Second {
		t.Fatalf("pool settings not applied: %+v", opts)
	}
}

type mockCmdable struct {
	data    map[string]string
	ttls    map[string]time.Duration
	pingErr error
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	if m.pingErr != nil {
		return redis.NewStatusResult("", m.pingErr)
	}
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
		delete(m.ttls, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
