package redis

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"kaichat/internal/config"
)

// Integration tests run only when TEST_REDIS_ADDR points at a live server,
// e.g. TEST_REDIS_ADDR=127.0.0.1:6379.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("bad TEST_REDIS_ADDR %q: %v", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("bad port in TEST_REDIS_ADDR %q: %v", addr, err)
	}

	cfg := &config.Config{}
	cfg.Redis.Host = host
	cfg.Redis.Port = port
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestSetGetDel(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	key := "kaichat:test:setget"

	if err := client.Set(ctx, key, "value", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := client.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "value" {
		t.Fatalf("got %q", got)
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, err := client.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("got %v after delete, want ErrCacheMiss", err)
	}
}

func TestIncrWindow(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	key := "kaichat:test:incr"
	defer client.Del(ctx, key)

	for want := int64(1); want <= 3; want++ {
		n, err := client.Incr(ctx, key, time.Minute)
		if err != nil {
			t.Fatalf("Incr: %v", err)
		}
		if n != want {
			t.Fatalf("got %d, want %d", n, want)
		}
	}

	ttl, err := client.Raw().TTL(ctx, key).Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Fatalf("ttl %v outside the window", ttl)
	}
}

func TestNilClientDegrades(t *testing.T) {
	var client *Client
	ctx := context.Background()

	if err := client.Set(ctx, "k", "v", 0); err == nil {
		t.Fatal("nil client Set succeeded")
	}
	if _, err := client.Get(ctx, "k"); err == nil {
		t.Fatal("nil client Get succeeded")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("nil client Close: %v", err)
	}
}
