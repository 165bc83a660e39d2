package api

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestDeduper(t *testing.T, ttl time.Duration) (*RedisDeduper, *miniredis.Miniredis) {
	t.Helper()
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() {
		if cerr := client.Close(); cerr != nil {
			t.Logf("redis close: %v", cerr)
		}
	})
	return NewRedisDeduper(client, ttl), m
}

func TestRedisDeduperAdd(t *testing.T) {
	deduper, _ := newTestDeduper(t, time.Minute)
	ctx := context.Background()

	added, err := deduper.Add(ctx, "user", "ev1")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !added {
		t.Fatal("first add should report newly added")
	}

	again, err := deduper.Add(ctx, "user", "ev1")
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if again {
		t.Fatal("second add should report duplicate")
	}
}

func TestRedisDeduperKeyNamespacedByUser(t *testing.T) {
	deduper, _ := newTestDeduper(t, time.Minute)
	ctx := context.Background()

	if added, _ := deduper.Add(ctx, "alice", "ev1"); !added {
		t.Fatal("alice's key should be new")
	}
	if added, _ := deduper.Add(ctx, "bob", "ev1"); !added {
		t.Fatal("same event id under a different user should be new")
	}
}

func TestRedisDeduperRemoveAllowsRetry(t *testing.T) {
	deduper, _ := newTestDeduper(t, time.Minute)
	ctx := context.Background()

	if _, err := deduper.Add(ctx, "user", "ev1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := deduper.Remove(ctx, "user", "ev1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	added, err := deduper.Add(ctx, "user", "ev1")
	if err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if !added {
		t.Fatal("removed key should be addable again")
	}
}

func TestRedisDeduperTTLExpires(t *testing.T) {
	deduper, m := newTestDeduper(t, time.Second)
	ctx := context.Background()

	if _, err := deduper.Add(ctx, "user", "ev1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	m.FastForward(2 * time.Second)

	added, err := deduper.Add(ctx, "user", "ev1")
	if err != nil {
		t.Fatalf("add after expiry: %v", err)
	}
	if !added {
		t.Fatal("expired key should be addable again")
	}
}
