package calls

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisCache(t *testing.T, ttl time.Duration) (*RedisListingCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisListingCache(rdb, ttl), mr
}

func TestRedisListingCache_MissThenHit(t *testing.T) {
	c, _ := newRedisCache(t, time.Minute)
	ctx := context.Background()

	_, gen, ok, err := c.Get(ctx)
	if err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
	if gen != 0 {
		t.Fatalf("expected generation 0 before any write, got %d", gen)
	}

	analysis := `{"sentiment":"positive"}`
	want := []CallRecord{{ID: "a", CallID: "c1", Status: "ended", Analysis: &analysis}}
	if err := c.Set(ctx, gen, want); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, _, ok, err := c.Get(ctx)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if len(got) != 1 || got[0].CallID != "c1" || got[0].Analysis == nil || *got[0].Analysis != analysis {
		t.Fatalf("unexpected cached listing %+v", got)
	}
}

func TestRedisListingCache_ExpiresAfterTTL(t *testing.T) {
	c, mr := newRedisCache(t, 30*time.Second)
	ctx := context.Background()

	if err := c.Set(ctx, 0, []CallRecord{{ID: "a", CallID: "c1"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := mr.TTL(c.dataKey(0)); ttl != 30*time.Second {
		t.Fatalf("expected 30s ttl, got %s", ttl)
	}

	mr.FastForward(31 * time.Second)
	if _, _, ok, err := c.Get(ctx); err != nil || ok {
		t.Fatalf("expected miss after ttl, got ok=%v err=%v", ok, err)
	}
}

func TestRedisListingCache_InvalidateRetiresGeneration(t *testing.T) {
	c, _ := newRedisCache(t, time.Minute)
	ctx := context.Background()

	_, gen, _, _ := c.Get(ctx)
	if err := c.Set(ctx, gen, []CallRecord{{ID: "a", CallID: "c1"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, _, ok, _ := c.Get(ctx); ok {
		t.Fatalf("expected miss after invalidation")
	}

	// A fill computed under the old generation must stay invisible.
	if err := c.Set(ctx, gen, []CallRecord{}); err != nil {
		t.Fatalf("set: %v", err)
	}
	_, cur, ok, err := c.Get(ctx)
	if err != nil || ok {
		t.Fatalf("stale fill became visible: ok=%v err=%v", ok, err)
	}
	if cur != gen+1 {
		t.Fatalf("expected generation %d, got %d", gen+1, cur)
	}
}

func TestRedisListingCache_WriteDuringReadIsNotHidden(t *testing.T) {
	c, _ := newRedisCache(t, time.Minute)
	listAcrossWrite(t, c)
}

func TestRedisListingCache_ServerDownIsAnError(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	if err := mr.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	addr := mr.Addr()
	mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })
	c := NewRedisListingCache(rdb, time.Minute)

	if _, _, _, err := c.Get(context.Background()); err == nil {
		t.Fatalf("expected error when redis is unreachable")
	}
}
