package quota

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestMemoryCache_MissSetHitAndTTL(t *testing.T) {
	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Minute)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	if _, ok, err := c.Get(ctx); ok || err != nil {
		t.Fatalf("expected miss on empty cache, got ok=%v err=%v", ok, err)
	}
	want := Usage{Tokens: 12, WindowEndsAt: now.Add(time.Hour)}
	if err := c.Set(ctx, want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := c.Get(ctx)
	if !ok || err != nil || got != want {
		t.Fatalf("Get = (%+v, %v, %v)", got, ok, err)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.Get(ctx); ok {
		t.Fatalf("expected TTL expiry")
	}
}

func TestMemoryCache_RaiseKeepsHigherTotal(t *testing.T) {
	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Minute)
	c.now = func() time.Time { return now }
	ctx := context.Background()
	win := now.Add(time.Hour)

	_ = c.Raise(ctx, Usage{Tokens: 300, WindowEndsAt: win})
	_ = c.Raise(ctx, Usage{Tokens: 100, WindowEndsAt: win})
	if got, _, _ := c.Get(ctx); got.Tokens != 300 {
		t.Fatalf("lower total replaced the cache: %+v", got)
	}

	// a new window replaces a higher total
	next := Usage{Tokens: 5, WindowEndsAt: win.Add(time.Hour)}
	_ = c.Raise(ctx, next)
	if got, _, _ := c.Get(ctx); got != next {
		t.Fatalf("new window not cached: %+v", got)
	}

	// an expired entry does not block a lower total
	now = now.Add(2 * time.Minute)
	_ = c.Raise(ctx, Usage{Tokens: 1, WindowEndsAt: next.WindowEndsAt})
	if got, ok, _ := c.Get(ctx); !ok || got.Tokens != 1 {
		t.Fatalf("expired entry kept: %+v ok=%v", got, ok)
	}
}

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc, err := NewRedisCache(mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

func TestRedisCache_RoundTripAndExpiry(t *testing.T) {
	rc, mr := newRedisCache(t)
	ctx := context.Background()

	if _, ok, err := rc.Get(ctx); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	ends := time.Now().Add(time.Hour).Truncate(time.Millisecond).UTC()
	if err := rc.Set(ctx, Usage{Tokens: 4200, WindowEndsAt: ends}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := rc.Get(ctx)
	if err != nil || !ok {
		t.Fatalf("Get = (%v, %v)", ok, err)
	}
	if got.Tokens != 4200 || !got.WindowEndsAt.Equal(ends) {
		t.Fatalf("unexpected usage: %+v", got)
	}
	if ttl := mr.TTL(DefaultRedisKey); ttl <= 0 {
		t.Fatalf("expected key to carry a TTL, got %v", ttl)
	}

	mr.FastForward(2 * time.Hour)
	if _, ok, _ := rc.Get(ctx); ok {
		t.Fatalf("expected miss after window end")
	}
}

func TestRedisCache_RaiseKeepsHigherTotal(t *testing.T) {
	rc, mr := newRedisCache(t)
	ctx := context.Background()
	ends := time.Now().Add(time.Hour).Truncate(time.Millisecond).UTC()

	if err := rc.Raise(ctx, Usage{Tokens: 300, WindowEndsAt: ends}); err != nil {
		t.Fatalf("Raise: %v", err)
	}
	if err := rc.Raise(ctx, Usage{Tokens: 100, WindowEndsAt: ends}); err != nil {
		t.Fatalf("Raise lower: %v", err)
	}
	got, ok, err := rc.Get(ctx)
	if err != nil || !ok || got.Tokens != 300 {
		t.Fatalf("Get = (%+v, %v, %v)", got, ok, err)
	}
	if ttl := mr.TTL(DefaultRedisKey); ttl <= 0 {
		t.Fatalf("expected key to carry a TTL, got %v", ttl)
	}

	later := ends.Add(time.Hour)
	if err := rc.Raise(ctx, Usage{Tokens: 7, WindowEndsAt: later}); err != nil {
		t.Fatalf("Raise next window: %v", err)
	}
	got, _, _ = rc.Get(ctx)
	if got.Tokens != 7 || !got.WindowEndsAt.Equal(later) {
		t.Fatalf("next window not cached: %+v", got)
	}
}

func TestRedisCache_RequiresAddr(t *testing.T) {
	if _, err := NewRedisCache("", "", 0); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}

func TestGate_WithRedisCache(t *testing.T) {
	rc, _ := newRedisCache(t)
	st := &fakeStore{}
	g := &Gate{Store: st, Cache: rc, Limit: 500, Window: time.Hour}
	ctx := context.Background()

	if err := g.RecordTokenUsage(ctx, 500); err != nil {
		t.Fatalf("record: %v", err)
	}
	res, err := g.CheckTokenLimit(ctx)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Success || res.Used != 500 {
		t.Fatalf("expected denial from cached total, got %+v", res)
	}
	if st.loads != 0 {
		t.Fatalf("check should be served from redis, store loads=%d", st.loads)
	}
}
