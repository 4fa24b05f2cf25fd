package quota

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Usage is the cached view of the counter.
type Usage struct {
	Tokens       int64
	WindowEndsAt time.Time
}

// Cache holds the last known counter so checks can skip the store.
// Get reports ok=false on a miss. Raise is Set except that it never lowers
// the tokens of the window already cached.
type Cache interface {
	Get(ctx context.Context) (u Usage, ok bool, err error)
	Set(ctx context.Context, u Usage) error
	Raise(ctx context.Context, u Usage) error
}

// MemoryCache is a process-local Cache. Entries older than TTL miss so that
// other instances' writes become visible eventually; TTL <= 0 never expires.
type MemoryCache struct {
	TTL time.Duration

	mu      sync.Mutex
	val     Usage
	has     bool
	storeAt time.Time
	now     func() time.Time
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{TTL: ttl, now: time.Now}
}

func (m *MemoryCache) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}

func (m *MemoryCache) Get(_ context.Context) (Usage, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.has {
		return Usage{}, false, nil
	}
	if m.TTL > 0 && m.clock().Sub(m.storeAt) >= m.TTL {
		m.has = false
		return Usage{}, false, nil
	}
	return m.val, true, nil
}

func (m *MemoryCache) Set(_ context.Context, u Usage) error {
	m.mu.Lock()
	m.val, m.has, m.storeAt = u, true, m.clock()
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Raise(_ context.Context, u Usage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fresh := m.has && (m.TTL <= 0 || m.clock().Sub(m.storeAt) < m.TTL)
	if fresh && m.val.WindowEndsAt.Equal(u.WindowEndsAt) && m.val.Tokens > u.Tokens {
		return nil
	}
	m.val, m.has, m.storeAt = u, true, m.clock()
	return nil
}

// DefaultRedisKey is the hash that holds the shared counter.
const DefaultRedisKey = "quota:_ratelimit:tokens"

// ARGV: tokens, window end (unix ms), expire-at (unix ms, 0 for none).
var redisRaiseScript = redis.NewScript(`
local cur = redis.call("HMGET", KEYS[1], "tokens", "window_ends_at")
if cur[1] and cur[2] == ARGV[2] and tonumber(cur[1]) > tonumber(ARGV[1]) then
  return 0
end
redis.call("HSET", KEYS[1], "tokens", ARGV[1], "window_ends_at", ARGV[2])
if tonumber(ARGV[3]) > 0 then
  redis.call("PEXPIREAT", KEYS[1], ARGV[3])
end
return 1
`)

// RedisCache shares the counter between instances. The hash expires at the
// window end, so an elapsed window is a miss.
type RedisCache struct {
	Client *redis.Client
	Key    string
}

// NewRedisCache connects to addr.
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{Client: client, Key: DefaultRedisKey}, nil
}

func (r *RedisCache) key() string {
	if r.Key == "" {
		return DefaultRedisKey
	}
	return r.Key
}

func (r *RedisCache) Get(ctx context.Context) (Usage, bool, error) {
	vals, err := r.Client.HGetAll(ctx, r.key()).Result()
	if err != nil {
		return Usage{}, false, err
	}
	if len(vals) == 0 {
		return Usage{}, false, nil
	}
	tokens, err := strconv.ParseInt(vals["tokens"], 10, 64)
	if err != nil {
		return Usage{}, false, fmt.Errorf("redis quota tokens: %w", err)
	}
	endsMS, err := strconv.ParseInt(vals["window_ends_at"], 10, 64)
	if err != nil {
		return Usage{}, false, fmt.Errorf("redis quota window: %w", err)
	}
	return Usage{Tokens: tokens, WindowEndsAt: time.UnixMilli(endsMS).UTC()}, true, nil
}

func (r *RedisCache) Set(ctx context.Context, u Usage) error {
	_, err := r.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, r.key(),
			"tokens", u.Tokens,
			"window_ends_at", u.WindowEndsAt.UnixMilli(),
		)
		if !u.WindowEndsAt.IsZero() {
			p.PExpireAt(ctx, r.key(), u.WindowEndsAt)
		}
		return nil
	})
	return err
}

func (r *RedisCache) Raise(ctx context.Context, u Usage) error {
	var expireAt int64
	if !u.WindowEndsAt.IsZero() {
		expireAt = u.WindowEndsAt.UnixMilli()
	}
	return redisRaiseScript.Run(ctx, r.Client, []string{r.key()},
		u.Tokens, u.WindowEndsAt.UnixMilli(), expireAt).Err()
}

// Close releases the client.
func (r *RedisCache) Close() error { return r.Client.Close() }
