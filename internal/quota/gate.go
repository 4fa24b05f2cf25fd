// Package quota gates expensive provider calls behind a token-equivalent
// budget shared by every visitor of the demo.
//
// The counter lives in the persistent store under a reserved sentinel row and
// is mirrored in a Cache so that checks normally avoid a database read.
// Writes always go to the store first and then refresh the cache. The gate
// never calls providers itself: callers check, record, then call.
package quota

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"github.com/tbourn/growth-tools-backend/internal/domain"
)

// Defaults applied when the corresponding Gate field is zero.
const (
	DefaultLimit  int64 = 1_000_000
	DefaultWindow       = 24 * time.Hour
)

// Store persists the counter and its ledger. repo.UsageStore implements it.
// Load returns (nil, nil) when no counter exists yet.
type Store interface {
	Load(ctx context.Context) (*domain.UsageRecord, error)
	Add(ctx context.Context, tokens int64, now time.Time, window time.Duration, ev *domain.UsageEvent) (*domain.UsageRecord, error)
	Purge(ctx context.Context) (int64, error)
	Recent(ctx context.Context, limit int) ([]domain.UsageEvent, error)
}

// Charge describes one recorded consumption.
type Charge struct {
	Kind   string // domain.ChargeSpeech, ChargeTranscription or ChargeManual
	UserID string
	Units  float64 // characters or seconds, for the ledger
	Tokens int64
	Meta   map[string]any
}

// Result is the outcome of CheckTokenLimit.
type Result struct {
	Success   bool      `json:"success"`
	Limit     int64     `json:"limit"`
	Used      int64     `json:"used"`
	Remaining int64     `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// Gate enforces the global token budget.
type Gate struct {
	Store  Store
	Cache  Cache // optional
	Limit  int64
	Window time.Duration

	// DevMode enables ResetCache and Purge.
	DevMode bool

	Now func() time.Time
}

// NewGate returns a Gate with a process-local cache.
func NewGate(store Store, limit int64, window time.Duration) *Gate {
	return &Gate{
		Store:  store,
		Cache:  NewMemoryCache(0),
		Limit:  limit,
		Window: window,
	}
}

func (g *Gate) now() time.Time {
	if g.Now != nil {
		return g.Now().UTC()
	}
	return time.Now().UTC()
}

func (g *Gate) limit() int64 {
	if g.Limit <= 0 {
		return DefaultLimit
	}
	return g.Limit
}

func (g *Gate) window() time.Duration {
	if g.Window <= 0 {
		return DefaultWindow
	}
	return g.Window
}

// CheckTokenLimit reports whether the accumulated usage is still below the
// limit. On a cache miss the stored counter is loaded and cached.
func (g *Gate) CheckTokenLimit(ctx context.Context) (Result, error) {
	now := g.now()
	u, err := g.current(ctx)
	if err != nil {
		checksTotal.WithLabelValues("error").Inc()
		return Result{}, err
	}

	used, resetAt := u.Tokens, u.WindowEndsAt
	if !resetAt.After(now) {
		used, resetAt = 0, now.Add(g.window())
	}
	lim := g.limit()
	res := Result{
		Success: used < lim,
		Limit:   lim,
		Used:    used,
		ResetAt: resetAt,
	}
	if used < lim {
		res.Remaining = lim - used
	}

	usedTokens.Set(float64(used))
	if res.Success {
		checksTotal.WithLabelValues("allowed").Inc()
	} else {
		checksTotal.WithLabelValues("denied").Inc()
		log.Ctx(ctx).Warn().
			Int64("used", used).
			Int64("limit", lim).
			Time("reset_at", resetAt).
			Msg("quota_denied")
	}
	return res, nil
}

// current returns the cached counter, falling back to the store. Cache
// failures degrade to a store read.
func (g *Gate) current(ctx context.Context) (Usage, error) {
	if g.Cache != nil {
		u, ok, err := g.Cache.Get(ctx)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("quota_cache_get_failed")
		} else if ok {
			return u, nil
		}
	}

	rec, err := g.Store.Load(ctx)
	if err != nil {
		return Usage{}, err
	}
	u := usageOf(rec)
	g.refresh(ctx, u)
	return u, nil
}

func (g *Gate) cache(ctx context.Context, u Usage) {
	if g.Cache == nil {
		return
	}
	if err := g.Cache.Set(ctx, u); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("quota_cache_set_failed")
	}
}

// refresh caches a stored total. Totals read concurrently may arrive out of
// order, so a lower total for the cached window is ignored.
func (g *Gate) refresh(ctx context.Context, u Usage) {
	if g.Cache == nil {
		return
	}
	if err := g.Cache.Raise(ctx, u); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("quota_cache_set_failed")
	}
}

func usageOf(rec *domain.UsageRecord) Usage {
	if rec == nil {
		return Usage{}
	}
	return Usage{Tokens: rec.Tokens, WindowEndsAt: time.UnixMilli(rec.WindowEndsAt).UTC()}
}

// RecordTokenUsage adds amount to the counter as a manual charge.
func (g *Gate) RecordTokenUsage(ctx context.Context, amount int64) error {
	return g.RecordUsage(ctx, Charge{Kind: domain.ChargeManual, Tokens: amount})
}

// RecordUsage writes the charge through to the store (counter and ledger in
// one transaction) and then refreshes the cache with the stored total, unless
// the cache already holds a higher total for the same window.
func (g *Gate) RecordUsage(ctx context.Context, ch Charge) error {
	if ch.Tokens <= 0 {
		return ErrInvalidAmount
	}
	if ch.Kind == "" {
		ch.Kind = domain.ChargeManual
	}

	ev := &domain.UsageEvent{
		UserID: ch.UserID,
		Kind:   ch.Kind,
		Units:  ch.Units,
	}
	if len(ch.Meta) > 0 {
		raw, err := json.Marshal(ch.Meta)
		if err != nil {
			return err
		}
		ev.Meta = datatypes.JSON(raw)
	}

	rec, err := g.Store.Add(ctx, ch.Tokens, g.now(), g.window(), ev)
	if err != nil {
		return err
	}
	u := usageOf(rec)
	g.refresh(ctx, u)

	tokensRecorded.WithLabelValues(ch.Kind).Add(float64(ch.Tokens))
	usedTokens.Set(float64(u.Tokens))
	log.Ctx(ctx).Debug().
		Str("kind", ch.Kind).
		Int64("tokens", ch.Tokens).
		Int64("total", u.Tokens).
		Msg("quota_recorded")
	return nil
}

// ResetCache replaces the cached counter with an empty, fresh window. The
// next check reports zero usage even though stored rows remain.
func (g *Gate) ResetCache(ctx context.Context) error {
	if !g.DevMode {
		return ErrResetUnavailable
	}
	g.cache(ctx, Usage{WindowEndsAt: g.now().Add(g.window())})
	usedTokens.Set(0)
	return nil
}

// Purge deletes the stored sentinel rows (counter and ledger).
func (g *Gate) Purge(ctx context.Context) (int64, error) {
	if !g.DevMode {
		return 0, ErrResetUnavailable
	}
	return g.Store.Purge(ctx)
}

// RecentCharges returns up to limit ledger entries, newest first.
func (g *Gate) RecentCharges(ctx context.Context, limit int) ([]domain.UsageEvent, error) {
	return g.Store.Recent(ctx, limit)
}
