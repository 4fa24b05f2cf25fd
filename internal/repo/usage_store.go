package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/growth-tools-backend/internal/domain"
)

// UsageStore binds the usage helpers to one sentinel scope. It satisfies
// quota.Store.
type UsageStore struct {
	DB    *gorm.DB
	Scope string // defaults to domain.QuotaSentinel
}

// NewUsageStore returns a store scoped to the quota sentinel.
func NewUsageStore(db *gorm.DB) *UsageStore {
	return &UsageStore{DB: db, Scope: domain.QuotaSentinel}
}

func (s *UsageStore) scope() string {
	if s.Scope == "" {
		return domain.QuotaSentinel
	}
	return s.Scope
}

// Load returns the counter row, or (nil, nil) when none was written yet.
func (s *UsageStore) Load(ctx context.Context) (*domain.UsageRecord, error) {
	rec, err := LoadUsage(ctx, s.DB, s.scope(), domain.QuotaRecordID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

func (s *UsageStore) Add(ctx context.Context, tokens int64, now time.Time, window time.Duration, ev *domain.UsageEvent) (*domain.UsageRecord, error) {
	return AddUsage(ctx, s.DB, s.scope(), domain.QuotaRecordID, tokens, now, window, ev)
}

func (s *UsageStore) Purge(ctx context.Context) (int64, error) {
	return DeleteScope(ctx, s.DB, s.scope())
}

func (s *UsageStore) Recent(ctx context.Context, limit int) ([]domain.UsageEvent, error) {
	return ListUsageEvents(ctx, s.DB, s.scope(), limit)
}
