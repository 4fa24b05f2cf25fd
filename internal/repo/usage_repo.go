// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the quota bookkeeping rows: the
// accumulated token counter (usage_records) and its ledger (usage_events).
//
// Counter increments are a single INSERT ... ON CONFLICT DO UPDATE statement,
// so concurrent writers cannot lose updates. The same statement rolls the
// window: when the stored window has elapsed the counter restarts at the
// charged amount.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/growth-tools-backend/internal/domain"
)

// LoadUsage returns the counter row addressed by (scope, recordID) or ErrNotFound.
func LoadUsage(ctx context.Context, db *gorm.DB, scope, recordID string) (*domain.UsageRecord, error) {
	var rec domain.UsageRecord
	err := db.WithContext(ctx).
		Where("user_id = ? AND record_id = ?", scope, recordID).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// AddUsage atomically adds tokens to the (scope, recordID) counter and appends
// ev (when non-nil) to the ledger in the same transaction. It returns the
// counter as stored after the increment.
func AddUsage(ctx context.Context, db *gorm.DB, scope, recordID string, tokens int64, now time.Time, window time.Duration, ev *domain.UsageEvent) (*domain.UsageRecord, error) {
	now = now.UTC()
	nowMS := now.UnixMilli()
	endsMS := now.Add(window).UnixMilli()

	var out *domain.UsageRecord
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := &domain.UsageRecord{
			UserID:       scope,
			RecordID:     recordID,
			Tokens:       tokens,
			WindowEndsAt: endsMS,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "record_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"tokens": gorm.Expr(
					"CASE WHEN usage_records.window_ends_at <= ? THEN ? ELSE usage_records.tokens + ? END",
					nowMS, tokens, tokens),
				"window_ends_at": gorm.Expr(
					"CASE WHEN usage_records.window_ends_at <= ? THEN ? ELSE usage_records.window_ends_at END",
					nowMS, endsMS),
				"updated_at": now,
			}),
		}).Create(rec).Error
		if err != nil {
			return err
		}

		if ev != nil {
			if ev.ID == "" {
				ev.ID = uuid.NewString()
			}
			ev.Scope = scope
			ev.Tokens = tokens
			if ev.CreatedAt.IsZero() {
				ev.CreatedAt = now
			}
			if err := tx.Create(ev).Error; err != nil {
				return err
			}
		}

		got, err := LoadUsage(ctx, tx, scope, recordID)
		if err != nil {
			return err
		}
		out = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteScope removes every counter and ledger row stored under scope and
// returns the number of rows deleted.
func DeleteScope(ctx context.Context, db *gorm.DB, scope string) (int64, error) {
	var deleted int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ?", scope).Delete(&domain.UsageRecord{})
		if res.Error != nil {
			return res.Error
		}
		deleted += res.RowsAffected

		res = tx.Where("scope = ?", scope).Delete(&domain.UsageEvent{})
		if res.Error != nil {
			return res.Error
		}
		deleted += res.RowsAffected
		return nil
	})
	return deleted, err
}

// ListUsageEvents returns the most recent ledger entries for scope, newest first.
func ListUsageEvents(ctx context.Context, db *gorm.DB, scope string, limit int) ([]domain.UsageEvent, error) {
	out := []domain.UsageEvent{}
	q := db.WithContext(ctx).Where("scope = ?", scope).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}
