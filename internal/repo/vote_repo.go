// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the durable vote store used when
// VOTE_STORE=db.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/growth-tools-backend/internal/domain"
)

// GetVote fetches the vote addressed by (chatID, messageID) or ErrNotFound.
func GetVote(ctx context.Context, db *gorm.DB, chatID, messageID string) (*domain.Vote, error) {
	var v domain.Vote
	err := db.WithContext(ctx).
		Where("chat_id = ? AND message_id = ?", chatID, messageID).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListVotes returns all votes of a chat ordered by message id.
func ListVotes(ctx context.Context, db *gorm.DB, chatID string) ([]domain.Vote, error) {
	out := []domain.Vote{}
	err := db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("message_id ASC").
		Find(&out).Error
	return out, err
}

// ApplyVote creates the vote with Count=1 when the pair is new, otherwise it
// updates Type in place and keeps Count. The insert is an upsert on the
// (chat_id, message_id) key so concurrent first votes both succeed.
func ApplyVote(ctx context.Context, db *gorm.DB, chatID, messageID, voteType string) (*domain.Vote, error) {
	var out *domain.Vote
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		v := &domain.Vote{
			ChatID:    chatID,
			MessageID: messageID,
			Type:      voteType,
			Count:     1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}, {Name: "message_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"type", "updated_at"}),
		}).Create(v).Error
		if err != nil {
			return err
		}
		out, err = GetVote(ctx, tx, chatID, messageID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
