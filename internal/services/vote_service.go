// Package services – VoteService
//
// Votes are up/down reactions keyed by (chatId, messageId). A new pair starts
// with count 1; voting again on the same pair changes the type in place and
// leaves the count alone.
package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/growth-tools-backend/internal/domain"
	"github.com/tbourn/growth-tools-backend/internal/repo"
)

// VoteStore persists votes.
type VoteStore interface {
	List(ctx context.Context, chatID string) ([]domain.Vote, error)
	Apply(ctx context.Context, chatID, messageID, voteType string) (*domain.Vote, error)
}

// VoteService validates vote requests and delegates to a VoteStore.
type VoteService struct {
	Store VoteStore
}

// NewVoteService returns a VoteService over store.
func NewVoteService(store VoteStore) *VoteService {
	return &VoteService{Store: store}
}

// List returns the votes of chatID; never nil.
func (s *VoteService) List(ctx context.Context, chatID string) ([]domain.Vote, error) {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return nil, ErrMissingChatID
	}
	out, err := s.Store.List(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Vote{}
	}
	return out, nil
}

// Vote creates or updates the vote for (chatID, messageID).
func (s *VoteService) Vote(ctx context.Context, chatID, messageID, voteType string) (*domain.Vote, error) {
	chatID, messageID = strings.TrimSpace(chatID), strings.TrimSpace(messageID)
	voteType = strings.ToLower(strings.TrimSpace(voteType))
	switch {
	case chatID == "":
		return nil, ErrMissingChatID
	case messageID == "":
		return nil, ErrMissingMessageID
	case !domain.ValidVoteType(voteType):
		return nil, ErrInvalidVote
	}
	return s.Store.Apply(ctx, chatID, messageID, voteType)
}

// MemoryVoteStore keeps votes for the lifetime of the process.
type MemoryVoteStore struct {
	mu    sync.RWMutex
	votes map[string]domain.Vote
}

// NewMemoryVoteStore returns an empty MemoryVoteStore.
func NewMemoryVoteStore() *MemoryVoteStore {
	return &MemoryVoteStore{votes: make(map[string]domain.Vote)}
}

func (m *MemoryVoteStore) List(_ context.Context, chatID string) ([]domain.Vote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.Vote{}
	for _, v := range m.votes {
		if v.ChatID == chatID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MessageID < out[j].MessageID })
	return out, nil
}

func (m *MemoryVoteStore) Apply(_ context.Context, chatID, messageID, voteType string) (*domain.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.votes == nil {
		m.votes = make(map[string]domain.Vote)
	}
	now := time.Now().UTC()
	key := domain.VoteKey(chatID, messageID)
	v, ok := m.votes[key]
	if !ok {
		v = domain.Vote{ChatID: chatID, MessageID: messageID, Count: 1, CreatedAt: now}
	}
	v.Type = voteType
	v.UpdatedAt = now
	m.votes[key] = v
	return &v, nil
}

// DBVoteStore persists votes in the votes table.
type DBVoteStore struct {
	DB *gorm.DB
}

func (d *DBVoteStore) List(ctx context.Context, chatID string) ([]domain.Vote, error) {
	return repo.ListVotes(ctx, d.DB, chatID)
}

func (d *DBVoteStore) Apply(ctx context.Context, chatID, messageID, voteType string) (*domain.Vote, error) {
	return repo.ApplyVote(ctx, d.DB, chatID, messageID, voteType)
}
