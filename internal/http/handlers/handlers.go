// Package handlers implements the Gin HTTP handlers for the public API:
// chat history, message votes, the quota-gated voice endpoints and the
// usage/dev surface.
//
// Handlers depend on small service interfaces rather than concrete types, so
// tests can substitute fakes. Request-scoped concerns (caller id, request id,
// idempotency replay) are read from values the middleware stack sets.
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/growth-tools-backend/internal/domain"
	"github.com/tbourn/growth-tools-backend/internal/http/middleware"
	"github.com/tbourn/growth-tools-backend/internal/quota"
	"github.com/tbourn/growth-tools-backend/internal/services"
)

// HistoryService is the subset of services.ChatService used by the history
// endpoints.
type HistoryService interface {
	Create(ctx context.Context, userID, title string) (*domain.Chat, error)
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Chat, int64, error)
	Stats(ctx context.Context, userID string) (int64, *time.Time, error)
	Get(ctx context.Context, userID, chatID string) (*services.ChatWithMessages, error)
	AppendMessage(ctx context.Context, userID, chatID, role, content string) (*domain.Message, error)
	UpdateTitle(ctx context.Context, userID, chatID, title string) error
	Delete(ctx context.Context, userID, chatID string) error
}

// VoteService lists and applies message votes.
type VoteService interface {
	List(ctx context.Context, chatID string) ([]domain.Vote, error)
	Vote(ctx context.Context, chatID, messageID, voteType string) (*domain.Vote, error)
}

// VoiceService runs quota-gated speech synthesis and transcription.
type VoiceService interface {
	Speak(ctx context.Context, in services.SpeakInput) (*services.SpeakResult, error)
	Transcribe(ctx context.Context, in services.TranscribeInput) (*services.TranscribeResult, error)
}

// UsageService exposes the quota counter to the usage and dev endpoints.
type UsageService interface {
	CheckTokenLimit(ctx context.Context) (quota.Result, error)
	RecentCharges(ctx context.Context, limit int) ([]domain.UsageEvent, error)
	ResetCache(ctx context.Context) error
	Purge(ctx context.Context) (int64, error)
}

// Deps carries the services behind the handlers. All of them are required;
// the router mounts every route unconditionally.
type Deps struct {
	History HistoryService
	Votes   VoteService
	Voice   VoiceService
	Usage   UsageService

	// MaxAudioBytes caps uploaded audio for transcription (default 25 MiB).
	MaxAudioBytes int64
}

// Handlers groups the HTTP handlers and their dependencies.
type Handlers struct {
	history       HistoryService
	votes         VoteService
	voice         VoiceService
	usage         UsageService
	maxAudioBytes int64
}

// DefaultMaxAudioBytes matches the hosted transcription upload limit.
const DefaultMaxAudioBytes int64 = 25 << 20

// New constructs a Handlers instance.
func New(d Deps) *Handlers {
	max := d.MaxAudioBytes
	if max <= 0 {
		max = DefaultMaxAudioBytes
	}
	return &Handlers{
		history:       d.History,
		votes:         d.Votes,
		voice:         d.Voice,
		usage:         d.Usage,
		maxAudioBytes: max,
	}
}

// userID returns the caller id resolved by middleware.Identity, falling back
// to the demo user when the middleware is not installed.
func userID(c *gin.Context) string {
	if uid := middleware.UserID(c); uid != "" {
		return uid
	}
	return "demo-user"
}
