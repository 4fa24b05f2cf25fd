// Package services – ChatService
//
// This file implements the ChatService, which backs the history endpoints.
// It validates and normalizes titles, enforces ownership rules, appends
// messages, and auto-titles a chat from its first user message while the
// chat still carries a placeholder title.
//
// Service-level errors (e.g., ErrChatNotFound) are returned for predictable
// cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/growth-tools-backend/internal/domain"
)

// ChatRepo defines the repository contract required by ChatService.
type ChatRepo interface {
	CreateChat(ctx context.Context, db *gorm.DB, userID, title string) (*domain.Chat, error)
	GetChat(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Chat, error)
	UpdateChatTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error
	CountChats(ctx context.Context, db *gorm.DB, userID string) (int64, error)
	ListChatsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Chat, error)
	DeleteChat(ctx context.Context, db *gorm.DB, id, userID string) error
	ChatsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error)

	CreateMessage(ctx context.Context, db *gorm.DB, chatID, role, content string) (*domain.Message, error)
	ListMessages(ctx context.Context, db *gorm.DB, chatID string, limit int) ([]domain.Message, error)
	CountUserMessages(ctx context.Context, db *gorm.DB, chatID string) (int64, error)
}

// ChatWithMessages is a chat together with its ordered messages.
type ChatWithMessages struct {
	domain.Chat
	Messages []domain.Message `json:"messages"`
}

// ChatService provides chat history operations.
type ChatService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the chat repository used by this service.
	Repo ChatRepo

	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
	// TitleWords caps the number of words in an auto-generated title.
	TitleWords int
	// TitleLocale selects casing rules for auto-generated titles.
	TitleLocale language.Tag

	// MaxMessageRunes rejects longer messages; 0 disables the check.
	MaxMessageRunes int
	// MaxMessages caps how many messages Get returns; 0 returns all.
	MaxMessages int
}

// NewChatService constructs a ChatService with sane defaults for title handling.
func NewChatService(db *gorm.DB, r ChatRepo) *ChatService {
	return &ChatService{
		DB:              db,
		Repo:            r,
		TitleMaxLen:     60,
		TitleWords:      6,
		TitleLocale:     language.English,
		MaxMessageRunes: 8000,
	}
}

func (s *ChatService) tracer() trace.Tracer { return otel.Tracer("services/ChatService") }

// Create inserts a new chat owned by userID with the provided title.
// Titles are normalized, trimmed, clipped, and a default fallback is applied.
func (s *ChatService) Create(ctx context.Context, userID, title string) (*domain.Chat, error) {
	title = normalizeTitle(title)
	if title == "" {
		title = defaultTitleNew
	}
	return s.Repo.CreateChat(ctx, s.DB, userID, clipRunes(title, s.TitleMaxLen))
}

// ListPage returns a page of chats for a user (paginated).
// It applies defaults for invalid page/pageSize and returns total count.
func (s *ChatService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Chat, int64, error) {
	ctx, span := s.tracer().Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountChats(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Chat{}, 0, nil
	}

	items, err := s.Repo.ListChatsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Stats returns the chat count and latest update time used for ETags.
func (s *ChatService) Stats(ctx context.Context, userID string) (int64, *time.Time, error) {
	return s.Repo.ChatsStats(ctx, s.DB, userID)
}

// Get returns a chat with its messages, or ErrChatNotFound.
func (s *ChatService) Get(ctx context.Context, userID, chatID string) (*ChatWithMessages, error) {
	ctx, span := s.tracer().Start(ctx, "Get",
		trace.WithAttributes(
			attribute.String("chat.id", chatID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	chat, err := s.getOwned(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.Repo.ListMessages(ctx, s.DB, chatID, s.MaxMessages)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return &ChatWithMessages{Chat: *chat, Messages: msgs}, nil
}

// AppendMessage stores a message in a chat owned by userID. The first user
// message renames a placeholder-titled chat.
func (s *ChatService) AppendMessage(ctx context.Context, userID, chatID, role, content string) (*domain.Message, error) {
	ctx, span := s.tracer().Start(ctx, "AppendMessage",
		trace.WithAttributes(
			attribute.String("chat.id", chatID),
			attribute.String("user.id", userID),
			attribute.String("message.role", role),
		),
	)
	defer span.End()

	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		role = domain.RoleUser
	}
	if role != domain.RoleUser && role != domain.RoleAssistant {
		return nil, ErrInvalidRole
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(content) > s.MaxMessageRunes {
		return nil, ErrTooLong
	}

	chat, err := s.getOwned(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	var msg *domain.Message
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		firstPrompt := false
		if role == domain.RoleUser && isPlaceholderTitle(chat.Title) {
			n, err := s.Repo.CountUserMessages(ctx, tx, chatID)
			if err != nil {
				return err
			}
			firstPrompt = n == 0
		}

		m, err := s.Repo.CreateMessage(ctx, tx, chatID, role, content)
		if err != nil {
			return err
		}
		msg = m

		if firstPrompt {
			if gen := titleFromText(content, s.TitleLocale, s.TitleWords); gen != "" {
				return s.Repo.UpdateChatTitle(ctx, tx, chatID, userID, clipRunes(gen, s.TitleMaxLen))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// UpdateTitle updates a chat's title, ensuring the chat exists and
// belongs to the given user. Falls back to "Untitled" if title is blank.
func (s *ChatService) UpdateTitle(ctx context.Context, userID, chatID, title string) error {
	title = normalizeTitle(title)
	if title == "" {
		title = defaultTitleUntitled
	}
	if _, err := s.getOwned(ctx, userID, chatID); err != nil {
		return err
	}
	return s.Repo.UpdateChatTitle(ctx, s.DB, chatID, userID, clipRunes(title, s.TitleMaxLen))
}

// Delete removes a chat and its messages.
func (s *ChatService) Delete(ctx context.Context, userID, chatID string) error {
	err := s.Repo.DeleteChat(ctx, s.DB, chatID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrChatNotFound
	}
	return err
}

func (s *ChatService) getOwned(ctx context.Context, userID, chatID string) (*domain.Chat, error) {
	chat, err := s.Repo.GetChat(ctx, s.DB, chatID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return chat, nil
}
