package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/growth-tools-backend/internal/domain"
	"github.com/tbourn/growth-tools-backend/internal/http/middleware"
	"github.com/tbourn/growth-tools-backend/internal/quota"
	"github.com/tbourn/growth-tools-backend/internal/services"
)

type stubHistory struct {
	createFn  func(ctx context.Context, userID, title string) (*domain.Chat, error)
	listFn    func(ctx context.Context, userID string, page, size int) ([]domain.Chat, int64, error)
	statsFn   func(ctx context.Context, userID string) (int64, *time.Time, error)
	getFn     func(ctx context.Context, userID, chatID string) (*services.ChatWithMessages, error)
	appendFn  func(ctx context.Context, userID, chatID, role, content string) (*domain.Message, error)
	updateFn  func(ctx context.Context, userID, chatID, title string) error
	deleteFn  func(ctx context.Context, userID, chatID string) error
	listCalls int
}

func (s *stubHistory) Create(ctx context.Context, userID, title string) (*domain.Chat, error) {
	return s.createFn(ctx, userID, title)
}

func (s *stubHistory) ListPage(ctx context.Context, userID string, page, size int) ([]domain.Chat, int64, error) {
	s.listCalls++
	return s.listFn(ctx, userID, page, size)
}

func (s *stubHistory) Stats(ctx context.Context, userID string) (int64, *time.Time, error) {
	if s.statsFn == nil {
		return 0, nil, nil
	}
	return s.statsFn(ctx, userID)
}

func (s *stubHistory) Get(ctx context.Context, userID, chatID string) (*services.ChatWithMessages, error) {
	return s.getFn(ctx, userID, chatID)
}

func (s *stubHistory) AppendMessage(ctx context.Context, userID, chatID, role, content string) (*domain.Message, error) {
	return s.appendFn(ctx, userID, chatID, role, content)
}

func (s *stubHistory) UpdateTitle(ctx context.Context, userID, chatID, title string) error {
	return s.updateFn(ctx, userID, chatID, title)
}

func (s *stubHistory) Delete(ctx context.Context, userID, chatID string) error {
	return s.deleteFn(ctx, userID, chatID)
}

type stubVoice struct {
	speakFn      func(ctx context.Context, in services.SpeakInput) (*services.SpeakResult, error)
	transcribeFn func(ctx context.Context, in services.TranscribeInput) (*services.TranscribeResult, error)
}

func (s *stubVoice) Speak(ctx context.Context, in services.SpeakInput) (*services.SpeakResult, error) {
	return s.speakFn(ctx, in)
}

func (s *stubVoice) Transcribe(ctx context.Context, in services.TranscribeInput) (*services.TranscribeResult, error) {
	return s.transcribeFn(ctx, in)
}

type stubUsage struct {
	result   quota.Result
	recent   []domain.UsageEvent
	resetErr error
	purged   int64
	calls    []string
}

func (s *stubUsage) CheckTokenLimit(context.Context) (quota.Result, error) {
	s.calls = append(s.calls, "check")
	return s.result, nil
}

func (s *stubUsage) RecentCharges(_ context.Context, limit int) ([]domain.UsageEvent, error) {
	s.calls = append(s.calls, "recent")
	if len(s.recent) > limit {
		return s.recent[:limit], nil
	}
	return s.recent, nil
}

func (s *stubUsage) ResetCache(context.Context) error {
	s.calls = append(s.calls, "reset")
	return s.resetErr
}

func (s *stubUsage) Purge(context.Context) (int64, error) {
	s.calls = append(s.calls, "purge")
	return s.purged, nil
}

// newRouter mounts the handlers the way the production router does, minus
// the ops middleware.
func newRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Identity(""))

	api := r.Group("/api")
	if h.history != nil {
		api.GET("/history", h.ListHistory)
		api.POST("/history", h.CreateChat)
		api.GET("/history/:id", h.GetChat)
		api.PATCH("/history/:id", h.UpdateChatTitle)
		api.POST("/history/:id/messages", h.AppendMessage)
		api.DELETE("/history/:id", h.DeleteChat)
	}
	if h.votes != nil {
		api.GET("/vote", h.ListVotes)
		api.PATCH("/vote", h.Vote)
	}
	if h.voice != nil {
		api.POST("/growth-tools/speak", h.Speak(services.ProfileGrowthTools))
		api.POST("/growth-tools/transcribe", h.Transcribe(services.ProfileGrowthTools))
		api.POST("/needs-assessment/speak", h.Speak(services.ProfileNeedsAssessment))
		api.POST("/needs-assessment/transcribe", h.Transcribe(services.ProfileNeedsAssessment))
	}
	if h.usage != nil {
		api.GET("/usage", h.GetUsage)
		api.POST("/dev/reset-rate-limit", h.ResetRateLimit)
	}
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return er
}
