package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/growth-tools-backend/internal/domain"
	"github.com/tbourn/growth-tools-backend/internal/services"
	"github.com/tbourn/growth-tools-backend/internal/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CreateChatRequest is the body for POST /history.
type CreateChatRequest struct {
	Title string `json:"title" example:"Marketing plan"`
}

// UpdateTitleRequest is the body for PATCH /history/{id}.
type UpdateTitleRequest struct {
	Title string `json:"title" binding:"required" example:"Renamed chat"`
}

// AppendMessageRequest is the body for POST /history/{id}/messages.
type AppendMessageRequest struct {
	Role    string `json:"role" example:"user" enums:"user,assistant"`
	Content string `json:"content" binding:"required" example:"How do I grow my newsletter?"`
}

// HistoryPage is a page of chats.
type HistoryPage struct {
	Items    []domain.Chat `json:"items"`
	Page     int           `json:"page" example:"1"`
	PageSize int           `json:"page_size" example:"20"`
	Total    int64         `json:"total" example:"42"`
	HasNext  bool          `json:"has_next" example:"true"`
}

var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent normalizes line endings, drops NUL bytes and collapses
// runs of blank lines.
func sanitizeContent(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\x00", "")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// chatID returns the :id path parameter, or aborts with 400 when it is not a
// UUID.
func chatID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid chat id")
		return "", false
	}
	return id, true
}

// historyError maps service errors to HTTP responses.
func historyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrChatNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "chat not found")
	case errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrTooLong),
		errors.Is(err, services.ErrInvalidRole):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "history request failed")
	}
}

// ListHistory godoc
// @ID           listHistory
// @Summary      List chat history
// @Description  Returns the caller's chats, most recent first. Supports weak ETag revalidation.
// @Tags         history
// @Produce      json
// @Param        X-User-ID      header  string  false  "Caller id (demo identity)"
// @Param        page           query   int     false  "Page (1-based)"   default(1)
// @Param        page_size      query   int     false  "Page size (max 100)"  default(20)
// @Param        If-None-Match  header  string  false  "ETag from a previous response"
// @Success      200  {object}  HistoryPage
// @Success      304  "Not Modified"
// @Failure      500  {object}  ErrorResponse
// @Router       /history [get]
func (h *Handlers) ListHistory(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, size := utils.Page(c.Query("page"), c.Query("page_size"), defaultPageSize, maxPageSize)

	count, maxUpdated, err := h.history.Stats(ctx, uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list history")
		return
	}
	var ts int64
	if maxUpdated != nil {
		ts = maxUpdated.UnixNano()
	}
	etag := fmt.Sprintf(`W/"history:%s:%d:%d:%d:%d"`, uid, count, ts, page, size)
	c.Header("ETag", etag)
	c.Header("Cache-Control", "private, no-cache")
	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Status(http.StatusNotModified)
		return
	}

	items, total, err := h.history.ListPage(ctx, uid, page, size)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list history")
		return
	}
	ok(c, http.StatusOK, HistoryPage{
		Items:    items,
		Page:     page,
		PageSize: size,
		Total:    total,
		HasNext:  int64(page*size) < total,
	})
}

// CreateChat godoc
// @ID           createChat
// @Summary      Create a chat
// @Tags         history
// @Accept       json
// @Produce      json
// @Param        X-User-ID  header  string             false  "Caller id (demo identity)"
// @Param        body       body    CreateChatRequest  false  "Optional title"
// @Success      201  {object}  domain.Chat
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /history [post]
func (h *Handlers) CreateChat(c *gin.Context) {
	var req CreateChatRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	chat, err := h.history.Create(c.Request.Context(), userID(c), req.Title)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "could not create chat")
		return
	}
	c.Header("Location", c.FullPath()+"/"+chat.ID)
	ok(c, http.StatusCreated, chat)
}

// GetChat godoc
// @ID           getChat
// @Summary      Get a chat with its messages
// @Tags         history
// @Produce      json
// @Param        X-User-ID  header  string  false  "Caller id (demo identity)"
// @Param        id         path    string  true   "Chat ID (UUID)"
// @Success      200  {object}  services.ChatWithMessages
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /history/{id} [get]
func (h *Handlers) GetChat(c *gin.Context) {
	id, valid := chatID(c)
	if !valid {
		return
	}
	chat, err := h.history.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		historyError(c, err)
		return
	}
	ok(c, http.StatusOK, chat)
}

// UpdateChatTitle godoc
// @ID           updateChatTitle
// @Summary      Rename a chat
// @Tags         history
// @Accept       json
// @Param        X-User-ID  header  string              false  "Caller id (demo identity)"
// @Param        id         path    string              true   "Chat ID (UUID)"
// @Param        body       body    UpdateTitleRequest  true   "New title"
// @Success      204  "No Content"
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /history/{id} [patch]
func (h *Handlers) UpdateChatTitle(c *gin.Context) {
	id, valid := chatID(c)
	if !valid {
		return
	}
	var req UpdateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title is required")
		return
	}
	if err := h.history.UpdateTitle(c.Request.Context(), userID(c), id, req.Title); err != nil {
		historyError(c, err)
		return
	}
	noContent(c)
}

// AppendMessage godoc
// @ID           appendMessage
// @Summary      Append a message to a chat
// @Description  The first user message renames a chat that still has a placeholder title.
// @Tags         history
// @Accept       json
// @Produce      json
// @Param        X-User-ID  header  string                false  "Caller id (demo identity)"
// @Param        id         path    string                true   "Chat ID (UUID)"
// @Param        body       body    AppendMessageRequest  true   "Message"
// @Success      201  {object}  domain.Message
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /history/{id}/messages [post]
func (h *Handlers) AppendMessage(c *gin.Context) {
	id, valid := chatID(c)
	if !valid {
		return
	}
	var req AppendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content is required")
		return
	}
	msg, err := h.history.AppendMessage(c.Request.Context(), userID(c), id, req.Role, sanitizeContent(req.Content))
	if err != nil {
		historyError(c, err)
		return
	}
	ok(c, http.StatusCreated, msg)
}

// DeleteChat godoc
// @ID           deleteChat
// @Summary      Delete a chat
// @Tags         history
// @Param        X-User-ID  header  string  false  "Caller id (demo identity)"
// @Param        id         path    string  true   "Chat ID (UUID)"
// @Success      204  "No Content"
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /history/{id} [delete]
func (h *Handlers) DeleteChat(c *gin.Context) {
	id, valid := chatID(c)
	if !valid {
		return
	}
	if err := h.history.Delete(c.Request.Context(), userID(c), id); err != nil {
		historyError(c, err)
		return
	}
	noContent(c)
}
