// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all
// endpoints: the ErrorResponse envelope, the quota denial envelope, and the
// ok/noContent helpers.
//
// Conventions:
//   - All error responses return an ErrorResponse with a stable `code`.
//   - `fail()` centralizes error logging and formatting; 5xx responses are
//     logged with the request-scoped logger.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/growth-tools-backend/internal/http/middleware"
	"github.com/tbourn/growth-tools-backend/internal/quota"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"resource not found"`
}

// QuotaErrorResponse is returned with 429 when the token budget is spent.
type QuotaErrorResponse struct {
	ErrorResponse
	Limit   int64     `json:"limit" example:"1000000"`
	Used    int64     `json:"used" example:"1000300"`
	ResetAt time.Time `json:"reset_at"`
}

// fail aborts the request with a structured error and logs server-side errors.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for router-level fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failQuota answers 429 with the counter state and a Retry-After hint.
func failQuota(c *gin.Context, e *quota.QuotaExceededError) {
	if wait := time.Until(e.ResetAt); wait > 0 {
		c.Header("Retry-After", strconv.Itoa(int(wait.Seconds())+1))
	}
	middleware.LoggerFrom(c).Warn().
		Int64("limit", e.Limit).
		Int64("used", e.Used).
		Msg("quota exceeded")

	c.AbortWithStatusJSON(http.StatusTooManyRequests, QuotaErrorResponse{
		ErrorResponse: ErrorResponse{
			RequestID: c.Writer.Header().Get("X-Request-ID"),
			Code:      ErrCodeQuotaExceeded,
			Message:   "token limit exceeded",
		},
		Limit:   e.Limit,
		Used:    e.Used,
		ResetAt: e.ResetAt,
	})
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
