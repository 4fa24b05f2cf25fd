package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/growth-tools-backend/internal/domain"
	"github.com/tbourn/growth-tools-backend/internal/quota"
	"github.com/tbourn/growth-tools-backend/internal/utils"
)

// UsageResponse is the body returned by GET /usage.
type UsageResponse struct {
	quota.Result
	Recent []domain.UsageEvent `json:"recent"`
}

// ResetResponse is the body returned by POST /dev/reset-rate-limit.
type ResetResponse struct {
	Status  string `json:"status" example:"ok"`
	Deleted int64  `json:"deleted" example:"3"`
}

// GetUsage godoc
// @ID           getUsage
// @Summary      Current token quota
// @Description  Returns the shared counter state and the most recent charges.
// @Tags         usage
// @Produce      json
// @Param        recent  query  int  false  "Number of ledger entries (max 100)"  default(20)
// @Success      200  {object}  UsageResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /usage [get]
func (h *Handlers) GetUsage(c *gin.Context) {
	ctx := c.Request.Context()
	res, err := h.usage.CheckTokenLimit(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not read usage")
		return
	}
	recent, err := h.usage.RecentCharges(ctx, utils.Limit(c.Query("recent"), 20, 100))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not read usage")
		return
	}
	if recent == nil {
		recent = []domain.UsageEvent{}
	}
	ok(c, http.StatusOK, UsageResponse{Result: res, Recent: recent})
}

// ResetRateLimit godoc
// @ID           resetRateLimit
// @Summary      Reset the token quota (development only)
// @Description  Clears the cached counter and deletes the persisted quota rows. Registered only when APP_ENV=development.
// @Tags         dev
// @Produce      json
// @Success      200  {object}  ResetResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /dev/reset-rate-limit [post]
func (h *Handlers) ResetRateLimit(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.usage.ResetCache(ctx); err != nil {
		resetError(c, err)
		return
	}
	n, err := h.usage.Purge(ctx)
	if err != nil {
		resetError(c, err)
		return
	}
	ok(c, http.StatusOK, ResetResponse{Status: "ok", Deleted: n})
}

func resetError(c *gin.Context, err error) {
	if errors.Is(err, quota.ErrResetUnavailable) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "route not found")
		return
	}
	fail(c, http.StatusInternalServerError, ErrCodeInternal, "reset failed")
}
