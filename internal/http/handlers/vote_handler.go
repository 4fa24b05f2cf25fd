package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/growth-tools-backend/internal/domain"
	"github.com/tbourn/growth-tools-backend/internal/services"
)

// VoteRequest is the body for PATCH /vote.
type VoteRequest struct {
	ChatID    string `json:"chatId" example:"c1"`
	MessageID string `json:"messageId" example:"m1"`
	Type      string `json:"type" example:"up" enums:"up,down"`
}

func voteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrMissingChatID),
		errors.Is(err, services.ErrMissingMessageID),
		errors.Is(err, services.ErrInvalidVote):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "vote request failed")
	}
}

// ListVotes godoc
// @ID           listVotes
// @Summary      List votes for a chat
// @Tags         votes
// @Produce      json
// @Param        chatId  query  string  true  "Chat ID"
// @Success      200  {array}   domain.Vote
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /vote [get]
func (h *Handlers) ListVotes(c *gin.Context) {
	votes, err := h.votes.List(c.Request.Context(), c.Query("chatId"))
	if err != nil {
		voteError(c, err)
		return
	}
	if votes == nil {
		votes = []domain.Vote{}
	}
	ok(c, http.StatusOK, votes)
}

// Vote godoc
// @ID           vote
// @Summary      Create or update a vote
// @Description  A first vote on a message creates it with count 1; later votes change the type in place.
// @Tags         votes
// @Accept       json
// @Produce      json
// @Param        body  body  VoteRequest  true  "Vote"
// @Success      200  {object}  domain.Vote
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /vote [patch]
func (h *Handlers) Vote(c *gin.Context) {
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	v, err := h.votes.Vote(c.Request.Context(), req.ChatID, req.MessageID, req.Type)
	if err != nil {
		voteError(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}
