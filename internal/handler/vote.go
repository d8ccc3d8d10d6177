package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/pelada-service/internal/service"
	"github.com/maxviazov/pelada-service/pkg/response"
)

// VoteHandler serves archived matches and MVP voting.
type VoteHandler struct {
	svc service.VotingService
}

func NewVoteHandler(svc service.VotingService) *VoteHandler { return &VoteHandler{svc: svc} }

func (h *VoteHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/matches")
	{
		g.GET("", h.listRecent)
		g.GET("/:id", h.getByID)
		g.POST("/:id/votes", h.vote)
	}
}

func (h *VoteHandler) listRecent(c *gin.Context) {
	res, err := h.svc.ListRecent(c.Request.Context(), callerFrom(c), parsePage(c))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

func (h *VoteHandler) getByID(c *gin.Context) {
	m, err := h.svc.GetMatch(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, m)
}

type voteRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
}

func (h *VoteHandler) vote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, bindError(err))
		return
	}
	m, err := h.svc.Vote(c.Request.Context(), callerFrom(c), c.Param("id"), req.PlayerID)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, m)
}
