package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/pelada-service/internal/service"
	"github.com/maxviazov/pelada-service/pkg/response"
)

type TeamHandler struct {
	svc service.TeamService
}

func NewTeamHandler(svc service.TeamService) *TeamHandler { return &TeamHandler{svc: svc} }

func (h *TeamHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/teams")
	{
		g.GET("/draft", h.getDraft)
		g.PUT("/draft/selection", h.selectPlayers)
		g.POST("/draft/assign", h.assign)
		g.DELETE("/draft/players/:id", h.unassign)
		g.POST("/balance", h.balance)
	}
}

func (h *TeamHandler) getDraft(c *gin.Context) {
	response.WriteData(c, http.StatusOK, h.svc.GetDraft(c.Request.Context()))
}

type selectionRequest struct {
	PlayerIDs []string `json:"player_ids" binding:"required"`
}

func (h *TeamHandler) selectPlayers(c *gin.Context) {
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, bindError(err))
		return
	}
	view, err := h.svc.SelectPlayers(c.Request.Context(), callerFrom(c), req.PlayerIDs)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, view)
}

type assignRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
	Team     string `json:"team" binding:"required"`
}

func (h *TeamHandler) assign(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, bindError(err))
		return
	}
	view, err := h.svc.AssignPlayer(c.Request.Context(), callerFrom(c), req.PlayerID, req.Team)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, view)
}

func (h *TeamHandler) unassign(c *gin.Context) {
	view, err := h.svc.UnassignPlayer(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, view)
}

type balanceRequest struct {
	Mode          string `json:"mode"`
	AcceptWarning bool   `json:"accept_warning"`
}

// balance always answers 200; a proposal held back by a warning has applied=false.
func (h *TeamHandler) balance(c *gin.Context) {
	var req balanceRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.WriteError(c, bindError(err))
			return
		}
	}
	res, err := h.svc.Balance(c.Request.Context(), callerFrom(c), req.Mode, req.AcceptWarning)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}
