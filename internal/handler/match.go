package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/pelada-service/internal/service"
	"github.com/maxviazov/pelada-service/pkg/response"
)

// MatchHandler exposes the live session.
type MatchHandler struct {
	svc service.MatchService
}

func NewMatchHandler(svc service.MatchService) *MatchHandler { return &MatchHandler{svc: svc} }

func (h *MatchHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/match")
	{
		g.GET("", h.current)
		g.POST("/start", h.start)
		g.POST("/events", h.record)
		g.POST("/adjustments", h.adjust)
		g.POST("/end", h.end)
	}
}

func (h *MatchHandler) current(c *gin.Context) {
	response.WriteData(c, http.StatusOK, h.svc.Current(c.Request.Context()))
}

func (h *MatchHandler) start(c *gin.Context) {
	snap, err := h.svc.Start(c.Request.Context(), callerFrom(c))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, snap)
}

type eventRequest struct {
	Team     string `json:"team" binding:"required"`
	PlayerID string `json:"player_id" binding:"required"`
	Kind     string `json:"kind" binding:"required"`
}

func (h *MatchHandler) record(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, bindError(err))
		return
	}
	snap, err := h.svc.RecordEvent(c.Request.Context(), callerFrom(c), req.Team, req.PlayerID, req.Kind)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, snap)
}

type adjustRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
	Stat     string `json:"stat" binding:"required"`
	Delta    int    `json:"delta" binding:"required"`
}

func (h *MatchHandler) adjust(c *gin.Context) {
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, bindError(err))
		return
	}
	snap, err := h.svc.Adjust(c.Request.Context(), callerFrom(c), req.PlayerID, req.Stat, req.Delta)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, snap)
}

type endRequest struct {
	// Archive defaults to true when omitted.
	Archive *bool `json:"archive"`
}

func (h *MatchHandler) end(c *gin.Context) {
	var req endRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.WriteError(c, bindError(err))
			return
		}
	}
	archive := req.Archive == nil || *req.Archive
	res, err := h.svc.End(c.Request.Context(), callerFrom(c), archive)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}
