package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/pelada-service/internal/model"
	"github.com/maxviazov/pelada-service/internal/repository"
	"github.com/maxviazov/pelada-service/internal/service"
	"github.com/maxviazov/pelada-service/pkg/response"
)

// parseBoolQuery is a helper to flexibly parse boolean-like query parameters.
func parseBoolQuery(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1"
}

// parsePage reads limit/offset; Atoi errors fall back to 0 and the service applies defaults.
func parsePage(c *gin.Context) repository.Page {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return repository.Page{Limit: limit, Offset: offset}
}

type PlayerHandler struct {
	svc service.PlayerService
}

func NewPlayerHandler(svc service.PlayerService) *PlayerHandler { return &PlayerHandler{svc: svc} }

func (h *PlayerHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/players")
	{
		g.POST("", h.create)
		g.GET("", h.list)
		g.GET("/:id", h.getByID)
		g.PATCH("/:id", h.update)
		g.DELETE("/:id", h.deactivate)
		g.POST("/:id/reactivate", h.reactivate)
	}
}

type createPlayerRequest struct {
	Name          string   `json:"name" binding:"required"`
	SkillLevel    int      `json:"skill_level" binding:"required"`
	Position      string   `json:"position"`
	IsGoalkeeper  bool     `json:"is_goalkeeper"`
	Weight        *float64 `json:"weight"`
	Height        *float64 `json:"height"`
	PreferredFoot *string  `json:"preferred_foot"`
}

func (h *PlayerHandler) create(c *gin.Context) {
	var req createPlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, bindError(err))
		return
	}
	player, err := h.svc.CreatePlayer(c.Request.Context(), callerFrom(c), service.PlayerInput{
		Name:          req.Name,
		SkillLevel:    req.SkillLevel,
		Position:      req.Position,
		IsGoalkeeper:  req.IsGoalkeeper,
		Weight:        req.Weight,
		Height:        req.Height,
		PreferredFoot: req.PreferredFoot,
	})
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, player.View())
}

func (h *PlayerHandler) list(c *gin.Context) {
	res, err := h.svc.ListPlayers(c.Request.Context(), parseBoolQuery(c.Query("include_inactive")), parsePage(c))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	out := repository.PageResult[model.PlayerView]{Items: make([]model.PlayerView, 0, len(res.Items)), Total: res.Total}
	for _, p := range res.Items {
		out.Items = append(out.Items, p.View())
	}
	response.WriteData(c, http.StatusOK, out)
}

func (h *PlayerHandler) getByID(c *gin.Context) {
	player, err := h.svc.GetPlayer(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, player.View())
}

type updatePlayerRequest struct {
	Name          *string  `json:"name"`
	SkillLevel    *int     `json:"skill_level"`
	Position      *string  `json:"position"`
	IsGoalkeeper  *bool    `json:"is_goalkeeper"`
	Weight        *float64 `json:"weight"`
	Height        *float64 `json:"height"`
	PreferredFoot *string  `json:"preferred_foot"`
	Goals         *int     `json:"goals"`
	Assists       *int     `json:"assists"`
	Saves         *int     `json:"saves"`
}

func (h *PlayerHandler) update(c *gin.Context) {
	var req updatePlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, bindError(err))
		return
	}
	player, err := h.svc.UpdatePlayer(c.Request.Context(), callerFrom(c), c.Param("id"), service.PlayerUpdate(req))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, player.View())
}

func (h *PlayerHandler) deactivate(c *gin.Context) {
	player, err := h.svc.DeactivatePlayer(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, player.View())
}

func (h *PlayerHandler) reactivate(c *gin.Context) {
	player, err := h.svc.ReactivatePlayer(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, player.View())
}
