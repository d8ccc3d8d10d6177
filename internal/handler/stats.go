package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/pelada-service/internal/service"
	"github.com/maxviazov/pelada-service/pkg/response"
)

type StatsHandler struct {
	svc service.StatsService
}

func NewStatsHandler(svc service.StatsService) *StatsHandler { return &StatsHandler{svc: svc} }

func (h *StatsHandler) Register(r *gin.RouterGroup) {
	r.Group("/stats").GET("", h.overview)
}

func (h *StatsHandler) overview(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.WriteError(c, service.NewInvalidInputError(service.FieldError{Field: "limit", Message: "must be a non-negative integer"}))
			return
		}
		limit = n
	}
	out, err := h.svc.Overview(c.Request.Context(), limit)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, out)
}
