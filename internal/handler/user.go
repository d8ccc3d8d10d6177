package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/pelada-service/internal/model"
	"github.com/maxviazov/pelada-service/internal/service"
	"github.com/maxviazov/pelada-service/pkg/response"
)

// UserHandler serves the caller's own profile and the admin user directory actions.
type UserHandler struct {
	svc service.UserService
}

func NewUserHandler(svc service.UserService) *UserHandler { return &UserHandler{svc: svc} }

// Register mounts /me for any authenticated caller; the admin actions are checked in the service.
func (h *UserHandler) Register(r *gin.RouterGroup) {
	r.GET("/me", h.me)
	g := r.Group("/users")
	{
		g.POST("/:uid/approve", h.approve)
		g.PUT("/:uid/admin", h.setAdmin)
	}
}

type meResponse struct {
	Profile   model.UserProfile `json:"profile"`
	IsTrusted bool              `json:"is_trusted"`
}

func (h *UserHandler) me(c *gin.Context) {
	response.WriteData(c, http.StatusOK, meResponse{Profile: profileFrom(c), IsTrusted: callerFrom(c).IsTrusted})
}

func (h *UserHandler) approve(c *gin.Context) {
	u, err := h.svc.Approve(c.Request.Context(), callerFrom(c), c.Param("uid"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, u)
}

type setAdminRequest struct {
	IsAdmin *bool `json:"is_admin" binding:"required"`
}

func (h *UserHandler) setAdmin(c *gin.Context) {
	var req setAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, bindError(err))
		return
	}
	u, err := h.svc.SetAdmin(c.Request.Context(), callerFrom(c), c.Param("uid"), *req.IsAdmin)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, u)
}
