package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// readinessTimeout caps a single storage round-trip during readiness probes.
const readinessTimeout = 2 * time.Second

// Pinger reports whether the backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	storage Pinger
	started time.Time
}

func NewHealthHandler(storage Pinger) *HealthHandler {
	return &HealthHandler{storage: storage, started: time.Now()}
}

// Liveness never touches dependencies.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// Readiness answers 503 while storage is unreachable.
func (h *HealthHandler) Readiness(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": gin.H{"storage": "skipped"}})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()
	if err := h.storage.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"checks": gin.H{"storage": err.Error()},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": gin.H{"storage": "ok"}})
}
