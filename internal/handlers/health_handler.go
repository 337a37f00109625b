package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthPingTimeout = 2 * time.Second

type HealthHandler struct {
	pingStore       func(ctx context.Context) error
	candidatesReady func() bool
}

// NewHealthHandler creates a health handler. candidatesReady may be nil when
// the candidate cache is disabled.
func NewHealthHandler(pingStore func(ctx context.Context) error, candidatesReady func() bool) *HealthHandler {
	return &HealthHandler{
		pingStore:       pingStore,
		candidatesReady: candidatesReady,
	}
}

func (h *HealthHandler) Healthcheck(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")

	if h.candidatesReady != nil && !h.candidatesReady() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"reason": "candidate cache not initialized",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
	defer cancel()
	if err := h.pingStore(ctx); err != nil {
		attachError(c, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"reason": "store unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
