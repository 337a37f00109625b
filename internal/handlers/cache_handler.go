package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mentorhub/mentorhub-api/internal/cache"
	"github.com/mentorhub/mentorhub-api/internal/services"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"go.uber.org/zap"
)

// CandidateCacheAdmin is the operator view of the candidate cache
type CandidateCacheAdmin interface {
	IsReady() bool
	GetMetadata() (*cache.CacheMetadata, error)
	Invalidate()
}

// CacheHandler exposes cache state to operators
type CacheHandler struct {
	candidates CandidateCacheAdmin
	results    services.MatchResultCache
}

// NewCacheHandler creates a new CacheHandler. Either argument may be nil.
func NewCacheHandler(candidates CandidateCacheAdmin, results services.MatchResultCache) *CacheHandler {
	return &CacheHandler{candidates: candidates, results: results}
}

// Status handles GET /api/internal/cache
func (h *CacheHandler) Status(c *gin.Context) {
	body := gin.H{"candidates": gin.H{"enabled": false}, "matches": gin.H{"enabled": h.results != nil}}

	if h.candidates != nil {
		candidates := gin.H{"enabled": true, "ready": h.candidates.IsReady()}
		if meta, err := h.candidates.GetMetadata(); err == nil {
			candidates["mentorCount"] = meta.MentorCount
			candidates["lastRefresh"] = meta.LastRefreshTime.UTC().Format(time.RFC3339)
		}
		body["candidates"] = candidates
	}

	c.JSON(http.StatusOK, body)
}

// Invalidate handles POST /api/internal/cache/invalidate
func (h *CacheHandler) Invalidate(c *gin.Context) {
	if h.candidates != nil {
		h.candidates.Invalidate()
	}
	if h.results != nil {
		if err := h.results.InvalidateAll(c.Request.Context()); err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to invalidate match cache", err)
			return
		}
	}

	logger.Info("Caches invalidated by operator", zap.String("client_ip", c.ClientIP()))
	c.JSON(http.StatusOK, gin.H{"success": true})
}
