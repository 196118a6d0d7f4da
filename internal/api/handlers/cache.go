package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/powerlaw-overtake/internal/cache"
)

// RowCacheAdmin is the part of the row cache exposed over HTTP.
type RowCacheAdmin interface {
	GetStats() cache.RowCacheStats
	Clear(ctx context.Context) error
}

// CacheHandler handles row cache monitoring endpoints
type CacheHandler struct {
	cache RowCacheAdmin
}

func NewCacheHandler(c RowCacheAdmin) *CacheHandler {
	return &CacheHandler{cache: c}
}

// GetCacheStats returns hit/miss counters of the source row cache.
func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	stats := h.cache.GetStats()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"hits":     stats.Hits,
			"misses":   stats.Misses,
			"sets":     stats.Sets,
			"errors":   stats.Errors,
			"hit_rate": stats.HitRate(),
		},
	})
}

// ClearCache drops every cached source so the next run refetches.
func (h *CacheHandler) ClearCache(c *gin.Context) {
	if err := h.cache.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to clear row cache",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Row cache cleared",
	})
}
