package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/powerlaw-overtake/internal/services"
)

// DashboardHandler exposes the latest-selection-wins dashboard state.
type DashboardHandler struct {
	dashboard *services.Dashboard
	assets    services.AssetRegistry
	defaults  Defaults
}

func NewDashboardHandler(dashboard *services.Dashboard, assets services.AssetRegistry, defaults Defaults) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, assets: assets, defaults: defaults}
}

// Select starts a recompute for the posted selection and answers 202 at once.
func (h *DashboardHandler) Select(c *gin.Context) {
	var req ParamsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	params, err := h.defaults.Resolve(req)
	if err != nil {
		writeError(c, err)
		return
	}
	if _, err := h.assets.Lookup(params.Asset); err != nil {
		writeError(c, err)
		return
	}

	tok := h.dashboard.Select(params)
	c.JSON(http.StatusAccepted, gin.H{
		"seq":    tok.Seq,
		"run_id": tok.ID,
		"params": tok.Params,
	})
}

// Get returns the newest committed state, or loading while its run is in flight.
func (h *DashboardHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.dashboard.Snapshot())
}
