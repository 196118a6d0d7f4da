package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/powerlaw-overtake/internal/middleware"
	"github.com/irfndi/powerlaw-overtake/internal/services"
)

// OvertakeHandler serves one synchronous pipeline run per request.
type OvertakeHandler struct {
	runner   services.Runner
	defaults Defaults
}

func NewOvertakeHandler(runner services.Runner, defaults Defaults) *OvertakeHandler {
	return &OvertakeHandler{runner: runner, defaults: defaults}
}

// GetOvertake computes the chart and headline for ?mode=&base=&asset=.
func (h *OvertakeHandler) GetOvertake(c *gin.Context) {
	var req ParamsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	params, err := h.defaults.Resolve(req)
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.AddSpanAttribute(c, "overtake.mode", string(params.Mode))
	middleware.AddSpanAttribute(c, "overtake.asset", params.Asset)
	middleware.AddSpanAttribute(c, "overtake.base", params.Base.String())

	result, err := h.runner.Run(c.Request.Context(), params)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
