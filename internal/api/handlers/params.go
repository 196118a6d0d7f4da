package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/powerlaw-overtake/internal/config"
	"github.com/irfndi/powerlaw-overtake/internal/datasource"
	"github.com/irfndi/powerlaw-overtake/internal/logscale"
	"github.com/irfndi/powerlaw-overtake/internal/middleware"
	"github.com/irfndi/powerlaw-overtake/internal/models"
	"github.com/irfndi/powerlaw-overtake/internal/powerlaw"
	"github.com/irfndi/powerlaw-overtake/internal/series"
	"github.com/irfndi/powerlaw-overtake/internal/services"
	"github.com/irfndi/powerlaw-overtake/internal/utils"
)

// Defaults fill in parameters a request leaves empty.
type Defaults struct {
	Mode  string
	Base  string
	Asset string
}

// DefaultsFromConfig takes the defaults from the model section.
func DefaultsFromConfig(cfg config.ModelConfig) Defaults {
	return Defaults{Mode: cfg.DefaultMode, Base: cfg.DefaultBase, Asset: cfg.DefaultAsset}
}

// ParamsRequest is the selection accepted as query parameters or a JSON body.
type ParamsRequest struct {
	Mode  string `json:"mode" form:"mode"`
	Base  string `json:"base" form:"base"`
	Asset string `json:"asset" form:"asset"`
}

// Resolve validates req, falling back to the defaults for empty fields.
func (d Defaults) Resolve(req ParamsRequest) (models.Params, error) {
	mode, err := models.ParseMode(pick(req.Mode, d.Mode))
	if err != nil {
		return models.Params{}, utils.NewFieldError("mode", err)
	}
	base, err := logscale.Parse(pick(req.Base, d.Base))
	if err != nil {
		return models.Params{}, utils.NewFieldError("base", err)
	}
	return models.Params{
		Mode:  mode,
		Base:  base,
		Asset: strings.ToLower(strings.TrimSpace(pick(req.Asset, d.Asset))),
	}, nil
}

func pick(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// StatusFor maps a pipeline error onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case utils.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, series.ErrNoData), errors.Is(err, powerlaw.ErrInsufficientData), errors.Is(err, powerlaw.ErrDegenerateSeries):
		return http.StatusUnprocessableEntity
	case errors.Is(err, datasource.ErrSourceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		middleware.RecordError(c, err, "overtake run failed")
	}
	c.JSON(status, gin.H{"error": services.PublicMessage(err)})
}
