package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/irfndi/powerlaw-overtake/internal/logscale"
)

// Mode selects which metric the pipeline compares.
type Mode string

const (
	ModePrices   Mode = "prices"
	ModeHashrate Mode = "hashrate"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModePrices:
		return ModePrices, nil
	case ModeHashrate:
		return ModeHashrate, nil
	default:
		return "", fmt.Errorf("unsupported mode %q", s)
	}
}

// Params is the immutable input of a single pipeline run.
type Params struct {
	Asset string        `json:"asset"`
	Base  logscale.Base `json:"base"`
	Mode  Mode          `json:"mode"`
	// Now is the reference clock for horizons and "years from now".
	Now time.Time `json:"now"`
}

// Key identifies the parameter tuple independent of the clock.
func (p Params) Key() string {
	return fmt.Sprintf("%s|%s|%s", p.Mode, p.Asset, p.Base)
}

// FitSummary describes one regression in the response.
type FitSummary struct {
	Label     string  `json:"label"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
	Points    int     `json:"points"`
}

// OvertakeResult is everything the presentation layer needs for one run.
type OvertakeResult struct {
	RunID        uuid.UUID          `json:"run_id"`
	Params       Params             `json:"params"`
	Series       []PlotSeries       `json:"series"`
	Layout       ChartLayout        `json:"layout"`
	Headline     Headline           `json:"headline"`
	Intersection IntersectionResult `json:"intersection"`
	Fits         []FitSummary       `json:"fits"`
	LastUpdated  string             `json:"last_updated"`
	EarliestData string             `json:"earliest_data"`
	GeneratedAt  time.Time          `json:"generated_at"`
}
