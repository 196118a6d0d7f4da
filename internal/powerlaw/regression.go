// Package powerlaw fits value ≈ a·day^b by ordinary least squares in log-log space.
package powerlaw

import (
	"errors"
	"fmt"
	"math"

	"github.com/irfndi/powerlaw-overtake/internal/logscale"
	"github.com/irfndi/powerlaw-overtake/internal/models"
)

// ErrInsufficientData is returned when fewer than two usable points remain.
var ErrInsufficientData = errors.New("insufficient data")

// ErrDegenerateSeries is returned when every usable point sits on the same day.
var ErrDegenerateSeries = fmt.Errorf("%w: all points share one day offset", ErrInsufficientData)

// Model is a line in log space: log_b(value) = Slope·log_b(day) + Intercept.
type Model struct {
	Base      logscale.Base
	Slope     float64
	Intercept float64
	R2        float64
	// N is the number of points the fit used.
	N int
}

// Fit regresses log(value) on log(day). Points with a non-positive day offset are not
// usable since their logarithm is undefined.
func Fit(series models.TimeSeries, base logscale.Base) (*Model, error) {
	xs := make([]float64, 0, len(series))
	ys := make([]float64, 0, len(series))
	for _, p := range series {
		if p.DaysSinceGenesis <= 0 || p.Value <= 0 {
			continue
		}
		xs = append(xs, base.Log(p.DaysSinceGenesis))
		ys = append(ys, base.Log(p.Value))
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("%w: %d usable points", ErrInsufficientData, len(xs))
	}

	slope, intercept, r2, err := leastSquares(xs, ys)
	if err != nil {
		return nil, err
	}
	return &Model{
		Base:      base,
		Slope:     slope,
		Intercept: intercept,
		R2:        r2,
		N:         len(xs),
	}, nil
}

func leastSquares(xs, ys []float64) (slope, intercept, r2 float64, err error) {
	n := float64(len(xs))
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / n
	meanY := sumY / n

	var sxx, sxy, syy float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}
	if sxx == 0 {
		return 0, 0, 0, ErrDegenerateSeries
	}

	slope = sxy / sxx
	intercept = meanY - slope*meanX

	var ssRes float64
	for i := range xs {
		r := ys[i] - (slope*xs[i] + intercept)
		ssRes += r * r
	}
	r2 = 1.0
	if syy > 0 {
		r2 = 1 - ssRes/syy
	}
	return slope, intercept, clamp01(r2), nil
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// LogPredict evaluates the line at log_b(day).
func (m *Model) LogPredict(day float64) float64 {
	return m.Slope*m.Base.Log(day) + m.Intercept
}

// Predict maps a day offset to the projected value. day must be > 0.
func (m *Model) Predict(day float64) float64 {
	return m.Base.Pow(m.LogPredict(day))
}

// Project evaluates Predict at every integer day in [minDay, maxDay].
func (m *Model) Project(minDay, maxDay int) models.ProjectedCurve {
	if maxDay < minDay {
		return models.ProjectedCurve{}
	}
	curve := make(models.ProjectedCurve, 0, maxDay-minDay+1)
	for d := minDay; d <= maxDay; d++ {
		curve = append(curve, models.ProjectedPoint{
			DayOffset: d,
			Value:     m.Predict(float64(d)),
		})
	}
	return curve
}

// Summary renders the model for API responses.
func (m *Model) Summary(label string) models.FitSummary {
	return models.FitSummary{
		Label:     label,
		Slope:     m.Slope,
		Intercept: m.Intercept,
		R2:        m.R2,
		Points:    m.N,
	}
}
