// Package crossing finds the first day a projected curve reaches a reference curve.
package crossing

import (
	"time"

	"github.com/irfndi/powerlaw-overtake/internal/models"
)

// DaysPerYear converts the crossing distance into years. Horizons are extended in
// 360-day years elsewhere; this figure is deliberately the calendar average.
const DaysPerYear = 365.25

const day = 24 * time.Hour

// Predictor is satisfied by a fitted power-law model.
type Predictor interface {
	Predict(day float64) float64
}

// Find walks minDay..maxDay one day at a time and stops at the first day where the
// reference value is at or below the prediction. Days the reference does not cover
// never match.
func Find(model Predictor, reference models.ReferenceCurve, minDay, maxDay int, genesis, now time.Time) models.IntersectionResult {
	for d := minDay; d <= maxDay; d++ {
		ref, ok := reference.At(d)
		if !ok {
			continue
		}
		if ref <= model.Predict(float64(d)) {
			return Result(d, genesis, now)
		}
	}
	return models.IntersectionResult{Found: false}
}

// Result converts a crossing day offset into a dated result.
func Result(dayOffset int, genesis, now time.Time) models.IntersectionResult {
	date := genesis.Add(time.Duration(dayOffset) * day)
	years := float64(date.Sub(now)) / float64(day) / DaysPerYear
	return models.IntersectionResult{
		Found:        true,
		DayOffset:    dayOffset,
		CrossingDate: &date,
		YearsFromNow: &years,
	}
}
