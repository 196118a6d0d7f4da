package models

import (
	"math"
	"time"
)

// RawRow is one CSV record as delivered by a data source, before any parsing.
type RawRow struct {
	Start string `json:"start" db:"start"`
	Open  string `json:"open" db:"open"`
}

// ObservedPoint is a parsed observation. Value is always > 0.
type ObservedPoint struct {
	Date             time.Time `json:"date"`
	DaysSinceGenesis float64   `json:"days_since_genesis"`
	Value            float64   `json:"value"`
}

// TimeSeries is ordered ascending by Date with at most one point per calendar date.
type TimeSeries []ObservedPoint

// MinDay returns the smallest day offset in the series, or NaN when empty.
func (s TimeSeries) MinDay() float64 {
	if len(s) == 0 {
		return math.NaN()
	}
	min := s[0].DaysSinceGenesis
	for _, p := range s[1:] {
		if p.DaysSinceGenesis < min {
			min = p.DaysSinceGenesis
		}
	}
	return min
}

// MaxDay returns the largest day offset in the series, or NaN when empty.
func (s TimeSeries) MaxDay() float64 {
	if len(s) == 0 {
		return math.NaN()
	}
	max := s[0].DaysSinceGenesis
	for _, p := range s[1:] {
		if p.DaysSinceGenesis > max {
			max = p.DaysSinceGenesis
		}
	}
	return max
}

// FirstDate returns the earliest observation date.
func (s TimeSeries) FirstDate() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[0].Date
}

// LastDate returns the latest observation date.
func (s TimeSeries) LastDate() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].Date
}

// ProjectedPoint is a fitted value at an integer day offset.
type ProjectedPoint struct {
	DayOffset int     `json:"day_offset"`
	Value     float64 `json:"value"`
}

// ProjectedCurve is dense over every integer day in its range.
type ProjectedCurve []ProjectedPoint

// ReferenceCurve holds one value per integer day starting at StartDay.
type ReferenceCurve struct {
	StartDay int
	Values   []float64
}

// At returns the reference value for day, reporting false outside the covered range.
func (r ReferenceCurve) At(day int) (float64, bool) {
	i := day - r.StartDay
	if i < 0 || i >= len(r.Values) {
		return 0, false
	}
	return r.Values[i], true
}

// EndDay is the last covered day offset (StartDay-1 when empty).
func (r ReferenceCurve) EndDay() int {
	return r.StartDay + len(r.Values) - 1
}

// IntersectionResult reports the first crossing day, if any.
type IntersectionResult struct {
	Found        bool       `json:"found"`
	DayOffset    int        `json:"day_offset,omitempty"`
	CrossingDate *time.Time `json:"crossing_date,omitempty"`
	YearsFromNow *float64   `json:"years_from_now,omitempty"`
}
