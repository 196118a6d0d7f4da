// Package series turns raw historical and live rows into a clean, date-deduplicated
// TimeSeries.
package series

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/irfndi/powerlaw-overtake/internal/models"
)

// ErrNoData is returned by callers when a merged series ends up empty.
var ErrNoData = errors.New("no valid data")

const day = 24 * time.Hour

// DateKeyLayout is the calendar-date granularity rows are deduplicated on.
const DateKeyLayout = "2006-01-02"

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006/01/02",
	"1/2/2006",
}

// ParseDate parses the date formats found in the exported CSV files. Values without a
// zone are interpreted as UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// DaysBetween returns the fractional number of days from genesis to t.
func DaysBetween(genesis, t time.Time) float64 {
	return float64(t.Sub(genesis)) / float64(day)
}

// Parse converts rows into observations, silently dropping rows whose date or value
// cannot be used. Order is preserved.
func Parse(rows []models.RawRow, genesis time.Time) []models.ObservedPoint {
	points := make([]models.ObservedPoint, 0, len(rows))
	for _, row := range rows {
		date, err := ParseDate(row.Start)
		if err != nil {
			continue
		}
		days := DaysBetween(genesis, date)
		if math.IsNaN(days) {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(row.Open), 64)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
			continue
		}
		points = append(points, models.ObservedPoint{
			Date:             date,
			DaysSinceGenesis: days,
			Value:            value,
		})
	}
	return points
}

// Load merges historical and live rows. A calendar date present in both keeps the
// historical point. Within the historical rows the last row for a date wins; within the
// live rows the first one does. The result is sorted ascending by date.
func Load(historical, live []models.RawRow, genesis time.Time) models.TimeSeries {
	byDate := make(map[string]models.ObservedPoint)

	for _, p := range Parse(historical, genesis) {
		byDate[p.Date.Format(DateKeyLayout)] = p
	}
	for _, p := range Parse(live, genesis) {
		key := p.Date.Format(DateKeyLayout)
		if _, exists := byDate[key]; !exists {
			byDate[key] = p
		}
	}

	merged := make(models.TimeSeries, 0, len(byDate))
	for _, p := range byDate {
		merged = append(merged, p)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})
	return merged
}

// SinceDate returns the points observed on or after from.
func SinceDate(s models.TimeSeries, from time.Time) models.TimeSeries {
	idx := sort.Search(len(s), func(i int) bool {
		return !s[i].Date.Before(from)
	})
	return s[idx:]
}
