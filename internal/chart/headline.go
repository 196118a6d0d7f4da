package chart

import (
	"fmt"

	"github.com/irfndi/powerlaw-overtake/internal/models"
	"github.com/shopspring/decimal"
)

// NoIntersectionText is shown when the scan finds no crossing inside the horizon.
const NoIntersectionText = "No intersection found within the available data range."

// Intersection fills the date/duration part of a headline.
func Intersection(h models.Headline, res models.IntersectionResult) models.Headline {
	if !res.Found || res.CrossingDate == nil || res.YearsFromNow == nil {
		h.Date = NoIntersectionText
		h.Duration = ""
		h.Text = NoIntersectionText
		return h
	}
	h.Date = res.CrossingDate.Format("January 2006")
	h.Duration = yearsText(*res.YearsFromNow)
	h.Text = h.Date + ", " + h.Duration
	return h
}

// yearsText renders the crossing distance to one decimal. Past crossings read "ago" and
// distances that round to zero never print a signed zero.
func yearsText(years float64) string {
	rounded := decimal.NewFromFloat(years).Round(1)
	switch {
	case rounded.IsZero():
		return "less than 0.1 years away"
	case rounded.IsNegative():
		return rounded.Abs().StringFixed(1) + " years ago"
	default:
		return rounded.StringFixed(1) + " years from now"
	}
}

// R2 renders a single goodness-of-fit figure.
func R2(r2 float64) string {
	return "R²: " + fixed2(r2)
}

// R2Pair renders both fits in hashrate mode.
func R2Pair(subjectLabel string, subject float64, comparisonLabel string, comparison float64) string {
	return fmt.Sprintf("R²: %s %s, %s %s", subjectLabel, fixed2(subject), comparisonLabel, fixed2(comparison))
}

func fixed2(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
