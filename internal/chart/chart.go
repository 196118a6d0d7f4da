// Package chart turns pipeline output into log-scaled plot series and the labels that go
// with them.
package chart

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/irfndi/powerlaw-overtake/internal/logscale"
	"github.com/irfndi/powerlaw-overtake/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const day = 24 * time.Hour

var upper = cases.Upper(language.English)

// Upper upper-cases asset symbols and units for display ("btc" -> "BTC", "H/s" -> "H/S").
func Upper(s string) string {
	return upper.String(s)
}

// Series builds a trace from linear-space coordinates, dropping any point whose log
// transform is not finite.
func Series(name, mode string, base logscale.Base, xs, ys []float64) models.PlotSeries {
	s := models.PlotSeries{
		Name: name,
		Mode: mode,
		X:    make([]float64, 0, len(xs)),
		Y:    make([]float64, 0, len(ys)),
	}
	for i := range xs {
		if i >= len(ys) {
			break
		}
		lx, ly := base.Log(xs[i]), base.Log(ys[i])
		if !finite(lx) || !finite(ly) {
			continue
		}
		s.X = append(s.X, lx)
		s.Y = append(s.Y, ly)
	}
	return s
}

// Styled sets presentation hints on a trace.
func Styled(s models.PlotSeries, color, dash string) models.PlotSeries {
	s.Color = color
	s.Dash = dash
	return s
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// DayOffset converts a date into whole days since genesis (floored).
func DayOffset(date, genesis time.Time) int {
	return int(math.Floor(float64(date.Sub(genesis)) / float64(day)))
}

// dayEpsilon absorbs the error of a log/pow round trip so 29.999999999999996 still lands
// on day 30.
const dayEpsilon = 1e-6

// DateAt converts a (possibly fractional) day offset back into a date, flooring to whole
// days.
func DateAt(dayOffset float64, genesis time.Time) time.Time {
	return genesis.Add(time.Duration(math.Floor(dayOffset+dayEpsilon)) * day)
}

// MonthTicks places a tick on 1 January and 1 July of every year in [startYear, endYear].
// Tick values are log-scaled day offsets from the axis genesis.
func MonthTicks(startYear, endYear int, genesis time.Time, base logscale.Base) models.Axis {
	axis := models.Axis{TickVals: []float64{}, TickText: []string{}}
	for year := startYear; year <= endYear; year++ {
		for _, month := range []time.Month{time.January, time.July} {
			date := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
			v := base.Log(float64(DayOffset(date, genesis)))
			if !finite(v) {
				continue
			}
			axis.TickVals = append(axis.TickVals, v)
			axis.TickText = append(axis.TickText, date.Format("Jan 2006"))
		}
	}
	return axis
}

// ValueTicks places a tick on every power of ten covering [minY, maxY].
func ValueTicks(minY, maxY float64, unit string, base logscale.Base) models.Axis {
	axis := models.Axis{TickVals: []float64{}, TickText: []string{}}
	if !(minY > 0) || !(maxY > 0) || !finite(minY) || !finite(maxY) {
		return axis
	}
	minPower := int(math.Floor(math.Log10(minY)))
	maxPower := int(math.Ceil(math.Log10(maxY)))
	label := Upper(unit)
	for p := minPower; p <= maxPower; p++ {
		v := math.Pow(10, float64(p))
		axis.TickVals = append(axis.TickVals, base.Log(v))
		axis.TickText = append(axis.TickText, Exponential(v, 0)+" "+label)
	}
	return axis
}

// Exponential formats v in exponent notation without zero-padding the exponent,
// e.g. 1e-5, 1.23e+18.
func Exponential(v float64, digits int) string {
	s := strconv.FormatFloat(v, 'e', digits, 64)
	i := strings.IndexByte(s, 'e')
	if i < 0 || i+2 > len(s) {
		return s
	}
	exp := strings.TrimLeft(s[i+2:], "0")
	if exp == "" {
		exp = "0"
	}
	return s[:i+2] + exp
}

// HoverText renders one label per point of a log-scaled trace.
func HoverText(s models.PlotSeries, base logscale.Base, genesis time.Time, metric string) []string {
	out := make([]string, len(s.Y))
	for i := range s.Y {
		date := DateAt(base.Pow(s.X[i]), genesis).Format("Jan 2, 2006")
		out[i] = "Date: " + date + "<br>" + metric + ": " + Exponential(base.Pow(s.Y[i]), 2)
	}
	return out
}

// CurveBounds returns the min and max value across curves.
func CurveBounds(curves ...models.ProjectedCurve) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, c := range curves {
		for _, p := range c {
			if !finite(p.Value) {
				continue
			}
			min = math.Min(min, p.Value)
			max = math.Max(max, p.Value)
		}
	}
	return min, max
}

// DisplayDate formats a date the way the dashboard shows "last updated".
func DisplayDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("1/2/2006")
}
