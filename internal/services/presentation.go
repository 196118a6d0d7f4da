package services

import (
	"fmt"
	"time"

	"github.com/irfndi/powerlaw-overtake/internal/chart"
	"github.com/irfndi/powerlaw-overtake/internal/logscale"
	"github.com/irfndi/powerlaw-overtake/internal/models"
	"github.com/irfndi/powerlaw-overtake/internal/powerlaw"
	"github.com/irfndi/powerlaw-overtake/internal/series"
	"github.com/irfndi/powerlaw-overtake/internal/supply"
)

// Chart styling and axis labels.
const (
	colorObserved   = "blue"
	colorSubjectFit = "red"
	colorReference  = "green"
	colorSmoothed   = "orange"
	dashDot         = "dot"

	tickStartYear  = 2022
	hashrateUnit   = "H/s"
	xTitlePrices   = "Days Since Kaspa Genesis"
	xTitleHashrate = "Truncated Days Since Bitcoin Genesis"
)

func parityPrice(asset Asset, at time.Time) float64 {
	return supply.ParityPrice(asset.Supply, Kaspa.Supply, at)
}

func metricLabel(mode models.Mode, unit string) string {
	if mode == models.ModePrices {
		return "Kas Price in " + chart.Upper(unit)
	}
	return "Kas Hashrate in " + chart.Upper(unit)
}

func baseLabel(b logscale.Base) string {
	return "log" + b.String()
}

func curveXY(curve models.ProjectedCurve, shift int) (xs, ys []float64) {
	xs = make([]float64, len(curve))
	ys = make([]float64, len(curve))
	for i, p := range curve {
		xs[i] = float64(p.DayOffset + shift)
		ys[i] = p.Value
	}
	return xs, ys
}

func observedXY(ts models.TimeSeries, dayOf func(models.ObservedPoint) float64) (xs, ys []float64) {
	xs = make([]float64, len(ts))
	ys = make([]float64, len(ts))
	for i, p := range ts {
		xs[i] = dayOf(p)
		ys[i] = p.Value
	}
	return xs, ys
}

func withHover(s models.PlotSeries, base logscale.Base, genesis time.Time, metric string) models.PlotSeries {
	s.HoverText = chart.HoverText(s, base, genesis, metric)
	return s
}

func (s *OvertakeService) smoothed(ts models.TimeSeries, shift float64, base logscale.Base) (models.PlotSeries, bool) {
	days, values := chart.MovingAverage(ts, s.cfg.SMAPeriod)
	if len(days) == 0 {
		return models.PlotSeries{}, false
	}
	for i := range days {
		days[i] += shift
	}
	name := fmt.Sprintf("%d-Day Moving Average", s.cfg.SMAPeriod)
	return chart.Styled(chart.Series(name, models.PlotModeLines, base, days, values), colorSmoothed, ""), true
}

func (s *OvertakeService) pricesResult(
	asset Asset,
	params models.Params,
	observed models.TimeSeries,
	model *powerlaw.Model,
	projected models.ProjectedCurve,
	reference models.ReferenceCurve,
	res models.IntersectionResult,
) *models.OvertakeResult {
	base := params.Base
	label := chart.Upper(asset.Symbol)
	metric := metricLabel(params.Mode, asset.Symbol)

	obsX, obsY := observedXY(observed, func(p models.ObservedPoint) float64 { return p.DaysSinceGenesis })
	fitX, fitY := curveXY(projected, 0)
	refX := make([]float64, len(reference.Values))
	for i := range refX {
		refX[i] = float64(reference.StartDay + i)
	}

	traces := []models.PlotSeries{
		chart.Styled(chart.Series("Open Prices", models.PlotModeLinesMarkers, base, obsX, obsY), colorObserved, ""),
		chart.Styled(chart.Series(Kaspa.Label+" Best Fit Line", models.PlotModeLines, base, fitX, fitY), colorSubjectFit, ""),
		chart.Styled(chart.Series(fmt.Sprintf("Kas Overtake %s %s", label, params.Mode), models.PlotModeLines, base, refX, reference.Values), colorReference, dashDot),
	}
	if sma, ok := s.smoothed(observed, 0, base); ok {
		traces = append(traces, sma)
	}
	for i := range traces {
		traces[i] = withHover(traces[i], base, Kaspa.Genesis, metric)
	}

	minY, maxY := chart.CurveBounds(projected)
	xAxis := chart.MonthTicks(tickStartYear, params.Now.Year()+s.cfg.HorizonYears, Kaspa.Genesis, base)
	xAxis.Title = xTitlePrices
	yAxis := chart.ValueTicks(minY, maxY, asset.Symbol, base)
	yAxis.Title = metric

	headline := chart.Intersection(models.Headline{
		Template: fmt.Sprintf("Kaspa Will Overtake %s in Market Cap around", label),
		R2:       chart.R2(model.R2),
	}, res)

	return &models.OvertakeResult{
		Series: traces,
		Layout: models.ChartLayout{
			Title: fmt.Sprintf("KAS/%s PowerLaw and Price in %s needed for Kaspa to be worth more than %s (%s scale)",
				label, label, label, baseLabel(base)),
			XAxis: xAxis,
			YAxis: yAxis,
		},
		Headline:     headline,
		Intersection: res,
		Fits:         []models.FitSummary{model.Summary(Kaspa.Label)},
		LastUpdated:  chart.DisplayDate(observed.LastDate()),
		EarliestData: chart.DisplayDate(observed.FirstDate()),
	}
}

type hashrateInputs struct {
	subject, comparison           models.TimeSeries
	subjectModel, comparisonModel *powerlaw.Model
	subjectFit, comparisonFit     models.ProjectedCurve
	// offset is the subject genesis expressed in comparison-genesis days.
	offset int
}

func (s *OvertakeService) hashrateResult(asset Asset, params models.Params, in hashrateInputs, res models.IntersectionResult) *models.OvertakeResult {
	base := params.Base
	label := chart.Upper(asset.Symbol)
	metric := metricLabel(params.Mode, hashrateUnit)
	axisGenesis := asset.Genesis

	subjX, subjY := observedXY(in.subject, func(p models.ObservedPoint) float64 {
		return float64(chart.DayOffset(p.Date, axisGenesis))
	})
	subjFitX, subjFitY := curveXY(in.subjectFit, in.offset)

	var cmpFit models.ProjectedCurve
	for _, p := range in.comparisonFit {
		if p.DayOffset >= in.offset {
			cmpFit = append(cmpFit, p)
		}
	}
	cmpFitX, cmpFitY := curveXY(cmpFit, 0)
	cmpObs := series.SinceDate(in.comparison, Kaspa.Genesis)
	cmpX, cmpY := observedXY(cmpObs, func(p models.ObservedPoint) float64 { return p.DaysSinceGenesis })

	traces := []models.PlotSeries{
		chart.Styled(chart.Series(Kaspa.Label+" Hashrate (H/s)", models.PlotModeLinesMarkers, base, subjX, subjY), colorObserved, ""),
		chart.Styled(chart.Series(Kaspa.Label+" Best Fit Line", models.PlotModeLines, base, subjFitX, subjFitY), colorSubjectFit, ""),
		chart.Styled(chart.Series(asset.Label+" Best Fit Line", models.PlotModeLinesMarkers, base, cmpFitX, cmpFitY), colorReference, ""),
		chart.Styled(chart.Series(asset.Label+" Hashrate (H/s)", models.PlotModeLines, base, cmpX, cmpY), colorReference, dashDot),
	}
	if sma, ok := s.smoothed(in.subject, float64(in.offset), base); ok {
		traces = append(traces, sma)
	}
	for i := range traces {
		traces[i] = withHover(traces[i], base, axisGenesis, metric)
	}

	minY, maxY := chart.CurveBounds(in.subjectFit, in.comparisonFit)
	xAxis := chart.MonthTicks(tickStartYear, params.Now.Year()+s.cfg.HorizonYears, axisGenesis, base)
	xAxis.Title = xTitleHashrate
	yAxis := chart.ValueTicks(minY, maxY, hashrateUnit, base)
	yAxis.Title = metricLabel(params.Mode, asset.Symbol)

	earliest := chart.DisplayDate(in.subject.FirstDate())
	headline := chart.Intersection(models.Headline{
		Template: fmt.Sprintf("Kaspa Will Overtake %s in Hashrate around", label),
		R2:       chart.R2Pair(Kaspa.Label, in.subjectModel.R2, asset.Label, in.comparisonModel.R2),
		Warning: fmt.Sprintf("We only have kaspa hashrate data starting from %s. "+
			"More time is needed for this estimate to have enough data", earliest),
	}, res)

	return &models.OvertakeResult{
		Series: traces,
		Layout: models.ChartLayout{
			Title: fmt.Sprintf("KAS and %s PowerLaw and Hashrate, and timeline to intersect using log %s.",
				label, base.String()),
			XAxis: xAxis,
			YAxis: yAxis,
		},
		Headline:     headline,
		Intersection: res,
		Fits: []models.FitSummary{
			in.subjectModel.Summary(Kaspa.Label),
			in.comparisonModel.Summary(asset.Label),
		},
		LastUpdated:  chart.DisplayDate(in.subject.LastDate()),
		EarliestData: earliest,
	}
}
