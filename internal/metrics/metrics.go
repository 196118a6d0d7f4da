package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the overtake service.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal        *prometheus.CounterVec   // labels: mode, outcome
	StaleRunsTotal   prometheus.Counter       // results discarded by the run tracker
	StageDuration    *prometheus.HistogramVec // labels: stage
	FetchErrorsTotal *prometheus.CounterVec   // labels: source
	RowsLoaded       *prometheus.GaugeVec     // labels: source
	CrossingDays     *prometheus.GaugeVec     // labels: mode, asset
	FitR2            *prometheus.GaugeVec     // labels: mode, series
	HTTPRequests     *prometheus.CounterVec   // labels: method, route, status
}

// Run outcomes.
const (
	OutcomeCrossing    = "crossing"
	OutcomeNoCrossing  = "no_crossing"
	OutcomeNoData      = "no_data"
	OutcomeUnavailable = "source_unavailable"
	OutcomeError       = "error"
)

// NewMetrics registers and returns all metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "overtake_runs_total",
			Help: "Pipeline runs by mode and outcome",
		}, []string{"mode", "outcome"}),
		StaleRunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "overtake_stale_runs_total",
			Help: "Completed runs discarded because newer parameters superseded them",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "overtake_stage_duration_seconds",
			Help:    "Latency of pipeline stages",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"stage"}),
		FetchErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "overtake_fetch_errors_total",
			Help: "Failed source fetches",
		}, []string{"source"}),
		RowsLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "overtake_rows_loaded",
			Help: "Rows returned by the most recent fetch of each source",
		}, []string{"source"}),
		CrossingDays: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "overtake_crossing_day_offset",
			Help: "Day offset of the most recent crossing estimate (-1 when none)",
		}, []string{"mode", "asset"}),
		FitR2: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "overtake_fit_r2",
			Help: "Coefficient of determination of the most recent fit",
		}, []string{"mode", "series"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "overtake_http_requests_total",
			Help: "HTTP requests served",
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RunsTotal,
		m.StaleRunsTotal,
		m.StageDuration,
		m.FetchErrorsTotal,
		m.RowsLoaded,
		m.CrossingDays,
		m.FitR2,
		m.HTTPRequests,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveStage records how long a stage took since start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
