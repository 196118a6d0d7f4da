package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/irfndi/powerlaw-overtake/internal/config"
	"github.com/irfndi/powerlaw-overtake/internal/crossing"
	"github.com/irfndi/powerlaw-overtake/internal/datasource"
	"github.com/irfndi/powerlaw-overtake/internal/metrics"
	"github.com/irfndi/powerlaw-overtake/internal/models"
	"github.com/irfndi/powerlaw-overtake/internal/powerlaw"
	"github.com/irfndi/powerlaw-overtake/internal/series"
	"github.com/irfndi/powerlaw-overtake/internal/telemetry"
	"github.com/irfndi/powerlaw-overtake/internal/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// HorizonDaysPerYear is the year length used to extend projections. It differs from the
// 365.25-day year used for "years from now".
const HorizonDaysPerYear = 360

// OvertakeConfig tunes a pipeline run.
type OvertakeConfig struct {
	HorizonYears int
	// SMAPeriod adds a moving-average overlay when >= 2.
	SMAPeriod int
	Files     config.DataConfig
}

// OvertakeService runs the fetch, fit, project, intersect and chart pipeline.
type OvertakeService struct {
	source  datasource.Source
	assets  AssetRegistry
	cfg     OvertakeConfig
	logger  *logrus.Logger
	metrics *metrics.Metrics
	tracer  *telemetry.PipelineTracer
	now     func() time.Time
	newID   func() uuid.UUID
}

// NewOvertakeService wires the pipeline. metrics and tracer may be nil.
func NewOvertakeService(
	source datasource.Source,
	assets AssetRegistry,
	cfg OvertakeConfig,
	logger *logrus.Logger,
	m *metrics.Metrics,
	tracer *telemetry.PipelineTracer,
) *OvertakeService {
	if tracer == nil {
		tracer = telemetry.NewPipelineTracer(nil)
	}
	if cfg.HorizonYears <= 0 {
		cfg.HorizonYears = 12
	}
	return &OvertakeService{
		source:  source,
		assets:  assets,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		tracer:  tracer,
		now:     time.Now,
		newID:   uuid.New,
	}
}

// Run executes one pipeline run for params. A zero Params.Now is replaced by the service
// clock. A run with no crossing is a successful result with Intersection.Found false.
func (s *OvertakeService) Run(ctx context.Context, params models.Params) (*models.OvertakeResult, error) {
	asset, err := s.assets.Lookup(params.Asset)
	if err != nil {
		return nil, err
	}
	mode, err := models.ParseMode(string(params.Mode))
	if err != nil {
		return nil, utils.NewFieldError("mode", err)
	}
	params.Mode = mode
	params.Asset = asset.Symbol
	if params.Now.IsZero() {
		params.Now = s.now()
	}
	params.Now = params.Now.UTC()

	runID := s.newID()
	ctx, span := s.tracer.TraceRun(ctx, runID, params)
	defer span.End()

	log := s.logger.WithFields(logrus.Fields{
		"run_id": runID.String(),
		"mode":   params.Mode,
		"asset":  params.Asset,
		"base":   params.Base.String(),
	})
	start := time.Now()

	var result *models.OvertakeResult
	switch params.Mode {
	case models.ModePrices:
		result, err = s.runPrices(ctx, asset, params)
	case models.ModeHashrate:
		result, err = s.runHashrate(ctx, asset, params)
	default:
		err = utils.NewFieldError("mode", fmt.Errorf("unsupported mode %q", params.Mode))
	}
	if s.metrics != nil {
		s.metrics.ObserveStage("run", start)
		s.metrics.RunsTotal.WithLabelValues(string(params.Mode), outcome(result, err)).Inc()
	}
	if err != nil {
		s.tracer.RecordError(span, err)
		log.WithError(err).Warn("Overtake run failed")
		return nil, err
	}

	result.RunID = runID
	result.Params = params
	result.GeneratedAt = s.now().UTC()
	s.tracer.RecordIntersection(span, result.Intersection)
	if s.metrics != nil {
		day := -1.0
		if result.Intersection.Found {
			day = float64(result.Intersection.DayOffset)
		}
		s.metrics.CrossingDays.WithLabelValues(string(params.Mode), params.Asset).Set(day)
	}

	log.WithFields(logrus.Fields{
		"found":       result.Intersection.Found,
		"headline":    result.Headline.Text,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Overtake run completed")
	return result, nil
}

func outcome(result *models.OvertakeResult, err error) string {
	switch {
	case errors.Is(err, datasource.ErrSourceUnavailable):
		return metrics.OutcomeUnavailable
	case errors.Is(err, series.ErrNoData), errors.Is(err, powerlaw.ErrInsufficientData):
		return metrics.OutcomeNoData
	case err != nil:
		return metrics.OutcomeError
	case result.Intersection.Found:
		return metrics.OutcomeCrossing
	default:
		return metrics.OutcomeNoCrossing
	}
}

// fetchAll loads every named source concurrently. Each goroutine writes only its own slot.
func (s *OvertakeService) fetchAll(ctx context.Context, names ...string) ([][]models.RawRow, error) {
	out := make([][]models.RawRow, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			rows, err := s.fetch(gctx, name)
			if err != nil {
				return err
			}
			out[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *OvertakeService) fetch(ctx context.Context, name string) ([]models.RawRow, error) {
	ctx, span := s.tracer.TraceFetch(ctx, name)
	defer span.End()
	start := time.Now()

	rows, err := s.source.Rows(ctx, name)
	if s.metrics != nil {
		s.metrics.ObserveStage("fetch", start)
	}
	if err != nil {
		s.tracer.RecordError(span, err)
		if s.metrics != nil {
			s.metrics.FetchErrorsTotal.WithLabelValues(name).Inc()
		}
		s.logger.WithError(err).WithField("source", name).Error("Failed to fetch series")
		if !errors.Is(err, datasource.ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %s: %v", datasource.ErrSourceUnavailable, name, err)
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RowsLoaded.WithLabelValues(name).Set(float64(len(rows)))
	}
	return rows, nil
}

func (s *OvertakeService) fit(ctx context.Context, label string, ts models.TimeSeries, params models.Params) (*powerlaw.Model, error) {
	_, span := s.tracer.TraceStage(ctx, "fit")
	defer span.End()
	start := time.Now()

	model, err := powerlaw.Fit(ts, params.Base)
	if s.metrics != nil {
		s.metrics.ObserveStage("fit", start)
	}
	if err != nil {
		s.tracer.RecordError(span, err)
		return nil, fmt.Errorf("%s fit: %w", label, err)
	}

	summary := model.Summary(label)
	s.tracer.RecordFit(span, summary)
	if s.metrics != nil {
		s.metrics.FitR2.WithLabelValues(string(params.Mode), label).Set(model.R2)
	}
	return model, nil
}

func (s *OvertakeService) intersect(ctx context.Context, model *powerlaw.Model, ref models.ReferenceCurve, minDay, maxDay int, now time.Time) models.IntersectionResult {
	_, span := s.tracer.TraceStage(ctx, "intersect")
	defer span.End()
	start := time.Now()

	res := crossing.Find(model, ref, minDay, maxDay, Kaspa.Genesis, now)
	if s.metrics != nil {
		s.metrics.ObserveStage("intersect", start)
	}
	s.tracer.RecordIntersection(span, res)
	return res
}

func (s *OvertakeService) horizonDays() int {
	return s.cfg.HorizonYears * HorizonDaysPerYear
}

// dayBounds applies the rounding rule: every fractional day offset is floored and the
// first projected day is never below 1.
func dayBounds(ts models.TimeSeries) (minDay, maxObserved int) {
	minDay = int(math.Floor(ts.MinDay()))
	if minDay < 1 {
		minDay = 1
	}
	return minDay, int(math.Floor(ts.MaxDay()))
}

func (s *OvertakeService) runPrices(ctx context.Context, asset Asset, params models.Params) (*models.OvertakeResult, error) {
	rows, err := s.fetchAll(ctx,
		fmt.Sprintf(s.cfg.Files.PricesHistorical, asset.Symbol),
		fmt.Sprintf(s.cfg.Files.PricesLive, asset.Symbol),
	)
	if err != nil {
		return nil, err
	}

	observed := series.Load(rows[0], rows[1], Kaspa.Genesis)
	if len(observed) == 0 {
		return nil, fmt.Errorf("%w: %s prices", series.ErrNoData, asset.Symbol)
	}

	model, err := s.fit(ctx, Kaspa.Label, observed, params)
	if err != nil {
		return nil, err
	}

	minDay, maxObserved := dayBounds(observed)
	maxDay := maxObserved + s.horizonDays()
	projected := model.Project(minDay, maxDay)
	reference := parityCurve(asset, maxDay)

	res := s.intersect(ctx, model, reference, minDay, maxDay, params.Now)

	return s.pricesResult(asset, params, observed, model, projected, reference, res), nil
}

// parityCurve is the price at which the subject's market cap equals the asset's, for
// every day 0..maxDay since the subject's genesis.
func parityCurve(asset Asset, maxDay int) models.ReferenceCurve {
	values := make([]float64, maxDay+1)
	for d := range values {
		at := Kaspa.Genesis.Add(time.Duration(d) * 24 * time.Hour)
		values[d] = parityPrice(asset, at)
	}
	return models.ReferenceCurve{StartDay: 0, Values: values}
}

func (s *OvertakeService) runHashrate(ctx context.Context, asset Asset, params models.Params) (*models.OvertakeResult, error) {
	rows, err := s.fetchAll(ctx,
		fmt.Sprintf(s.cfg.Files.HashrateHistorical, Kaspa.HashrateName),
		fmt.Sprintf(s.cfg.Files.HashrateLive, Kaspa.HashrateName),
		fmt.Sprintf(s.cfg.Files.HashrateHistorical, asset.HashrateName),
		fmt.Sprintf(s.cfg.Files.HashrateLive, asset.HashrateName),
	)
	if err != nil {
		return nil, err
	}

	subject := series.Load(rows[0], rows[1], Kaspa.Genesis)
	comparison := series.Load(rows[2], rows[3], asset.Genesis)
	if len(subject) == 0 {
		return nil, fmt.Errorf("%w: %s hashrate", series.ErrNoData, Kaspa.Symbol)
	}
	if len(comparison) == 0 {
		return nil, fmt.Errorf("%w: %s hashrate", series.ErrNoData, asset.Symbol)
	}

	subjectModel, err := s.fit(ctx, Kaspa.Label, subject, params)
	if err != nil {
		return nil, err
	}
	comparisonModel, err := s.fit(ctx, asset.Label, comparison, params)
	if err != nil {
		return nil, err
	}

	minDay, _ := dayBounds(subject)
	maxDay := daysUntil(Kaspa.Genesis, params.Now) + s.horizonDays()
	minDayCmp, _ := dayBounds(comparison)
	maxDayCmp := daysUntil(asset.Genesis, params.Now) + s.horizonDays()

	subjectFit := subjectModel.Project(minDay, maxDay)
	comparisonFit := comparisonModel.Project(minDayCmp, maxDayCmp)

	offset := daysUntil(asset.Genesis, Kaspa.Genesis)
	reference := reindex(comparisonFit, offset)

	res := s.intersect(ctx, subjectModel, reference, minDay, maxDay, params.Now)

	return s.hashrateResult(asset, params, hashrateInputs{
		subject:         subject,
		comparison:      comparison,
		subjectModel:    subjectModel,
		comparisonModel: comparisonModel,
		subjectFit:      subjectFit,
		comparisonFit:   comparisonFit,
		offset:          offset,
	}, res), nil
}

// daysUntil counts whole days from genesis to t, floored.
func daysUntil(genesis, t time.Time) int {
	return int(math.Floor(float64(t.Sub(genesis)) / float64(24*time.Hour)))
}

// reindex shifts a projected curve so day offset maps to 0, dropping earlier days.
func reindex(curve models.ProjectedCurve, offset int) models.ReferenceCurve {
	ref := models.ReferenceCurve{}
	for _, p := range curve {
		if p.DayOffset < offset {
			continue
		}
		if len(ref.Values) == 0 {
			ref.StartDay = p.DayOffset - offset
		}
		ref.Values = append(ref.Values, p.Value)
	}
	return ref
}
