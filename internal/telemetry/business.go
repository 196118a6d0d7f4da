package telemetry

import (
	"context"

	"github.com/google/uuid"
	"github.com/irfndi/powerlaw-overtake/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PipelineTracer opens spans for the stages of an overtake run.
type PipelineTracer struct {
	tracer trace.Tracer
}

// NewPipelineTracer creates a tracer bound to tp; nil uses the global provider.
func NewPipelineTracer(tp trace.TracerProvider) *PipelineTracer {
	if tp == nil {
		return &PipelineTracer{tracer: Tracer()}
	}
	return &PipelineTracer{tracer: tp.Tracer(InstrumentationName)}
}

// TraceRun starts the root span of a run.
func (pt *PipelineTracer) TraceRun(ctx context.Context, runID uuid.UUID, params models.Params) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "overtake.run", trace.WithAttributes(
		attribute.String("run.id", runID.String()),
		attribute.String("run.mode", string(params.Mode)),
		attribute.String("run.asset", params.Asset),
		attribute.String("run.base", params.Base.String()),
	))
}

// TraceFetch starts a span for loading one source file.
func (pt *PipelineTracer) TraceFetch(ctx context.Context, source string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "overtake.fetch", trace.WithAttributes(
		attribute.String("source.name", source),
	))
}

// TraceStage starts a span for a CPU-bound stage such as fit or intersect.
func (pt *PipelineTracer) TraceStage(ctx context.Context, stage string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "overtake."+stage)
}

// RecordFit adds regression results to a span.
func (pt *PipelineTracer) RecordFit(span trace.Span, fit models.FitSummary) {
	span.SetAttributes(
		attribute.String("fit.label", fit.Label),
		attribute.Float64("fit.slope", fit.Slope),
		attribute.Float64("fit.intercept", fit.Intercept),
		attribute.Float64("fit.r2", fit.R2),
		attribute.Int("fit.points", fit.Points),
	)
}

// RecordIntersection adds the crossing outcome to a span.
func (pt *PipelineTracer) RecordIntersection(span trace.Span, res models.IntersectionResult) {
	span.SetAttributes(attribute.Bool("intersection.found", res.Found))
	if res.Found {
		span.SetAttributes(attribute.Int("intersection.day_offset", res.DayOffset))
	}
}

// RecordError marks the span failed.
func (pt *PipelineTracer) RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
