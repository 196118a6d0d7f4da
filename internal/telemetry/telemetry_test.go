package telemetry

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/irfndi/powerlaw-overtake/internal/config"
	"github.com/irfndi/powerlaw-overtake/internal/logscale"
	"github.com/irfndi/powerlaw-overtake/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInit_Disabled(t *testing.T) {
	p, err := Init(context.Background(), config.TelemetryConfig{Enabled: false}, "test")
	require.NoError(t, err)
	assert.NotNil(t, p.TracerProvider())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestInit_StdoutExporter(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.TelemetryConfig{
		Enabled:        true,
		Exporter:       config.ExporterStdout,
		ServiceName:    "powerlaw-overtake",
		ServiceVersion: "test",
	}

	p, err := initWithWriter(context.Background(), cfg, "test", &buf)
	require.NoError(t, err)

	_, span := Tracer().Start(context.Background(), "probe")
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), "probe")
	assert.Contains(t, buf.String(), "powerlaw-overtake")
}

func TestInit_UnknownExporter(t *testing.T) {
	_, err := Init(context.Background(), config.TelemetryConfig{Enabled: true, Exporter: "zipkin"}, "test")
	assert.Error(t, err)
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestPipelineTracer(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	pt := NewPipelineTracer(tp)

	runID := uuid.New()
	params := models.Params{Asset: "btc", Base: logscale.Base10, Mode: models.ModePrices}

	ctx, run := pt.TraceRun(context.Background(), runID, params)
	_, fetch := pt.TraceFetch(ctx, "kaspa_prices_btc_api.csv")
	pt.RecordError(fetch, errors.New("offline"))
	fetch.End()

	_, fit := pt.TraceStage(ctx, "fit")
	pt.RecordFit(fit, models.FitSummary{Label: "Kaspa", Slope: 2, R2: 0.9, Points: 10})
	fit.End()

	_, cross := pt.TraceStage(ctx, "intersect")
	pt.RecordIntersection(cross, models.IntersectionResult{Found: true, DayOffset: 4000})
	cross.End()
	run.End()

	spans := recorder.Ended()
	require.Len(t, spans, 4)

	assert.Equal(t, "overtake.fetch", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	assert.Equal(t, "overtake.fit", spans[1].Name())
	assert.Equal(t, 0.9, attrs(spans[1])["fit.r2"].AsFloat64())

	assert.Equal(t, int64(4000), attrs(spans[2])["intersection.day_offset"].AsInt64())

	root := spans[3]
	assert.Equal(t, "overtake.run", root.Name())
	assert.Equal(t, runID.String(), attrs(root)["run.id"].AsString())
	assert.Equal(t, "10", attrs(root)["run.base"].AsString())
	assert.Equal(t, root.SpanContext().TraceID(), spans[0].SpanContext().TraceID())
}
