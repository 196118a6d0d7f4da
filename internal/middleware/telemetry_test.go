package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/powerlaw-overtake/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestRouter(t *testing.T, m *metrics.Metrics, logOut *bytes.Buffer) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	logger := logrus.New()
	logger.SetOutput(logOut)
	logger.SetFormatter(&logrus.JSONFormatter{})

	router := gin.New()
	router.Use(otelgin.Middleware("test", otelgin.WithTracerProvider(tp)))
	router.Use(RequestTelemetry(m, logger))
	router.GET("/api/v1/items/:id", func(c *gin.Context) {
		AddSpanAttribute(c, "item.id", c.Param("id"))
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	router.GET("/boom", func(c *gin.Context) {
		RecordError(c, errors.New("exploded"), "handler failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router, recorder
}

func TestRequestTelemetry(t *testing.T) {
	t.Run("counts by route template", func(t *testing.T) {
		m := metrics.NewMetrics()
		var logs bytes.Buffer
		router, recorder := newTestRouter(t, m, &logs)

		for _, id := range []string{"1", "2"} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/items/"+id, nil))
			assert.Equal(t, http.StatusOK, w.Code)
		}

		assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/v1/items/:id", "200")))
		assert.Contains(t, logs.String(), "/api/v1/items/:id")

		spans := recorder.Ended()
		require.Len(t, spans, 2)
		found := false
		for _, kv := range spans[0].Attributes() {
			if kv.Key == "item.id" {
				found = true
				assert.Equal(t, "1", kv.Value.AsString())
			}
		}
		assert.True(t, found)
	})

	t.Run("server errors mark the span", func(t *testing.T) {
		m := metrics.NewMetrics()
		var logs bytes.Buffer
		router, recorder := newTestRouter(t, m, &logs)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
		require.NotEmpty(t, spans[0].Events())
		assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/boom", "500")))
		assert.Contains(t, logs.String(), "warning")
	})

	t.Run("health is counted but not logged", func(t *testing.T) {
		m := metrics.NewMetrics()
		var logs bytes.Buffer
		router, _ := newTestRouter(t, m, &logs)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, logs.String())
		assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/health", "200")))
	})

	t.Run("unmatched routes share a label", func(t *testing.T) {
		m := metrics.NewMetrics()
		var logs bytes.Buffer
		router, _ := newTestRouter(t, m, &logs)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
	})
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS([]string{"http://localhost:3000"}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantAllow  string
	}{
		{"allowed origin", http.MethodGet, "http://localhost:3000", http.StatusOK, "http://localhost:3000"},
		{"foreign origin", http.MethodGet, "http://evil.example", http.StatusOK, ""},
		{"preflight", http.MethodOptions, "http://localhost:3000", http.StatusNoContent, "http://localhost:3000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/x", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantAllow, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
