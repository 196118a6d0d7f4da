package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/irfndi/powerlaw-overtake/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// HTTPSource fetches CSV files from <BaseURL>/<name>. Concurrent requests for the same
// name share one upstream call.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	breaker *Breaker
	logger  *logrus.Logger
	group   singleflight.Group
}

// NewHTTPSource creates an HTTP-backed source guarded by a circuit breaker.
func NewHTTPSource(baseURL string, timeout time.Duration, logger *logrus.Logger) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		breaker: NewBreaker("http_source", BreakerConfig{}, logger),
		logger:  logger,
	}
}

// Rows returns the parsed rows of name. The shared upstream call is detached from any
// single caller's cancellation and bounded by the client timeout; each caller still
// returns as soon as its own ctx is done.
func (s *HTTPSource) Rows(ctx context.Context, name string) ([]models.RawRow, error) {
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(name, func() (interface{}, error) {
		var rows []models.RawRow
		err := s.breaker.Execute(fetchCtx, func(ctx context.Context) error {
			var err error
			rows, err = s.fetch(ctx, name)
			return err
		})
		return rows, err
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, unavailable(name, ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, unavailable(name, res.Err)
	}

	rows := res.Val.([]models.RawRow)
	if res.Shared {
		// Shared results are copied per caller.
		rows = append([]models.RawRow(nil), rows...)
	}
	return rows, nil
}

func (s *HTTPSource) fetch(ctx context.Context, name string) ([]models.RawRow, error) {
	endpoint := s.baseURL + "/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	s.logger.WithFields(logrus.Fields{
		"url":         endpoint,
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Fetched series file")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return ParseCSV(resp.Body)
}

// HealthCheck fails while the upstream breaker is open.
func (s *HTTPSource) HealthCheck(ctx context.Context) error {
	if s.breaker.State() == Open {
		return ErrCircuitOpen
	}
	return nil
}
