package services

import (
	"context"
	"sync"

	"github.com/irfndi/powerlaw-overtake/internal/metrics"
	"github.com/irfndi/powerlaw-overtake/internal/models"
	"github.com/sirupsen/logrus"
)

// Runner computes one overtake result.
type Runner interface {
	Run(ctx context.Context, params models.Params) (*models.OvertakeResult, error)
}

// DashboardState is what a client polling the dashboard sees.
type DashboardState struct {
	Seq     uint64                 `json:"seq"`
	Params  models.Params          `json:"params"`
	Loading bool                   `json:"loading"`
	Result  *models.OvertakeResult `json:"result,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Dashboard recomputes the result whenever the selection changes. Runs started for a
// superseded selection are cancelled and their results are never published.
type Dashboard struct {
	runner  Runner
	tracker *RunTracker
	logger  *logrus.Logger
	metrics *metrics.Metrics

	ctx    context.Context
	mu     sync.RWMutex
	state  DashboardState
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDashboard creates a dashboard whose runs live no longer than ctx.
func NewDashboard(ctx context.Context, runner Runner, logger *logrus.Logger, m *metrics.Metrics) *Dashboard {
	return &Dashboard{
		runner:  runner,
		tracker: NewRunTracker(),
		logger:  logger,
		metrics: m,
		ctx:     ctx,
		state:   DashboardState{Loading: true},
	}
}

// Select starts a recompute for params and returns its token immediately.
func (d *Dashboard) Select(params models.Params) RunToken {
	runCtx, cancel := context.WithCancel(d.ctx)

	// d.mu is always taken before the tracker lock.
	d.mu.Lock()
	tok := d.tracker.Begin(params)
	if d.cancel != nil {
		d.cancel()
	}
	d.cancel = cancel
	d.state = DashboardState{Seq: tok.Seq, Params: params, Loading: true}
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		d.execute(runCtx, tok)
	}()
	return tok
}

func (d *Dashboard) execute(ctx context.Context, tok RunToken) {
	result, err := d.runner.Run(ctx, tok.Params)

	d.mu.Lock()
	committed := d.tracker.Commit(tok, func() {
		d.state = DashboardState{Seq: tok.Seq, Params: tok.Params, Result: result}
		if err != nil {
			d.state.Error = PublicMessage(err)
		}
	})
	d.mu.Unlock()
	if committed {
		return
	}

	if d.metrics != nil {
		d.metrics.StaleRunsTotal.Inc()
	}
	d.logger.WithFields(logrus.Fields{
		"seq":    tok.Seq,
		"run_id": tok.ID.String(),
	}).Debug("Discarding result of superseded selection")
}

// Snapshot returns the current state.
func (d *Dashboard) Snapshot() DashboardState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Wait blocks until every started run has finished.
func (d *Dashboard) Wait() {
	d.wg.Wait()
}
