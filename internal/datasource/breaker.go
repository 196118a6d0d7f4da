package datasource

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrCircuitOpen is returned without calling upstream while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerState represents the current state of the circuit breaker
type BreakerState int

const (
	Closed BreakerState = iota
	Open
	HalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds configuration for the circuit breaker
type BreakerConfig struct {
	FailureThreshold int           // Number of consecutive failures before opening
	SuccessThreshold int           // Number of successes to close from half-open
	Timeout          time.Duration // Time to wait before trying half-open
}

// Breaker rejects calls to an upstream that keeps failing. The protected function runs
// outside the lock.
type Breaker struct {
	name   string
	config BreakerConfig
	logger *logrus.Logger
	now    func() time.Time

	mu              sync.Mutex
	state           BreakerState
	failureCount    int
	successCount    int
	lastStateChange time.Time
}

// NewBreaker creates a new circuit breaker
func NewBreaker(name string, config BreakerConfig, logger *logrus.Logger) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Breaker{
		name:            name,
		config:          config,
		logger:          logger,
		now:             time.Now,
		state:           Closed,
		lastStateChange: time.Now(),
	}
}

// Execute runs fn unless the breaker is open. Context cancellation is not counted as an
// upstream failure.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if !b.allow() {
		return ErrCircuitOpen
	}

	err := fn(ctx)
	switch {
	case err == nil:
		b.onSuccess()
	case errors.Is(err, context.Canceled):
	default:
		b.onFailure(err)
	}
	return err
}

// State returns the current state of the circuit breaker
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Open {
		if b.now().Sub(b.lastStateChange) < b.config.Timeout {
			return false
		}
		b.setState(HalfOpen)
		b.successCount = 0
	}
	return true
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.failureCount = 0
	case HalfOpen:
		b.successCount++
		if b.successCount >= b.config.SuccessThreshold {
			b.setState(Closed)
			b.failureCount = 0
		}
	}
}

func (b *Breaker) onFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	if b.state == HalfOpen || b.failureCount >= b.config.FailureThreshold {
		b.setState(Open)
	}

	b.logger.WithFields(logrus.Fields{
		"circuit_breaker": b.name,
		"state":           b.state.String(),
		"failure_count":   b.failureCount,
	}).WithError(err).Warn("Circuit breaker: failed execution")
}

// setState changes the circuit breaker state; callers hold mu.
func (b *Breaker) setState(newState BreakerState) {
	if b.state == newState {
		return
	}
	old := b.state
	b.state = newState
	b.lastStateChange = b.now()

	b.logger.WithFields(logrus.Fields{
		"circuit_breaker": b.name,
		"old_state":       old.String(),
		"new_state":       newState.String(),
	}).Info("Circuit breaker state changed")
}
