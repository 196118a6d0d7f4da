package services

import (
	"sync"

	"github.com/google/uuid"
	"github.com/irfndi/powerlaw-overtake/internal/models"
)

// RunToken identifies one parameter selection. Only the newest token may commit.
type RunToken struct {
	Seq    uint64
	ID     uuid.UUID
	Params models.Params
}

// RunTracker implements latest-parameters-win: every Begin supersedes all earlier tokens.
type RunTracker struct {
	mu      sync.Mutex
	current uint64
}

func NewRunTracker() *RunTracker {
	return &RunTracker{}
}

// Begin issues a token for params and makes it current.
func (t *RunTracker) Begin(params models.Params) RunToken {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current++
	return RunToken{Seq: t.current, ID: uuid.New(), Params: params}
}

// IsCurrent reports whether tok is still the newest token.
func (t *RunTracker) IsCurrent(tok RunToken) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return tok.Seq == t.current
}

// Commit runs apply only while tok is current, holding the tracker lock so no newer
// Begin can interleave. It reports whether apply ran.
func (t *RunTracker) Commit(tok RunToken, apply func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tok.Seq != t.current {
		return false
	}
	apply()
	return true
}
