// Package history records task runs so operators can see what the runner did.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Outcome classifies a finished run.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeWarning Outcome = "warning"
	OutcomeFailed  Outcome = "failed"
)

// Run is one recorded task execution.
type Run struct {
	ID        string
	Task      string
	StartedAt time.Time
	Duration  time.Duration
	Outcome   Outcome
	ExitCode  int
	State     string // final release sync state, when applicable
	Version   string
	Detail    string
}

// NewRun starts a run record with a fresh id.
func NewRun(task string, started time.Time) Run {
	return Run{ID: uuid.NewString(), Task: task, StartedAt: started}
}

// Store persists runs.
type Store interface {
	Record(ctx context.Context, run Run) error
	Recent(ctx context.Context, task string, limit int) ([]Run, error)
	Close() error
}

// NoopStore discards runs (history disabled).
type NoopStore struct{}

func (NoopStore) Record(context.Context, Run) error                   { return nil }
func (NoopStore) Recent(context.Context, string, int) ([]Run, error) { return nil, nil }
func (NoopStore) Close() error                                        { return nil }
