// Package runner executes configured tasks on their intervals.
//
// A single poll job checks the Schedule on every tick and runs the due tasks
// one after another. The poll job never overlaps itself, so tasks never run
// concurrently.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	ferrors "git.home.luguber.info/inful/sitesync/internal/foundation/errors"
	"git.home.luguber.info/inful/sitesync/internal/history"
	"git.home.luguber.info/inful/sitesync/internal/logfields"
	"git.home.luguber.info/inful/sitesync/internal/metrics"
)

// Entry pairs a task with its interval.
type Entry struct {
	Task     Task
	Interval time.Duration
}

// Option customizes a Runner.
type Option func(*Runner)

// WithHistory records every run in store.
func WithHistory(store history.Store) Option {
	return func(r *Runner) {
		if store != nil {
			r.history = store
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Runner) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// Runner polls the schedule and runs due tasks sequentially.
type Runner struct {
	poll     time.Duration
	schedule *Schedule
	tasks    map[string]Task
	history  history.Store
	recorder metrics.Recorder
	now      func() time.Time
}

// New creates a runner. Task names must be unique; later duplicates are ignored.
func New(poll time.Duration, entries []Entry, opts ...Option) *Runner {
	order := make([]string, 0, len(entries))
	intervals := map[string]time.Duration{}
	tasks := map[string]Task{}
	for _, e := range entries {
		name := e.Task.Name()
		if _, dup := tasks[name]; dup {
			continue
		}
		order = append(order, name)
		intervals[name] = e.Interval
		tasks[name] = e.Task
	}
	r := &Runner{
		poll:     poll,
		schedule: NewSchedule(order, intervals),
		tasks:    tasks,
		history:  history.NoopStore{},
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Schedule exposes the runner's schedule state.
func (r *Runner) Schedule() *Schedule { return r.schedule }

// Tick runs every due task once, in order, and marks each with the tick
// time whatever its outcome. It returns the names of the tasks that ran.
func (r *Runner) Tick(ctx context.Context) []string {
	tick := r.now()
	var ran []string
	for _, name := range r.schedule.Due(tick) {
		if ctx.Err() != nil {
			break
		}
		r.runTask(ctx, r.tasks[name], tick)
		r.schedule.MarkRun(name, tick)
		ran = append(ran, name)
	}
	return ran
}

func (r *Runner) runTask(ctx context.Context, t Task, tick time.Time) {
	run := history.NewRun(t.Name(), tick)
	log := slog.With(logfields.Task(t.Name()), logfields.RunID(run.ID))
	log.Info("Task started")

	start := time.Now()
	out := t.Run(ctx)
	run.Duration = time.Since(start)
	run.Outcome, run.ExitCode = out.Status, out.ExitCode
	run.State, run.Version, run.Detail = out.State, out.Version, out.Detail

	r.recorder.ObserveTaskDuration(t.Name(), run.Duration)
	r.recorder.IncTaskOutcome(t.Name(), resultLabel(ctx, out.Status))

	attrs := []any{slog.String("outcome", string(out.Status)), logfields.DurationMS(float64(run.Duration.Milliseconds()))}
	switch out.Status {
	case history.OutcomeSuccess:
		log.Info("Task finished", attrs...)
	case history.OutcomeWarning:
		log.Warn("Task finished with warnings", append(attrs, logfields.ExitCode(out.ExitCode))...)
	default:
		attrs = append(attrs, logfields.Error(out.Err))
		if classified, ok := ferrors.AsClassified(out.Err); ok {
			attrs = append(attrs, slog.String("category", string(classified.Category())), slog.String("retry", string(classified.Retry())))
		}
		log.Error("Task failed", attrs...)
	}

	if err := r.history.Record(context.WithoutCancel(ctx), run); err != nil {
		log.Warn("Failed to record run history", logfields.Error(err))
	}
}

func resultLabel(ctx context.Context, status history.Outcome) metrics.ResultLabel {
	if ctx.Err() != nil {
		return metrics.ResultCanceled
	}
	switch status {
	case history.OutcomeSuccess:
		return metrics.ResultSuccess
	default:
		return metrics.ResultFailed
	}
}

// Run ticks immediately and then every poll interval until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(r.poll),
		gocron.NewTask(func() { r.Tick(ctx) }),
		gocron.WithName("poll"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("failed to create poll job: %w", err)
	}

	slog.Info("Runner started", slog.Duration("poll_interval", r.poll), logfields.Count(len(r.tasks)))
	s.Start()
	<-ctx.Done()
	slog.Info("Runner stopping")
	if err := s.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	return nil
}

// UpdateIntervals applies new intervals to known tasks. Unknown names are
// reported and ignored; adding or removing tasks needs a restart.
func (r *Runner) UpdateIntervals(intervals map[string]time.Duration) {
	for name, d := range intervals {
		old, known := r.schedule.Interval(name)
		if !known {
			slog.Warn("Ignoring new task until restart", logfields.Task(name))
			continue
		}
		if old != d {
			r.schedule.SetInterval(name, d)
			slog.Info("Task interval updated", logfields.Task(name), slog.Duration("interval", d))
		}
	}
	for name := range r.tasks {
		if _, ok := intervals[name]; !ok {
			slog.Warn("Task removed from configuration keeps running until restart", logfields.Task(name))
		}
	}
}
