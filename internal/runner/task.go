package runner

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitesync/internal/history"
	"git.home.luguber.info/inful/sitesync/internal/logfields"
)

// Outcome is the result of one task run.
type Outcome struct {
	Status   history.Outcome
	ExitCode int
	State    string
	Version  string
	Detail   string
	Err      error
}

// Task is a unit of scheduled work.
type Task interface {
	Name() string
	Run(ctx context.Context) Outcome
}

// FuncTask runs an in-process function.
type FuncTask struct {
	name string
	fn   func(ctx context.Context) Outcome
}

// NewFuncTask wraps fn as a Task.
func NewFuncTask(name string, fn func(ctx context.Context) Outcome) *FuncTask {
	return &FuncTask{name: name, fn: fn}
}

func (t *FuncTask) Name() string                    { return t.name }
func (t *FuncTask) Run(ctx context.Context) Outcome { return t.fn(ctx) }

// ErrorOutcome converts an error from a builtin task.
func ErrorOutcome(err error) Outcome {
	if err == nil {
		return Outcome{Status: history.OutcomeSuccess}
	}
	return Outcome{Status: history.OutcomeFailed, Err: err, Detail: err.Error()}
}

// CommandTask runs an external program and logs its output and exit status.
type CommandTask struct {
	name    string
	argv    []string
	dir     string
	timeout time.Duration
}

// NewCommandTask creates a command task. A zero timeout means none.
func NewCommandTask(name string, argv []string, dir string, timeout time.Duration) *CommandTask {
	return &CommandTask{name: name, argv: append([]string(nil), argv...), dir: dir, timeout: timeout}
}

func (t *CommandTask) Name() string { return t.name }

// Run executes the command. A non-zero exit is a warning; a command that
// cannot be started is a failure.
func (t *CommandTask) Run(ctx context.Context) Outcome {
	if len(t.argv) == 0 {
		return ErrorOutcome(errors.New("empty command"))
	}
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, t.argv[0], t.argv[1:]...)
	cmd.Dir = t.dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Info("Running command", logfields.Task(t.name), slog.String("command", strings.Join(t.argv, " ")))
	err := cmd.Run()

	if out := strings.TrimRight(stdout.String(), "\n"); out != "" {
		slog.Info("Command output", logfields.Task(t.name), slog.String("stdout", out))
	}
	if out := strings.TrimRight(stderr.String(), "\n"); out != "" {
		slog.Warn("Command stderr", logfields.Task(t.name), slog.String("stderr", out))
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return Outcome{Status: history.OutcomeSuccess}
	case errors.As(err, &exitErr) && ctx.Err() == nil:
		code := exitErr.ExitCode()
		slog.Warn("Command finished with a non-zero exit code", logfields.Task(t.name), logfields.ExitCode(code))
		return Outcome{Status: history.OutcomeWarning, ExitCode: code, Detail: exitErr.Error(), Err: err}
	default:
		if ctx.Err() != nil {
			err = errors.Join(err, ctx.Err())
		}
		slog.Error("Command failed", logfields.Task(t.name), logfields.Error(err))
		code := -1
		if exitErr != nil {
			code = exitErr.ExitCode()
		}
		return Outcome{Status: history.OutcomeFailed, ExitCode: code, Detail: err.Error(), Err: err}
	}
}
