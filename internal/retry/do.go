package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ExhaustedError is returned by Do when every attempt failed.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying; Do returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// RetryFunc observes a failed attempt that will be retried after wait.
type RetryFunc func(attempt int, err error, wait time.Duration)

// Option customizes a Do call.
type Option func(*options)

type options struct {
	onRetry RetryFunc
	sleep   func(ctx context.Context, d time.Duration) error
}

// OnRetry registers a hook invoked before each wait.
func OnRetry(fn RetryFunc) Option {
	return func(o *options) { o.onRetry = fn }
}

// Do runs fn until it succeeds, returns a permanent error, the context ends,
// or the policy's attempts are used up. Attempts are 1-based.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error, opts ...Option) error {
	o := options{sleep: sleepCtx}
	for _, opt := range opts {
		opt(&o)
	}
	attempts := p.Attempts()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		var pe *permanentError
		if errors.As(err, &pe) {
			return pe.err
		}
		lastErr = err
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if attempt == attempts {
			break
		}
		wait := p.Delay(attempt)
		if o.onRetry != nil {
			o.onRetry(attempt, err, wait)
		}
		if err := o.sleep(ctx, wait); err != nil {
			return err
		}
	}
	return &ExhaustedError{Attempts: attempts, Err: lastErr}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
