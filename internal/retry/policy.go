package retry

import (
	"time"

	"git.home.luguber.info/inful/sitesync/internal/config"
)

// Policy decides how many times a fetch is attempted and how long to wait
// between attempts. The zero value makes one attempt.
type Policy struct {
	Mode        config.RetryBackoffMode
	Initial     time.Duration // wait before the first retry
	Max         time.Duration // upper bound for linear and exponential growth
	MaxAttempts int           // including the first attempt
}

// DefaultPolicy is three attempts five seconds apart.
func DefaultPolicy() Policy {
	return Policy{Mode: config.RetryBackoffFixed, Initial: 5 * time.Second, Max: 30 * time.Second, MaxAttempts: 3}
}

// NewPolicy overlays the given values on DefaultPolicy. Non-positive attempts,
// a negative delay, a non-positive cap or an unknown mode keep the default.
// A zero delay is kept so retries can happen back to back.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDelay time.Duration, maxAttempts int) Policy {
	p := DefaultPolicy()
	if maxAttempts > 0 {
		p.MaxAttempts = maxAttempts
	}
	if initial >= 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	if mode == config.RetryBackoffLinear || mode == config.RetryBackoffExponential {
		p.Mode = mode
	}
	p.Initial = min(p.Initial, p.Max)
	return p
}

// FromConfig builds the policy described by the retry section.
func FromConfig(rc config.RetryConfig) Policy {
	return NewPolicy(rc.Backoff, rc.Delay, rc.MaxDelay, rc.MaxAttempts)
}

// Attempts is MaxAttempts, at least one.
func (p Policy) Attempts() int { return max(p.MaxAttempts, 1) }

// Delay is the wait before retry n, counting retries from 1.
func (p Policy) Delay(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case config.RetryBackoffLinear:
		d = time.Duration(n) * p.Initial
	case config.RetryBackoffExponential:
		d = p.Initial
		for i := 1; i < n && d < p.Max; i++ {
			d *= 2
		}
	default:
		return p.Initial
	}
	if d < 0 || d > p.Max {
		return p.Max
	}
	return d
}
