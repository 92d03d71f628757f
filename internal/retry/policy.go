// Package retry holds the backoff policy applied to transient clone failures.
package retry

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/next2gas/internal/config"
	"git.home.luguber.info/inful/next2gas/internal/logfields"
)

// Policy encapsulates retry/backoff settings for transient failures.
// It is immutable after construction.
type Policy struct {
	Mode       config.RetryBackoffMode // fixed|linear|exponential
	Initial    time.Duration           // base delay
	Max        time.Duration           // cap for growth
	MaxRetries int                     // maximum retry attempts after the first failure
}

// DefaultPolicy returns linear backoff, 1s initial, 30s cap, 2 retries.
func DefaultPolicy() Policy {
	return Policy{Mode: config.RetryBackoffLinear, Initial: time.Second, Max: 30 * time.Second, MaxRetries: 2}
}

// FromConfig builds a policy from the source section; zero/invalid values fall back to defaults.
func FromConfig(c config.SourceConfig) Policy {
	p := DefaultPolicy()
	if c.CloneRetries >= 0 {
		p.MaxRetries = c.CloneRetries
	}
	if c.RetryInitialDelay > 0 {
		p.Initial = c.RetryInitialDelay
	}
	if c.RetryMaxDelay > 0 {
		p.Max = c.RetryMaxDelay
	}
	if m := config.NormalizeRetryBackoff(string(c.RetryBackoff)); m != "" {
		p.Mode = m
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// Delay returns the backoff delay for the given retry attempt number (1-based: first retry => 1).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	switch p.Mode {
	case config.RetryBackoffFixed:
		return p.Initial
	case config.RetryBackoffExponential:
		d := p.Initial * (1 << (retryCount - 1))
		if d > p.Max || d <= 0 {
			return p.Max
		}
		return d
	default: // linear
		d := time.Duration(retryCount) * p.Initial
		if d > p.Max {
			return p.Max
		}
		return d
	}
}

// Do calls fn until it succeeds, returns an error retryable rejects, or the
// retries are used up. The last error is returned. A canceled context stops
// the wait between attempts.
func (p Policy) Do(ctx context.Context, op string, retryable func(error) bool, fn func(attempt int) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(attempt); err == nil {
			return nil
		}
		if attempt >= p.MaxRetries || (retryable != nil && !retryable(err)) {
			return err
		}
		delay := p.Delay(attempt + 1)
		slog.Warn("Retrying after failure",
			slog.String("operation", op),
			slog.Int("attempt", attempt+1),
			logfields.DurationMS(float64(delay.Milliseconds())),
			logfields.Error(err))
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
	}
}
