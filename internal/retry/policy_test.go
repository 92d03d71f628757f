package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"git.home.luguber.info/inful/next2gas/internal/config"
)

// TestDefaultPolicy verifies the baseline default values.
func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.Mode != config.RetryBackoffLinear {
		t.Fatalf("expected linear default mode got %s", p.Mode)
	}
	if p.Initial != time.Second || p.Max != 30*time.Second || p.MaxRetries != 2 {
		t.Fatalf("unexpected default policy %+v", p)
	}
}

// TestFromConfig checks override precedence and clamping when initial > max.
func TestFromConfig(t *testing.T) {
	p := FromConfig(config.SourceConfig{
		CloneRetries:      5,
		RetryBackoff:      config.RetryBackoffFixed,
		RetryInitialDelay: 5 * time.Second,
		RetryMaxDelay:     2 * time.Second,
	})
	if p.Initial != 2*time.Second {
		t.Fatalf("expected clamped initial 2s got %v", p.Initial)
	}
	if p.Mode != config.RetryBackoffFixed || p.MaxRetries != 5 {
		t.Fatalf("unexpected policy %+v", p)
	}

	if got := FromConfig(config.SourceConfig{RetryBackoff: "bogus"}).Mode; got != config.RetryBackoffLinear {
		t.Fatalf("unknown mode should keep default, got %s", got)
	}
}

func TestDelayModes(t *testing.T) {
	ms := time.Millisecond
	cases := []struct {
		mode    config.RetryBackoffMode
		initial time.Duration
		max     time.Duration
		want    []time.Duration
	}{
		{config.RetryBackoffFixed, 100 * ms, 500 * ms, []time.Duration{100 * ms, 100 * ms, 100 * ms}},
		{config.RetryBackoffLinear, 100 * ms, 250 * ms, []time.Duration{100 * ms, 200 * ms, 250 * ms, 250 * ms}},
		{config.RetryBackoffExponential, 50 * ms, 160 * ms, []time.Duration{50 * ms, 100 * ms, 160 * ms, 160 * ms}},
	}
	for _, c := range cases {
		p := Policy{Mode: c.mode, Initial: c.initial, Max: c.max}
		for i, want := range c.want {
			if got := p.Delay(i + 1); got != want {
				t.Fatalf("%s attempt %d expected %v got %v", c.mode, i+1, want, got)
			}
		}
	}
}

func TestDelayEdgeCases(t *testing.T) {
	p := Policy{Mode: config.RetryBackoffLinear, Initial: 10 * time.Millisecond, Max: 20 * time.Millisecond}
	if d := p.Delay(0); d != 0 {
		t.Fatalf("attempt 0 expected 0 got %v", d)
	}
	if d := p.Delay(-1); d != 0 {
		t.Fatalf("attempt -1 expected 0 got %v", d)
	}
}

func TestDo(t *testing.T) {
	p := Policy{Mode: config.RetryBackoffFixed, Initial: time.Millisecond, Max: time.Millisecond, MaxRetries: 2}
	flaky := errors.New("connection reset")

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := p.Do(context.Background(), "clone", nil, func(int) error {
			calls++
			if calls < 3 {
				return flaky
			}
			return nil
		})
		if err != nil || calls != 3 {
			t.Fatalf("expected success on third call, got err=%v calls=%d", err, calls)
		}
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := p.Do(context.Background(), "clone", nil, func(int) error { calls++; return flaky })
		if !errors.Is(err, flaky) || calls != 3 {
			t.Fatalf("expected 3 calls and last error, got err=%v calls=%d", err, calls)
		}
	})

	t.Run("permanent errors are not retried", func(t *testing.T) {
		calls := 0
		permanent := errors.New("not found")
		err := p.Do(context.Background(), "clone", func(e error) bool { return !errors.Is(e, permanent) },
			func(int) error { calls++; return permanent })
		if !errors.Is(err, permanent) || calls != 1 {
			t.Fatalf("expected a single call, got err=%v calls=%d", err, calls)
		}
	})

	t.Run("canceled context stops waiting", func(t *testing.T) {
		slow := Policy{Mode: config.RetryBackoffFixed, Initial: time.Hour, Max: time.Hour, MaxRetries: 3}
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := slow.Do(ctx, "clone", nil, func(int) error {
			calls++
			cancel()
			return flaky
		})
		if !errors.Is(err, flaky) || calls != 1 {
			t.Fatalf("expected one call before cancellation, got err=%v calls=%d", err, calls)
		}
	})
}
