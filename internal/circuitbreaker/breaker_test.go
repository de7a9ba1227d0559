// v3
// internal/circuitbreaker/breaker_test.go
package circuitbreaker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestBreaker(cfg Config) (*Breaker, *fakeClock) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := New("test", cfg, quietLogger(), nil)
	b.now = clk.now
	return b, clk
}

func fail(context.Context) error    { return errBoom }
func succeed(context.Context) error { return nil }

func TestOpensAfterMaxFailures(t *testing.T) {
	b, _ := newTestBreaker(Config{MaxFailures: 3, ResetTimeout: time.Minute, SuccessesToClose: 1})
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := b.Execute(ctx, fail); !errors.Is(err, errBoom) {
			t.Fatalf("attempt %d: expected op error, got %v", i, err)
		}
		if b.State() != Closed {
			t.Fatalf("attempt %d: breaker opened early", i)
		}
	}
	_ = b.Execute(ctx, fail)
	if b.State() != Open {
		t.Fatalf("expected open after 3 failures, got %s", b.State())
	}
	called := false
	err := b.Execute(ctx, func(context.Context) error { called = true; return nil })
	if !errors.Is(err, ErrOpen) || called {
		t.Fatalf("expected fast-fail without calling op, err=%v called=%v", err, called)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(Config{MaxFailures: 2, ResetTimeout: time.Minute})
	ctx := context.Background()
	_ = b.Execute(ctx, fail)
	_ = b.Execute(ctx, succeed)
	_ = b.Execute(ctx, fail)
	if b.State() != Closed {
		t.Fatalf("non-consecutive failures must not open the breaker")
	}
}

func TestHalfOpenClosesAfterConfiguredSuccesses(t *testing.T) {
	b, clk := newTestBreaker(Config{MaxFailures: 1, ResetTimeout: time.Second, SuccessesToClose: 2})
	var transitions []State
	b.OnStateChange(func(_, to State) { transitions = append(transitions, to) })
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	clk.advance(2 * time.Second)
	if err := b.Execute(ctx, succeed); err != nil {
		t.Fatalf("half-open call failed: %v", err)
	}
	if b.State() != HalfOpen {
		t.Fatalf("expected half-open after one success, got %s", b.State())
	}
	_ = b.Execute(ctx, succeed)
	if b.State() != Closed {
		t.Fatalf("expected closed after two successes, got %s", b.State())
	}
	want := []State{Open, HalfOpen, Closed}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", transitions, want)
		}
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	b, clk := newTestBreaker(Config{MaxFailures: 3, ResetTimeout: time.Second, SuccessesToClose: 1})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_ = b.Execute(ctx, fail)
	}
	clk.advance(time.Second)
	_ = b.Execute(ctx, fail)
	if b.State() != Open {
		t.Fatalf("a half-open failure must reopen, got %s", b.State())
	}
	if err := b.Execute(ctx, succeed); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected fast-fail right after reopening, got %v", err)
	}
}

func TestProbeFailureKeepsBreakerOpen(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	probes := 0
	b := New("probe", Config{MaxFailures: 1, ResetTimeout: time.Second}, quietLogger(), func(context.Context) error {
		probes++
		return errBoom
	})
	b.now = clk.now
	ctx := context.Background()
	_ = b.Execute(ctx, fail)
	clk.advance(time.Second)
	called := false
	err := b.Execute(ctx, func(context.Context) error { called = true; return nil })
	if !errors.Is(err, ErrOpen) || called || probes != 1 {
		t.Fatalf("err=%v called=%v probes=%d", err, called, probes)
	}
	if b.State() != Open {
		t.Fatalf("expected open after failed probe, got %s", b.State())
	}
}
