// v3
// internal/circuitbreaker/breaker.go

// Package circuitbreaker guards calls to an unreliable dependency. After
// MaxFailures consecutive failures the breaker opens and fast-fails every
// call until ResetTimeout elapses; it then lets calls through half-open and
// closes again after SuccessesToClose successes.
package circuitbreaker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

var ErrOpen = errors.New("circuit breaker is open; fast-fail")

// Config holds the state machine tunables.
type Config struct {
	MaxFailures      int           // consecutive failures before opening
	ResetTimeout     time.Duration // time spent open before probing again
	SuccessesToClose int           // successes required in HalfOpen before closing
}

type Breaker struct {
	name   string
	cfg    Config
	logger *slog.Logger
	probe  func(ctx context.Context) error
	now    func() time.Time

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openedAt  time.Time
	onChange  func(from, to State)
}

// New builds a closed breaker. probe, when set, runs before the first call
// let through after the open period.
func New(name string, cfg Config, logger *slog.Logger, probe func(ctx context.Context) error) *Breaker {
	if cfg.SuccessesToClose < 1 {
		cfg.SuccessesToClose = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	b := &Breaker{name: name, cfg: cfg, logger: logger, probe: probe, now: time.Now}
	b.logger.Debug("breaker_created", "name", name, "maxFailures", cfg.MaxFailures, "resetTimeout", cfg.ResetTimeout.String())
	return b
}

// OnStateChange registers fn to be called on every transition.
func (b *Breaker) OnStateChange(fn func(from, to State)) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

func (b *Breaker) Name() string { return b.name }

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Execute runs op unless the breaker is open. It returns ErrOpen on a
// fast-fail and op's own error otherwise.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	if b.state == Open {
		since := b.now().Sub(b.openedAt)
		if since < b.cfg.ResetTimeout {
			b.mu.Unlock()
			b.logger.Warn("breaker_fast_fail", "name", b.name, "since_open", since.String())
			return ErrOpen
		}
		b.successes = 0
		b.setState(HalfOpen)
	}
	halfOpen := b.state == HalfOpen
	b.mu.Unlock()

	if halfOpen && b.probe != nil {
		if err := b.probe(ctx); err != nil {
			b.logger.Warn("breaker_probe_failed", "name", b.name, "error", err.Error())
			b.onFailure(err)
			return ErrOpen
		}
	}

	if err := op(ctx); err != nil {
		b.onFailure(err)
		return err
	}
	b.onSuccess()
	return nil
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case HalfOpen:
		b.successes++
		if b.successes >= b.cfg.SuccessesToClose {
			b.failures = 0
			b.setState(Closed)
		}
	default:
		b.failures = 0
	}
}

func (b *Breaker) onFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.logger.Warn("operation_failure", "name", b.name, "failures", b.failures, "error", err.Error())
	if b.state == HalfOpen || b.failures >= b.cfg.MaxFailures {
		b.openedAt = b.now()
		b.setState(Open)
	}
}

// setState must be called with mu held.
func (b *Breaker) setState(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	switch to {
	case Open:
		b.logger.Error("breaker_opened", "name", b.name, "from", from.String(), "failures", b.failures)
	case HalfOpen:
		b.logger.Info("breaker_half_open", "name", b.name)
	case Closed:
		b.logger.Info("breaker_closed", "name", b.name, "from", from.String())
	}
	if b.onChange != nil {
		b.onChange(from, to)
	}
}
