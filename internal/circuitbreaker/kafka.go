// v3
// internal/circuitbreaker/kafka.go
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Settings are the runtime tunables of the Kafka writer wrapper. They map to
// CB_ENABLED, CB_KAFKA_FAILURE_THRESHOLD, CB_KAFKA_SUCCESS_THRESHOLD,
// CB_KAFKA_OPEN_SECONDS, CB_KAFKA_TIMEOUT_MS and CB_KAFKA_BACKOFF_MS.
type Settings struct {
	Enabled          bool
	FailureThreshold int
	SuccessThreshold int
	OpenTimeout      time.Duration
	AttemptTimeout   time.Duration
	Backoff          time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
		AttemptTimeout:   3 * time.Second,
		Backoff:          200 * time.Millisecond,
	}
}

func (s Settings) Validate() error {
	switch {
	case s.FailureThreshold < 1:
		return errors.New("failure threshold must be >= 1")
	case s.SuccessThreshold < 1:
		return errors.New("success threshold must be >= 1")
	case s.OpenTimeout <= 0:
		return errors.New("open timeout must be > 0")
	case s.AttemptTimeout < 0:
		return errors.New("attempt timeout must be >= 0")
	case s.Backoff < 0:
		return errors.New("backoff must be >= 0")
	}
	return nil
}

// MessageWriter is the subset of kafka.Writer used by the wrapper.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaBreaker applies retry, per-attempt timeout and back-off around a
// Breaker. A disabled KafkaBreaker passes calls straight through.
type KafkaBreaker struct {
	settings Settings
	breaker  *Breaker
}

func NewKafkaBreaker(name string, s Settings, logger *slog.Logger, probe func(ctx context.Context) error) (*KafkaBreaker, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("circuit breaker %s: %w", name, err)
	}
	kb := &KafkaBreaker{settings: s}
	if s.Enabled {
		kb.breaker = New(name, Config{
			MaxFailures:      s.FailureThreshold,
			ResetTimeout:     s.OpenTimeout,
			SuccessesToClose: s.SuccessThreshold,
		}, logger, probe)
	}
	return kb, nil
}

func (k *KafkaBreaker) Enabled() bool {
	return k != nil && k.settings.Enabled && k.breaker != nil
}

// Breaker exposes the underlying breaker; nil when disabled.
func (k *KafkaBreaker) Breaker() *Breaker {
	if k == nil {
		return nil
	}
	return k.breaker
}

// CBKafkaWriter wraps a kafka writer with breaker protection.
type CBKafkaWriter struct {
	breaker *KafkaBreaker
	writer  MessageWriter
}

func NewCBKafkaWriter(writer MessageWriter, breaker *KafkaBreaker) *CBKafkaWriter {
	return &CBKafkaWriter{writer: writer, breaker: breaker}
}

// WriteMessages publishes msgs, retrying failed attempts up to the failure
// threshold. An open breaker fails immediately with ErrOpen.
func (w *CBKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w == nil || w.writer == nil {
		return errors.New("nil kafka writer")
	}
	if !w.breaker.Enabled() {
		return w.writer.WriteMessages(ctx, msgs...)
	}
	return w.breaker.do(ctx, func(execCtx context.Context) error {
		return w.writer.WriteMessages(execCtx, msgs...)
	})
}

func (k *KafkaBreaker) do(ctx context.Context, op func(ctx context.Context) error) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		attemptCtx, cancel := k.withAttemptContext(ctx)
		err := k.breaker.Execute(attemptCtx, op)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrOpen) || attempt >= k.settings.FailureThreshold {
			return err
		}
		if waitErr := k.waitBackoff(ctx); waitErr != nil {
			return waitErr
		}
	}
}

func (k *KafkaBreaker) withAttemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if k.settings.AttemptTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, k.settings.AttemptTimeout)
}

func (k *KafkaBreaker) waitBackoff(ctx context.Context) error {
	if k.settings.Backoff <= 0 {
		return nil
	}
	timer := time.NewTimer(k.settings.Backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
