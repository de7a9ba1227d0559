// v0
// internal/sensor/sensor.go

// Package sensor defines the pieces shared by every simulated device: its
// identity, the reading and dataset types, and the generic Engine that
// composes a radio model with one domain model.
package sensor

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/randx"
)

// ErrInvalidConfig marks every configuration failure: bad interval, rates out
// of range, durations yielding no steps.
var ErrInvalidConfig = errors.New("invalid configuration")

var devEUIPattern = regexp.MustCompile(`^[0-9a-fA-F]{16}$`)

// Identity is fixed once an engine is built.
type Identity struct {
	Type            string
	DevEUI          string
	IntervalSeconds float64
	NoiseLevel      float64
	AnomalyRate     float64
	DropoutRate     float64
	LifetimeYears   float64
	Seed            int64
}

// Interval returns the sampling interval as a duration.
func (id Identity) Interval() time.Duration {
	return time.Duration(id.IntervalSeconds * float64(time.Second))
}

// Options is the user-facing configuration of one sensor. A zero
// IntervalSeconds is replaced by the domain default. Nil NoiseLevel and
// AnomalyRate mean "use the default" so an explicit 0 switches them off; a nil
// Seed lets the caller pick one.
type Options struct {
	DevEUI          string
	IntervalSeconds float64
	NoiseLevel      *float64
	AnomalyRate     *float64
	DropoutRate     float64
	LifetimeYears   float64
	Seed            *int64
}

// Defaults are the per-domain fallbacks for Options.
type Defaults struct {
	IntervalSeconds float64
	NoiseLevel      float64
	AnomalyRate     float64
}

// Rate is a convenience for filling Options.AnomalyRate.
func Rate(v float64) *float64 { return &v }

// Noise is a convenience for filling Options.NoiseLevel.
func Noise(v float64) *float64 { return &v }

// Seed is a convenience for filling Options.Seed.
func Seed(v int64) *int64 { return &v }

// NewIdentity validates opts against defaults and resolves the device id.
func NewIdentity(sensorType string, opts Options, def Defaults) (Identity, error) {
	id := Identity{
		Type:            sensorType,
		DevEUI:          strings.ToLower(strings.TrimSpace(opts.DevEUI)),
		IntervalSeconds: opts.IntervalSeconds,
		NoiseLevel:      def.NoiseLevel,
		AnomalyRate:     def.AnomalyRate,
		DropoutRate:     opts.DropoutRate,
		LifetimeYears:   opts.LifetimeYears,
	}
	if id.IntervalSeconds == 0 {
		id.IntervalSeconds = def.IntervalSeconds
	}
	if opts.NoiseLevel != nil {
		id.NoiseLevel = *opts.NoiseLevel
	}
	if opts.Seed != nil {
		id.Seed = *opts.Seed
	}
	if opts.AnomalyRate != nil {
		id.AnomalyRate = *opts.AnomalyRate
	}
	if id.IntervalSeconds <= 0 {
		return Identity{}, fmt.Errorf("%w: sampling interval must be positive, got %v", ErrInvalidConfig, id.IntervalSeconds)
	}
	if id.NoiseLevel < 0 {
		return Identity{}, fmt.Errorf("%w: noise level must not be negative", ErrInvalidConfig)
	}
	if err := checkRate("anomaly rate", id.AnomalyRate); err != nil {
		return Identity{}, err
	}
	if err := checkRate("dropout rate", id.DropoutRate); err != nil {
		return Identity{}, err
	}
	if id.DevEUI == "" {
		id.DevEUI = randx.DevEUI(id.Seed)
	} else if !devEUIPattern.MatchString(id.DevEUI) {
		return Identity{}, fmt.Errorf("%w: devEUI %q must be 16 hex characters", ErrInvalidConfig, opts.DevEUI)
	}
	return id, nil
}

func checkRate(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%w: %s must be within [0,1], got %v", ErrInvalidConfig, name, v)
	}
	return nil
}

// MaxSteps bounds the readings one Generate call may produce.
const MaxSteps = 5_000_000

// StepCount is the number of readings produced for a duration, truncated.
// Non-finite or non-positive inputs yield 0; counts above MaxSteps are
// capped at MaxSteps+1 so callers can reject them without overflow.
func StepCount(durationMinutes, intervalSeconds float64) int {
	if !(intervalSeconds > 0) || !(durationMinutes > 0) {
		return 0
	}
	steps := durationMinutes * 60 / intervalSeconds
	if math.IsInf(steps, 0) || steps > MaxSteps {
		return MaxSteps + 1
	}
	return int(steps)
}

// CheckSteps reports whether a duration and interval give between 1 and
// MaxSteps readings.
func CheckSteps(durationMinutes, intervalSeconds float64) error {
	n := StepCount(durationMinutes, intervalSeconds)
	switch {
	case n <= 0:
		return fmt.Errorf("%w: duration %v min with interval %v s yields no readings",
			ErrInvalidConfig, durationMinutes, intervalSeconds)
	case n > MaxSteps:
		return fmt.Errorf("%w: duration %v min with interval %v s exceeds %d readings",
			ErrInvalidConfig, durationMinutes, intervalSeconds, MaxSteps)
	}
	return nil
}
