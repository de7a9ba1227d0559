// v0
// internal/environment/process.go

// Package environment drives ambient temperature and humidity with a
// discrete mean-reverting (Ornstein-Uhlenbeck style) update that tracks the
// day-period targets in package profile.
package environment

import (
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/profile"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/randx"
)

// Physical bounds applied after every update.
const (
	MinTemperature = 20.0
	MaxTemperature = 40.0
	MinHumidity    = 20.0
	MaxHumidity    = 95.0
)

// Params governs one OU channel. Larger Tau means slower convergence.
type Params struct {
	Tau     float64 // minutes
	Sigma   float64
	MaxStep float64
}

var (
	DefaultTemperature = Params{Tau: 90, Sigma: 0.05, MaxStep: 0.3}
	DefaultHumidity    = Params{Tau: 120, Sigma: 0.4, MaxStep: 1.5}
)

const (
	initTempJitter = 0.2
	initHumJitter  = 1.0
)

var ErrInvalidParams = errors.New("environment: tau and interval must be positive")

type Config struct {
	IntervalSeconds float64
	Temperature     Params
	Humidity        Params
}

// State is the current ambient condition. The zero value is uninitialized.
type State struct {
	Temperature float64
	Humidity    float64
	Initialized bool
}

// Process is immutable; state flows through Init and Step.
type Process struct {
	cfg Config
	dt  float64
}

func NewProcess(cfg Config) (Process, error) {
	if cfg.Temperature == (Params{}) {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Humidity == (Params{}) {
		cfg.Humidity = DefaultHumidity
	}
	if cfg.IntervalSeconds <= 0 || cfg.Temperature.Tau <= 0 || cfg.Humidity.Tau <= 0 {
		return Process{}, ErrInvalidParams
	}
	return Process{cfg: cfg, dt: cfg.IntervalSeconds / 60.0}, nil
}

// Init seeds the state at the target for the hour of at plus a little noise.
func (p Process) Init(at time.Time, r *rand.Rand) State {
	target := profile.ClimateAt(at.Hour())
	return State{
		Temperature: clamp(target.Temperature+randx.Normal(r, 0, initTempJitter), MinTemperature, MaxTemperature),
		Humidity:    clamp(target.Humidity+randx.Normal(r, 0, initHumJitter), MinHumidity, MaxHumidity),
		Initialized: true,
	}
}

// Step advances the state by one sampling interval ending at at.
func (p Process) Step(s State, at time.Time, r *rand.Rand) State {
	if !s.Initialized {
		s = p.Init(at, r)
	}
	target := profile.ClimateAt(at.Hour())
	s.Temperature = clamp(ouStep(s.Temperature, target.Temperature, p.dt, p.cfg.Temperature, r), MinTemperature, MaxTemperature)
	s.Humidity = clamp(ouStep(s.Humidity, target.Humidity, p.dt, p.cfg.Humidity, r), MinHumidity, MaxHumidity)
	return s
}

// Rounded returns the reported values at one decimal.
func (s State) Rounded() (temperature, humidity float64) {
	return math.Round(s.Temperature*10) / 10, math.Round(s.Humidity*10) / 10
}

func ouStep(prev, target, dt float64, p Params, r *rand.Rand) float64 {
	drift := (target - prev) * (dt / p.Tau)
	delta := clamp(drift+randx.Normal(r, 0, p.Sigma), -p.MaxStep, p.MaxStep)
	return prev + delta
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
