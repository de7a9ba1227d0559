// v0
// internal/radio/radio.go

// Package radio models the link-layer telemetry every simulated device
// reports alongside its measurement: battery level, RSSI, SNR and a 16-bit
// wrapping sequence counter.
package radio

import (
	"errors"
	"math"
	"math/rand/v2"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/randx"
)

const (
	// SeqModulo is the wrap point of the uplink sequence counter.
	SeqModulo = 65536

	DefaultLifetimeYears = 5.0
	FullBattery          = 100.0

	drainJitter = 0.10
)

// Link signal bands in dBm (RSSI) and dB (SNR).
var (
	HealthyRSSI  = Band{-90, -70}
	HealthySNR   = Band{5, 12}
	DegradedRSSI = Band{-120, -100}
	DegradedSNR  = Band{-20, -5}
)

// Band is the uniform support of a signal draw.
type Band struct{ Low, High float64 }

var ErrInvalidInterval = errors.New("radio: sampling interval must be positive")

// Config parameterizes a radio model.
type Config struct {
	IntervalSeconds float64
	AnomalyRate     float64
	LifetimeYears   float64
}

// State is the mutable part of the radio, carried between steps.
type State struct {
	Battery float64
	Seq     int
}

// Emission is what the radio contributes to a single reading.
type Emission struct {
	Battery float64
	RSSI    float64
	SNR     float64
	Seq     int
	// Degraded reports whether either signal draw came from the degraded band.
	Degraded bool
}

// Model is a stateless radio parameter set; all state lives in State.
type Model struct {
	cfg   Config
	drain float64
}

func New(cfg Config) (Model, error) {
	if cfg.IntervalSeconds <= 0 {
		return Model{}, ErrInvalidInterval
	}
	if cfg.LifetimeYears <= 0 {
		cfg.LifetimeYears = DefaultLifetimeYears
	}
	stepsPerHour := 3600.0 / cfg.IntervalSeconds
	return Model{
		cfg:   cfg,
		drain: FullBattery / (cfg.LifetimeYears * 365 * 24 * stepsPerHour),
	}, nil
}

// DrainPerStep is the nominal battery percentage consumed by one uplink.
func (m Model) DrainPerStep() float64 { return m.drain }

// Initial returns a fresh radio state with a full battery and seq 0.
func (m Model) Initial() State {
	return State{Battery: FullBattery}
}

// Step emits the radio fields for one reading and returns the next state.
// Battery drains only when the domain reading is valid; the sequence counter
// always advances.
func (m Model) Step(s State, valid bool, r *rand.Rand) (Emission, State) {
	rssiBad := randx.Chance(r, m.cfg.AnomalyRate)
	rssiBand := HealthyRSSI
	if rssiBad {
		rssiBand = DegradedRSSI
	}
	rssi := randx.Uniform(r, rssiBand.Low, rssiBand.High)

	snrBad := randx.Chance(r, m.cfg.AnomalyRate)
	snrBand := HealthySNR
	if snrBad {
		snrBand = DegradedSNR
	}
	snr := randx.Uniform(r, snrBand.Low, snrBand.High)

	battery := s.Battery
	if valid {
		battery -= m.drain * randx.Uniform(r, 1-drainJitter, 1+drainJitter)
		battery = math.Max(0, battery)
	}
	battery = math.Min(battery, FullBattery)

	out := Emission{
		Battery:  battery,
		RSSI:     round1(rssi),
		SNR:      round1(snr),
		Seq:      s.Seq,
		Degraded: rssiBad || snrBad,
	}
	return out, State{Battery: battery, Seq: (s.Seq + 1) % SeqModulo}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
