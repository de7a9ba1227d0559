// v0
// internal/ammonia/ammonia.go

// Package ammonia models an NH3 gas sensor: a diurnal baseline with noise,
// one-step contamination spikes, and a weak positive coupling to the ambient
// temperature and humidity produced by package environment.
package ammonia

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/environment"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/randx"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/sensor"
)

// Type is the sensor_type of every ammonia reading.
const Type = "ammonia"

var columns = []string{"temperature", "humidity", "nh3"}

// Defaults applied to zero-valued sensor.Options.
var Defaults = sensor.Defaults{IntervalSeconds: 300, NoiseLevel: 0.01, AnomalyRate: 0.01}

// Params shapes the concentration curve, in ppm.
type Params struct {
	Base      float64
	Amplitude float64
	// Period divides the step index inside the sine.
	Period    float64
	SpikeLow  float64
	SpikeHigh float64
	// Coupled enables the environmental scaling term.
	Coupled      bool
	TempCoupling float64
	HumCoupling  float64
	TempBaseline float64
	HumBaseline  float64
	Floor        float64
}

var DefaultParams = Params{
	Base:         0.1,
	Amplitude:    0.05,
	Period:       96,
	SpikeLow:     100,
	SpikeHigh:    700,
	Coupled:      true,
	TempCoupling: 0.005,
	HumCoupling:  0.002,
	TempBaseline: 28,
	HumBaseline:  50,
	Floor:        0.05,
}

// State carries the ambient conditions between steps.
type State struct {
	Env environment.State
}

// Measurement is one ammonia sample. Missing readings report nil values.
type Measurement struct {
	Temperature float64
	Humidity    float64
	NH3         float64
	Spike       bool
	Missing     bool
}

func (m Measurement) Columns() []string { return columns }

func (m Measurement) Values() []any {
	if m.Missing {
		return []any{nil, nil, nil}
	}
	return []any{m.Temperature, m.Humidity, m.NH3}
}

func (m Measurement) Valid() bool   { return !m.Missing }
func (m Measurement) Anomaly() bool { return m.Spike }

// Model implements sensor.Model[State].
type Model struct {
	params      Params
	noise       float64
	anomalyRate float64
	env         environment.Process
}

// NewModel builds the domain model for an already validated identity.
func NewModel(id sensor.Identity, p Params) (Model, error) {
	env, err := environment.NewProcess(environment.Config{IntervalSeconds: id.IntervalSeconds})
	if err != nil {
		return Model{}, err
	}
	if p.Period == 0 {
		p.Period = DefaultParams.Period
	}
	return Model{params: p, noise: id.NoiseLevel, anomalyRate: id.AnomalyRate, env: env}, nil
}

// New returns a ready-to-run ammonia sensor engine.
func New(opts sensor.Options) (*sensor.Engine[State], error) {
	id, err := sensor.NewIdentity(Type, opts, Defaults)
	if err != nil {
		return nil, err
	}
	m, err := NewModel(id, DefaultParams)
	if err != nil {
		return nil, err
	}
	return sensor.NewEngine[State](id, m)
}

func (m Model) Type() string      { return Type }
func (m Model) Columns() []string { return columns }

func (m Model) Init(start time.Time, r *rand.Rand) State {
	return State{Env: m.env.Init(start, r)}
}

// Step advances the environment first and then derives the concentration
// from the updated conditions, so a reading is consistent with the
// temperature and humidity it reports.
func (m Model) Step(s State, tick sensor.Tick, r *rand.Rand) (sensor.Measurement, State) {
	s.Env = m.env.Step(s.Env, tick.At, r)
	if tick.Dropped {
		return Measurement{Missing: true}, s
	}
	p := m.params
	value := p.Base + p.Amplitude*math.Sin(float64(tick.Index)/p.Period)
	value += randx.Normal(r, 0, m.noise)

	spike := randx.Chance(r, m.anomalyRate)
	if spike {
		value += randx.Uniform(r, p.SpikeLow, p.SpikeHigh)
	}
	if p.Coupled {
		value *= 1 + p.TempCoupling*(s.Env.Temperature-p.TempBaseline) + p.HumCoupling*(s.Env.Humidity-p.HumBaseline)
	}
	value = math.Max(p.Floor, value)

	temp, hum := s.Env.Rounded()
	return Measurement{
		Temperature: temp,
		Humidity:    hum,
		NH3:         math.Round(value*1000) / 1000,
		Spike:       spike,
	}, s
}
