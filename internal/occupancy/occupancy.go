// v0
// internal/occupancy/occupancy.go

// Package occupancy models a people counter at a doorway. Each step is either
// ACTIVE (Poisson inflow/outflow scaled by location and time of day) or in a
// COOLDOWN run of idle steps. Occupancy never exceeds the location capacity
// and, outside anomalies, never loses more people than are present.
package occupancy

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/profile"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/randx"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/sensor"
)

// TypePrefix prefixes the location in the sensor_type column.
const TypePrefix = "people_counter_"

const (
	minCooldown = 2
	maxCooldown = 5
)

var columns = []string{"period_in", "period_out", "current_occupancy", "location"}

// Defaults applied to zero-valued sensor.Options.
var Defaults = sensor.Defaults{IntervalSeconds: 300, NoiseLevel: 0.5, AnomalyRate: 0.01}

// TypeFor returns the sensor type of a counter installed at loc.
func TypeFor(loc profile.Location) string { return TypePrefix + string(loc) }

// State carries the running count and the idle countdown.
type State struct {
	Occupancy int
	Cooldown  int
}

// Active reports whether the counter is outside a cooldown run.
func (s State) Active() bool { return s.Cooldown == 0 }

// AnomalyKind labels an injected out-of-distribution step.
type AnomalyKind string

const (
	NoAnomaly   AnomalyKind = ""
	SpikeEvent  AnomalyKind = "spike"
	ZeroedEvent AnomalyKind = "zero"
)

type Measurement struct {
	In        int
	Out       int
	Occupancy int
	Location  profile.Location
	Kind      AnomalyKind
	Missing   bool
}

func (m Measurement) Columns() []string { return columns }

func (m Measurement) Values() []any {
	if m.Missing {
		return []any{nil, nil, m.Occupancy, string(m.Location)}
	}
	return []any{m.In, m.Out, m.Occupancy, string(m.Location)}
}

func (m Measurement) Valid() bool   { return !m.Missing }
func (m Measurement) Anomaly() bool { return m.Kind != NoAnomaly }

// Model implements sensor.Model[State] for one location profile.
type Model struct {
	prof        profile.Profile
	noise       float64
	anomalyRate float64
}

func NewModel(id sensor.Identity, loc profile.Location) (Model, error) {
	p, err := profile.Lookup(loc)
	if err != nil {
		return Model{}, fmt.Errorf("%w: %v", sensor.ErrInvalidConfig, err)
	}
	return Model{prof: p, noise: id.NoiseLevel, anomalyRate: id.AnomalyRate}, nil
}

// New returns a ready-to-run people counter engine for loc.
func New(loc profile.Location, opts sensor.Options) (*sensor.Engine[State], error) {
	p, err := profile.Lookup(loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sensor.ErrInvalidConfig, err)
	}
	id, err := sensor.NewIdentity(TypeFor(p.Location), opts, Defaults)
	if err != nil {
		return nil, err
	}
	m, err := NewModel(id, p.Location)
	if err != nil {
		return nil, err
	}
	return sensor.NewEngine[State](id, m)
}

func (m Model) Type() string                     { return TypeFor(m.prof.Location) }
func (m Model) Columns() []string                { return columns }
func (m Model) Profile() profile.Profile         { return m.prof }
func (m Model) Init(time.Time, *rand.Rand) State { return State{} }

func (m Model) Step(s State, tick sensor.Tick, r *rand.Rand) (sensor.Measurement, State) {
	hour := tick.At.Hour()
	var in, out int
	switch {
	case s.Cooldown > 0:
		s.Cooldown--
	case randx.Chance(r, m.prof.ActivityProb):
		in = randx.Poisson(r, m.flowMean(hour, r))
		out = randx.Poisson(r, m.flowMean(hour, r))
	default:
		s.Cooldown = randx.IntRange(r, minCooldown, maxCooldown)
	}
	in = m.noisy(in, r)
	out = m.noisy(out, r)

	kind := NoAnomaly
	if randx.Chance(r, m.anomalyRate) {
		if r.IntN(2) == 0 {
			kind = SpikeEvent
			in = randx.Poisson(r, m.spikeMean(hour, r))
			out = randx.Poisson(r, m.spikeMean(hour, r))
		} else {
			kind = ZeroedEvent
			in, out = 0, 0
		}
	}

	if tick.Dropped {
		return Measurement{Occupancy: s.Occupancy, Location: m.prof.Location, Missing: true}, s
	}
	if kind == NoAnomaly {
		out = min(out, s.Occupancy)
	}
	s.Occupancy = max(0, min(s.Occupancy+in-out, m.prof.MaxCapacity))

	return Measurement{
		In:        in,
		Out:       out,
		Occupancy: s.Occupancy,
		Location:  m.prof.Location,
		Kind:      kind,
	}, s
}

func (m Model) flowMean(hour int, r *rand.Rand) float64 {
	rg := m.prof.FlowRange(hour)
	return randx.Uniform(r, rg.Low, rg.High)
}

func (m Model) spikeMean(hour int, r *rand.Rand) float64 {
	k := m.prof.SpikeMultiplier
	return math.Max(1, m.flowMean(hour, r)*randx.Uniform(r, k/2, k))
}

func (m Model) noisy(v int, r *rand.Rand) int {
	return max(0, int(math.Round(float64(v)+randx.Normal(r, 0, m.noise))))
}
