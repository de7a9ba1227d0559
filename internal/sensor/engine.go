// v0
// internal/sensor/engine.go
package sensor

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/radio"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/randx"
)

// Tick is the per-step input handed to a domain model.
type Tick struct {
	// Index counts steps over the engine lifetime, across Generate calls.
	Index int
	At    time.Time
	// Dropped marks a step whose domain values are lost.
	Dropped bool
}

// Model produces one measurement per step from an explicit state value.
type Model[S any] interface {
	Type() string
	Columns() []string
	Init(start time.Time, r *rand.Rand) S
	Step(state S, tick Tick, r *rand.Rand) (Measurement, S)
}

// Sensor is the type-erased view of an Engine used by the orchestrator.
type Sensor interface {
	Identity() Identity
	Columns() []string
	Generate(durationMinutes float64, start time.Time) (Dataset, error)
	Reset()
}

// Snapshot captures everything an engine carries between Generate calls.
type Snapshot[S any] struct {
	Domain  S
	Radio   radio.State
	Step    int
	Started bool
}

// Engine runs a domain model and a radio model off one private generator.
type Engine[S any] struct {
	id    Identity
	model Model[S]
	radio radio.Model
	rng   *rand.Rand
	snap  Snapshot[S]
}

// NewEngine builds an engine for id. The generator is seeded from id.Seed.
func NewEngine[S any](id Identity, model Model[S]) (*Engine[S], error) {
	rm, err := radio.New(radio.Config{
		IntervalSeconds: id.IntervalSeconds,
		AnomalyRate:     id.AnomalyRate,
		LifetimeYears:   id.LifetimeYears,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &Engine[S]{id: id, model: model, radio: rm, rng: randx.New(id.Seed)}, nil
}

func (e *Engine[S]) Identity() Identity { return e.id }

func (e *Engine[S]) Columns() []string {
	return append(append([]string(nil), BaseColumns...), e.model.Columns()...)
}

// Snapshot returns the state carried into the next Generate call.
func (e *Engine[S]) Snapshot() Snapshot[S] { return e.snap }

// Restore replaces the carried state, e.g. to resume a saved simulation.
func (e *Engine[S]) Restore(s Snapshot[S]) { e.snap = s }

// Reset forgets all carried state and reseeds the generator, so the next
// Generate call reproduces the first one.
func (e *Engine[S]) Reset() {
	e.snap = Snapshot[S]{}
	e.rng = randx.New(e.id.Seed)
}

// Generate produces durationMinutes worth of readings starting at start.
// Domain, radio and step state continue from the previous call.
func (e *Engine[S]) Generate(durationMinutes float64, start time.Time) (Dataset, error) {
	if err := CheckSteps(durationMinutes, e.id.IntervalSeconds); err != nil {
		return Dataset{}, err
	}
	n := StepCount(durationMinutes, e.id.IntervalSeconds)
	if !e.snap.Started {
		e.snap = Snapshot[S]{
			Domain:  e.model.Init(start, e.rng),
			Radio:   e.radio.Initial(),
			Started: true,
		}
	}
	interval := e.id.Interval()
	readings := make([]Reading, 0, n)
	for i := 0; i < n; i++ {
		tick := Tick{
			Index:   e.snap.Step,
			At:      start.Add(time.Duration(i) * interval),
			Dropped: randx.Chance(e.rng, e.id.DropoutRate),
		}
		m, next := e.model.Step(e.snap.Domain, tick, e.rng)
		em, rs := e.radio.Step(e.snap.Radio, m.Valid(), e.rng)
		e.snap.Domain, e.snap.Radio = next, rs
		e.snap.Step++
		readings = append(readings, Reading{
			Timestamp:   tick.At,
			SensorType:  e.id.Type,
			DevEUI:      e.id.DevEUI,
			Battery:     em.Battery,
			RSSI:        em.RSSI,
			SNR:         em.SNR,
			SeqNumber:   em.Seq,
			Measurement: m,
		})
	}
	return Dataset{Name: e.id.Type, Columns: e.Columns(), Readings: readings}, nil
}
