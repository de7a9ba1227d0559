// v0
// internal/ammonia/ammonia_test.go
package ammonia

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/sensor"
)

var start = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func TestDayAt900SecondsYields96Rows(t *testing.T) {
	e, err := New(sensor.Options{IntervalSeconds: 900, AnomalyRate: sensor.Rate(0.02), Seed: sensor.Seed(42)})
	require.NoError(t, err)
	ds, err := e.Generate(1440, start)
	require.NoError(t, err)
	require.Equal(t, 96, ds.Len())
	for _, r := range ds.Readings {
		assert.Equal(t, "ammonia", r.SensorType)
		m := r.Measurement.(Measurement)
		assert.GreaterOrEqual(t, m.NH3, 0.05)
		assert.GreaterOrEqual(t, m.Temperature, 20.0)
		assert.LessOrEqual(t, m.Temperature, 40.0)
		assert.GreaterOrEqual(t, m.Humidity, 20.0)
		assert.LessOrEqual(t, m.Humidity, 95.0)
	}
	assert.Equal(t, []string{"timestamp", "sensor_type", "devEUI", "battery", "rssi", "snr", "seqNumber", "temperature", "humidity", "nh3"}, ds.Columns)
}

func TestDeterministicGivenSeed(t *testing.T) {
	run := func() sensor.Dataset {
		e, err := New(sensor.Options{Seed: sensor.Seed(42), DevEUI: "00112233445566aa"})
		require.NoError(t, err)
		ds, err := e.Generate(1440, start)
		require.NoError(t, err)
		return ds
	}
	assert.Equal(t, run(), run())
}

func TestSpikeFractionMatchesAnomalyRate(t *testing.T) {
	const (
		rate  = 0.05
		steps = 20000
	)
	e, err := New(sensor.Options{IntervalSeconds: 60, AnomalyRate: sensor.Rate(rate), Seed: sensor.Seed(1)})
	require.NoError(t, err)
	ds, err := e.Generate(steps, start)
	require.NoError(t, err)
	require.Equal(t, steps, ds.Len())

	spikes := 0
	for _, r := range ds.Readings {
		m := r.Measurement.(Measurement)
		if m.NH3 >= 50 {
			spikes++
			assert.True(t, m.Spike)
		} else {
			assert.False(t, m.Spike)
		}
	}
	frac := float64(spikes) / steps
	tol := 4 * math.Sqrt(rate*(1-rate)/steps)
	assert.InDelta(t, rate, frac, tol)
}

func TestNoAnomaliesStayNearBaseline(t *testing.T) {
	e, err := New(sensor.Options{AnomalyRate: sensor.Rate(0), Seed: sensor.Seed(8)})
	require.NoError(t, err)
	ds, err := e.Generate(2880, start)
	require.NoError(t, err)
	for _, r := range ds.Readings {
		assert.Less(t, r.Measurement.(Measurement).NH3, 0.3)
	}
}

func TestDroppedStepIsMissing(t *testing.T) {
	e, err := New(sensor.Options{DropoutRate: 1, Seed: sensor.Seed(2)})
	require.NoError(t, err)
	ds, err := e.Generate(60, start)
	require.NoError(t, err)
	for _, r := range ds.Readings {
		assert.False(t, r.Measurement.Valid())
		assert.Equal(t, []any{nil, nil, nil}, r.Measurement.Values())
		assert.Equal(t, 100.0, r.Battery)
	}
}

func TestEnvironmentPersistsAcrossCalls(t *testing.T) {
	e, err := New(sensor.Options{Seed: sensor.Seed(3)})
	require.NoError(t, err)
	_, err = e.Generate(60, start)
	require.NoError(t, err)
	before := e.Snapshot().Domain.Env
	require.True(t, before.Initialized)

	ds, err := e.Generate(5, start.Add(time.Hour))
	require.NoError(t, err)
	m := ds.Readings[0].Measurement.(Measurement)
	assert.InDelta(t, before.Temperature, m.Temperature, 0.36)
}
