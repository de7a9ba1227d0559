// v0
// internal/sensor/reading.go
package sensor

import (
	"sort"
	"time"
)

// BaseColumns are emitted by every sensor type, in this order.
var BaseColumns = []string{"timestamp", "sensor_type", "devEUI", "battery", "rssi", "snr", "seqNumber"}

// Measurement is the domain part of a reading. Values is aligned with
// Columns; a nil entry is a missing value.
type Measurement interface {
	Columns() []string
	Values() []any
	Valid() bool
	Anomaly() bool
}

type Reading struct {
	Timestamp   time.Time
	SensorType  string
	DevEUI      string
	Battery     float64
	RSSI        float64
	SNR         float64
	SeqNumber   int
	Measurement Measurement
}

// Fields returns the reading keyed by column name.
func (r Reading) Fields() map[string]any {
	out := map[string]any{
		"timestamp":   r.Timestamp,
		"sensor_type": r.SensorType,
		"devEUI":      r.DevEUI,
		"battery":     r.Battery,
		"rssi":        r.RSSI,
		"snr":         r.SNR,
		"seqNumber":   r.SeqNumber,
	}
	if r.Measurement != nil {
		vals := r.Measurement.Values()
		for i, col := range r.Measurement.Columns() {
			if i < len(vals) {
				out[col] = vals[i]
			}
		}
	}
	return out
}

// Row projects the reading onto columns; absent columns are nil.
func (r Reading) Row(columns []string) []any {
	fields := r.Fields()
	row := make([]any, len(columns))
	for i, col := range columns {
		row[i] = fields[col]
	}
	return row
}

// Dataset is one table of readings sorted by timestamp.
type Dataset struct {
	Name     string
	Columns  []string
	Readings []Reading
}

func (d Dataset) Len() int { return len(d.Readings) }

// Merge concatenates datasets in argument order and stably sorts the result
// by timestamp. Columns are the union of the inputs in first-seen order.
func Merge(name string, sets ...Dataset) Dataset {
	var (
		cols  []string
		seen  = map[string]bool{}
		total int
	)
	for _, ds := range sets {
		total += len(ds.Readings)
		for _, c := range ds.Columns {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}
	readings := make([]Reading, 0, total)
	for _, ds := range sets {
		readings = append(readings, ds.Readings...)
	}
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})
	return Dataset{Name: name, Columns: cols, Readings: readings}
}
