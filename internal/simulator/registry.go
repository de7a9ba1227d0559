// v0
// internal/simulator/registry.go
package simulator

import (
	"fmt"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/ammonia"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/occupancy"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/profile"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/sensor"
)

// Factory builds a fresh engine from per-sensor options.
type Factory func(opts sensor.Options) (sensor.Sensor, error)

// Entry is one registered sensor kind.
type Entry struct {
	Name     string
	Defaults sensor.Defaults
	New      Factory
}

var registry = buildRegistry()

func buildRegistry() []Entry {
	entries := []Entry{{
		Name:     ammonia.Type,
		Defaults: ammonia.Defaults,
		New: func(opts sensor.Options) (sensor.Sensor, error) {
			e, err := ammonia.New(opts)
			if err != nil {
				return nil, err
			}
			return e, nil
		},
	}}
	for _, loc := range []profile.Location{profile.Toilet, profile.Restaurant, profile.Mall, profile.Classroom} {
		entries = append(entries, Entry{
			Name:     occupancy.TypeFor(loc),
			Defaults: occupancy.Defaults,
			New: func(opts sensor.Options) (sensor.Sensor, error) {
				e, err := occupancy.New(loc, opts)
				if err != nil {
					return nil, err
				}
				return e, nil
			},
		})
	}
	return entries
}

// Registry returns every registered sensor in a stable order.
func Registry() []Entry {
	return append([]Entry(nil), registry...)
}

// Names returns the registered sensor names in registry order.
func Names() []string {
	out := make([]string, len(registry))
	for i, e := range registry {
		out[i] = e.Name
	}
	return out
}

func Lookup(name string) (Entry, error) {
	for _, e := range registry {
		if e.Name == name {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: unknown sensor %q", ErrInvalidConfig, name)
}

// ForLocation returns the sensors deployed at a location: the ammonia sensor
// and the location's people counter.
func ForLocation(loc string) ([]string, error) {
	l, err := profile.ParseLocation(loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return []string{ammonia.Type, occupancy.TypeFor(l)}, nil
}
