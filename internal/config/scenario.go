// v1
// internal/config/scenario.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/sensor"
)

// Scenario is the YAML description of a simulation run. Unset fields keep
// the values of the lower layers.
//
//	durationMinutes: 1440
//	start: 2025-06-02T00:00:00Z
//	seed: 42
//	outputDir: outputs
//	sensors:
//	  - name: ammonia
//	    anomalyRate: 0.02
//	  - name: people_counter_mall
//	    intervalSeconds: 60
//	    dropoutRate: 0.01
type Scenario struct {
	DurationMinutes float64          `yaml:"durationMinutes,omitempty"`
	Start           *time.Time       `yaml:"start,omitempty"`
	Seed            *int64           `yaml:"seed,omitempty"`
	OutputDir       string           `yaml:"outputDir,omitempty"`
	Sensors         []SensorScenario `yaml:"sensors,omitempty"`
}

// SensorScenario configures one sensor of a scenario.
type SensorScenario struct {
	Name            string   `yaml:"name"`
	DevEUI          string   `yaml:"devEUI,omitempty"`
	IntervalSeconds float64  `yaml:"intervalSeconds,omitempty"`
	NoiseLevel      *float64 `yaml:"noiseLevel,omitempty"`
	AnomalyRate     *float64 `yaml:"anomalyRate,omitempty"`
	DropoutRate     float64  `yaml:"dropoutRate,omitempty"`
	LifetimeYears   float64  `yaml:"lifetimeYears,omitempty"`
	Seed            *int64   `yaml:"seed,omitempty"`
}

func (s SensorScenario) Options() sensor.Options {
	return sensor.Options{
		DevEUI:          s.DevEUI,
		IntervalSeconds: s.IntervalSeconds,
		NoiseLevel:      s.NoiseLevel,
		AnomalyRate:     s.AnomalyRate,
		DropoutRate:     s.DropoutRate,
		LifetimeYears:   s.LifetimeYears,
		Seed:            s.Seed,
	}
}

// LoadScenario parses a scenario file.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("reading scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	seen := map[string]bool{}
	for i, s := range sc.Sensors {
		if s.Name == "" {
			return Scenario{}, fmt.Errorf("scenario %s: sensor %d has no name", path, i)
		}
		if seen[s.Name] {
			return Scenario{}, fmt.Errorf("scenario %s: sensor %q listed twice", path, s.Name)
		}
		seen[s.Name] = true
	}
	return sc, nil
}

// ApplyScenario layers the scenario at path over cfg. Listing sensors
// replaces the configured sensor list.
func ApplyScenario(cfg *Config, path string) error {
	sc, err := LoadScenario(path)
	if err != nil {
		return err
	}
	cfg.ScenarioPath = path
	if sc.DurationMinutes != 0 {
		cfg.DurationMinutes = sc.DurationMinutes
	}
	if sc.Start != nil {
		cfg.Start = *sc.Start
	}
	if sc.Seed != nil {
		cfg.Seed = *sc.Seed
	}
	if sc.OutputDir != "" {
		cfg.OutputDir = filepath.Clean(sc.OutputDir)
	}
	if len(sc.Sensors) > 0 {
		cfg.Sensors = make([]string, 0, len(sc.Sensors))
		if cfg.Overrides == nil {
			cfg.Overrides = map[string]sensor.Options{}
		}
		for _, s := range sc.Sensors {
			cfg.Sensors = append(cfg.Sensors, s.Name)
			cfg.Overrides[s.Name] = s.Options()
		}
	}
	return nil
}
