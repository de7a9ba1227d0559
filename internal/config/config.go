// v1
// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/circuitbreaker"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/logging"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/publish"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/sensor"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/simulator"
)

// Config captures every runtime setting of the simulator binary. Values are
// layered: defaults, an optional properties file, an optional YAML scenario,
// environment variables and finally command-line flags.
type Config struct {
	// PropertiesPath records the properties file that was read, if any.
	PropertiesPath string
	// ScenarioPath records the YAML scenario that was read, if any.
	ScenarioPath string

	OutputDir string
	LogPath   string
	LogLevel  string

	DurationMinutes float64
	// Start of the simulated window; zero means now.
	Start   time.Time
	Seed    int64
	Sensors []string
	// Overrides holds per-sensor options keyed by sensor name.
	Overrides map[string]sensor.Options

	ListenAddress    string
	RunTTL           time.Duration
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	ShutdownTimeout  time.Duration

	Kafka   KafkaSettings
	Breaker circuitbreaker.Settings
	MQTT    MQTTSettings
	Influx  InfluxSettings
	NATS    NATSSettings
}

type KafkaSettings struct {
	Enabled bool
	publish.KafkaConfig
}

type MQTTSettings struct {
	Enabled bool
	publish.MQTTConfig
}

type InfluxSettings struct {
	Enabled bool
	publish.InfluxConfig
}

type NATSSettings struct {
	Enabled bool
	publish.NATSConfig
}

const (
	defaultPropsPath     = "sensorsim.properties"
	defaultOutputDir     = "outputs"
	defaultLogFile       = "logs/sensorsim.log"
	defaultDuration      = 1440
	defaultSeed          = 42
	defaultListenAddress = ":8088"
	defaultRunTTL        = 30 * time.Minute
	defaultReadTimeout   = 5 * time.Second
	defaultWriteTimeout  = 60 * time.Second
	defaultShutdown      = 5 * time.Second
	defaultTopicPrefix   = "sensorsim"
	defaultMQTTBroker    = "tcp://localhost:1883"
	defaultMQTTClientID  = "sensorsim"
	defaultInfluxURL     = "http://localhost:8086"
	defaultInfluxBucket  = "sensors"
	defaultNATSURL       = "nats://localhost:4222"
	defaultNATSStream    = "SENSORSIM"
)

// Default returns the configuration used when nothing else is provided.
func Default() Config {
	return Config{
		OutputDir:        defaultOutputDir,
		LogPath:          filepath.Clean(defaultLogFile),
		LogLevel:         "info",
		DurationMinutes:  defaultDuration,
		Seed:             defaultSeed,
		Sensors:          simulator.Names(),
		Overrides:        map[string]sensor.Options{},
		ListenAddress:    defaultListenAddress,
		RunTTL:           defaultRunTTL,
		HTTPReadTimeout:  defaultReadTimeout,
		HTTPWriteTimeout: defaultWriteTimeout,
		ShutdownTimeout:  defaultShutdown,
		Kafka: KafkaSettings{KafkaConfig: publish.KafkaConfig{
			Brokers:     []string{"kafka:9092"},
			TopicPrefix: defaultTopicPrefix,
		}},
		Breaker: circuitbreaker.DefaultSettings(),
		MQTT: MQTTSettings{MQTTConfig: publish.MQTTConfig{
			Broker:    defaultMQTTBroker,
			ClientID:  defaultMQTTClientID,
			TopicRoot: defaultTopicPrefix,
		}},
		Influx: InfluxSettings{InfluxConfig: publish.InfluxConfig{
			URL:    defaultInfluxURL,
			Bucket: defaultInfluxBucket,
		}},
		NATS: NATSSettings{NATSConfig: publish.NATSConfig{
			URL:           defaultNATSURL,
			Stream:        defaultNATSStream,
			SubjectPrefix: defaultTopicPrefix,
		}},
	}
}

// Load resolves configuration. A .env file, if present, only fills
// environment variables that are not already set. An empty propsPath falls back to
// SENSORSIM_PROPERTIES_PATH, then to sensorsim.properties; only an explicitly
// named file must exist. An empty scenarioPath falls back to the
// scenario_path property and SENSORSIM_SCENARIO.
func Load(propsPath, scenarioPath string) (Config, error) {
	cfg := Default()

	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}

	explicit := strings.TrimSpace(propsPath) != ""
	if !explicit {
		if v, ok := lookupEnvTrimmed("SENSORSIM_PROPERTIES_PATH"); ok && v != "" {
			propsPath, explicit = v, true
		} else {
			propsPath = defaultPropsPath
		}
	}
	if err := applyProperties(&cfg, propsPath); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	} else {
		cfg.PropertiesPath = propsPath
	}

	if scenarioPath == "" {
		scenarioPath = cfg.ScenarioPath
	}
	if v, ok := lookupEnvTrimmed("SENSORSIM_SCENARIO"); ok && scenarioPath == "" {
		scenarioPath = v
	}
	if scenarioPath != "" {
		if err := ApplyScenario(&cfg, scenarioPath); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints after all layers are applied.
func (c Config) Validate() error {
	if c.DurationMinutes <= 0 {
		return fmt.Errorf("duration must be positive, got %v min", c.DurationMinutes)
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return errors.New("output dir cannot be empty")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	for _, name := range c.Sensors {
		if _, err := simulator.Lookup(name); err != nil {
			return err
		}
	}
	for name, o := range c.Overrides {
		e, err := simulator.Lookup(name)
		if err != nil {
			return err
		}
		if _, err := sensor.NewIdentity(name, o, e.Defaults); err != nil {
			return fmt.Errorf("sensor %s: %w", name, err)
		}
	}
	if c.RunTTL <= 0 {
		return errors.New("run ttl must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka enabled without brokers")
	}
	if err := c.Breaker.Validate(); err != nil {
		return fmt.Errorf("circuit breaker: %w", err)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return errors.New("mqtt enabled without broker")
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	if c.Influx.Enabled && (c.Influx.URL == "" || c.Influx.Org == "" || c.Influx.Bucket == "") {
		return errors.New("influx enabled without url, org and bucket")
	}
	if c.NATS.Enabled && (c.NATS.URL == "" || c.NATS.Stream == "") {
		return errors.New("nats enabled without url and stream")
	}
	if strings.ContainsAny(c.NATS.Stream, ". *>") {
		return fmt.Errorf("invalid nats stream name %q", c.NATS.Stream)
	}
	return nil
}

// SimulatorOptions maps the run settings onto simulator.Options.
func (c Config) SimulatorOptions() simulator.Options {
	return simulator.Options{
		DurationMinutes: c.DurationMinutes,
		Start:           c.Start,
		Seed:            c.Seed,
		Overrides:       c.Overrides,
	}
}
