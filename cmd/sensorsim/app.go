// v0
// cmd/sensorsim/app.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/circuitbreaker"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/config"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/export"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/logging"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/metrics"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/publish"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/simulator"
)

// app holds what every command needs once configuration is resolved.
type app struct {
	cfg     config.Config
	log     *logging.Logger
	reg     *prometheus.Registry
	metrics *metrics.Recorder
	closers []io.Closer
}

// loadConfig resolves the layered configuration and applies the global flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	propsPath, _ := cmd.Flags().GetString("config")
	scenarioPath, _ := cmd.Flags().GetString("scenario")
	cfg, err := config.Load(propsPath, scenarioPath)
	if err != nil {
		return config.Config{}, err
	}
	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		cfg.LogLevel = f.Value.String()
	}
	if f := cmd.Flags().Lookup("log-file"); f != nil && f.Changed {
		cfg.LogPath = f.Value.String()
	}
	return cfg, nil
}

// newApp logs to console and the configured file; console is the command's
// stderr so stdout carries only command output.
func newApp(cfg config.Config, console io.Writer) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a := &app{
		cfg:     cfg,
		log:     logging.New(console, cfg.LogPath, level),
		reg:     reg,
		metrics: metrics.New(reg),
	}
	a.log.Info("config_loaded",
		slog.String("properties_path", cfg.PropertiesPath),
		slog.String("scenario_path", cfg.ScenarioPath),
		slog.String("output_dir", cfg.OutputDir),
		slog.Bool("kafka", cfg.Kafka.Enabled),
		slog.Bool("mqtt", cfg.MQTT.Enabled),
		slog.Bool("influx", cfg.Influx.Enabled),
		slog.Bool("nats", cfg.NATS.Enabled),
	)
	return a, nil
}

// sinks builds the CSV sink plus whichever buses are enabled.
func (a *app) sinks(ctx context.Context, withFiles bool) ([]simulator.Sink, error) {
	var out []simulator.Sink
	if withFiles {
		out = append(out, export.NewCSVSink(a.cfg.OutputDir, a.log.Logger))
	}
	if a.cfg.Kafka.Enabled {
		kb, err := circuitbreaker.NewKafkaBreaker("kafka-sink", a.cfg.Breaker, a.log.Logger, nil)
		if err != nil {
			return nil, err
		}
		a.metrics.TrackBreaker(kb.Breaker())
		ks, err := publish.NewKafkaSink(a.cfg.Kafka.KafkaConfig, kb, a.log.Logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, ks)
		out = append(out, ks)
		a.log.Info("kafka_sink_enabled", "brokers", strings.Join(a.cfg.Kafka.Brokers, ","), "breaker", kb.Enabled())
	}
	if a.cfg.MQTT.Enabled {
		ms, err := publish.NewMQTTSink(a.cfg.MQTT.MQTTConfig, a.log.Logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, ms)
		out = append(out, ms)
		a.log.Info("mqtt_sink_enabled", "broker", a.cfg.MQTT.Broker)
	}
	if a.cfg.Influx.Enabled {
		is, err := publish.NewInfluxSink(a.cfg.Influx.InfluxConfig, a.log.Logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, is)
		out = append(out, is)
		a.log.Info("influx_sink_enabled", "url", a.cfg.Influx.URL, "bucket", a.cfg.Influx.Bucket)
	}
	if a.cfg.NATS.Enabled {
		ns, err := publish.NewNATSSink(ctx, a.cfg.NATS.NATSConfig, a.log.Logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, ns)
		out = append(out, ns)
		a.log.Info("nats_sink_enabled", "url", a.cfg.NATS.URL, "stream", a.cfg.NATS.Stream)
	}
	return out, nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.log.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close log: %w", err))
	}
	return errors.Join(errs...)
}
