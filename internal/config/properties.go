// v1
// internal/config/properties.go
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

func applyProperties(cfg *Config, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, ";") {
			continue
		}
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid properties entry on line %d", line)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if err := setProperty(cfg, key, value); err != nil {
			return fmt.Errorf("property %s: %w", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read properties: %w", err)
	}
	return nil
}

// setProperty is shared by the properties file and the environment layer.
func setProperty(cfg *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "output_dir":
		if value == "" {
			return errors.New("output_dir cannot be empty")
		}
		cfg.OutputDir = filepath.Clean(value)
	case "log_path":
		cfg.LogPath = value
	case "log_level":
		cfg.LogLevel = value
	case "duration_minutes":
		v, err := parsePositiveFloat(value)
		if err != nil {
			return err
		}
		cfg.DurationMinutes = v
	case "start":
		if value == "" {
			cfg.Start = time.Time{}
			return nil
		}
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return fmt.Errorf("invalid start: %w", err)
		}
		cfg.Start = t
	case "seed":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed: %w", err)
		}
		cfg.Seed = v
	case "sensors":
		sensors := splitAndTrim(value)
		if len(sensors) == 0 {
			return errors.New("sensors cannot be empty")
		}
		cfg.Sensors = sensors
	case "scenario_path":
		cfg.ScenarioPath = value
	case "listen_address":
		if value == "" {
			return errors.New("listen_address cannot be empty")
		}
		cfg.ListenAddress = value
	case "run_ttl_seconds":
		v, err := parsePositiveFloat(value)
		if err != nil {
			return err
		}
		cfg.RunTTL = time.Duration(v * float64(time.Second))
	case "http_read_timeout_ms":
		return setMillis(&cfg.HTTPReadTimeout, value)
	case "http_write_timeout_ms":
		return setMillis(&cfg.HTTPWriteTimeout, value)
	case "shutdown_timeout_ms":
		return setMillis(&cfg.ShutdownTimeout, value)
	case "kafka_enabled":
		return setBool(&cfg.Kafka.Enabled, value)
	case "kafka_brokers":
		brokers := splitAndTrim(value)
		if len(brokers) == 0 {
			return errors.New("kafka_brokers cannot be empty")
		}
		cfg.Kafka.Brokers = brokers
	case "kafka_topic_prefix":
		cfg.Kafka.TopicPrefix = value
	case "kafka_batch_size":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid kafka_batch_size %q", value)
		}
		cfg.Kafka.BatchSize = n
	case "cb_enabled":
		return setBool(&cfg.Breaker.Enabled, value)
	case "cb_kafka_failure_threshold", "circuit.maxfailures":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		cfg.Breaker.FailureThreshold = n
	case "cb_kafka_success_threshold":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		cfg.Breaker.SuccessThreshold = n
	case "cb_kafka_open_seconds", "circuit.resetseconds":
		v, err := parsePositiveFloat(value)
		if err != nil {
			return err
		}
		cfg.Breaker.OpenTimeout = time.Duration(v * float64(time.Second))
	case "cb_kafka_timeout_ms":
		return setMillis(&cfg.Breaker.AttemptTimeout, value)
	case "cb_kafka_backoff_ms":
		return setMillis(&cfg.Breaker.Backoff, value)
	case "mqtt_enabled":
		return setBool(&cfg.MQTT.Enabled, value)
	case "mqtt_broker":
		cfg.MQTT.Broker = value
	case "mqtt_client_id":
		cfg.MQTT.ClientID = value
	case "mqtt_username":
		cfg.MQTT.Username = value
	case "mqtt_password":
		cfg.MQTT.Password = value
	case "mqtt_topic_root":
		cfg.MQTT.TopicRoot = value
	case "mqtt_qos":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n > 2 {
			return fmt.Errorf("invalid mqtt_qos %q", value)
		}
		cfg.MQTT.QoS = byte(n)
	case "influx_enabled":
		return setBool(&cfg.Influx.Enabled, value)
	case "influx_url":
		cfg.Influx.URL = value
	case "influx_token":
		cfg.Influx.Token = value
	case "influx_org":
		cfg.Influx.Org = value
	case "influx_bucket":
		cfg.Influx.Bucket = value
	case "influx_batch_size":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid influx_batch_size %q", value)
		}
		cfg.Influx.BatchSize = n
	case "nats_enabled":
		return setBool(&cfg.NATS.Enabled, value)
	case "nats_url":
		cfg.NATS.URL = value
	case "nats_stream":
		cfg.NATS.Stream = value
	case "nats_subject_prefix":
		cfg.NATS.SubjectPrefix = value
	default:
		// Unknown keys are ignored to keep the loader forward-compatible.
	}
	return nil
}

func splitAndTrim(raw string) []string {
	fields := strings.Split(raw, ",")
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		trimmed := strings.TrimSpace(field)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parsePositiveFloat(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %w", err)
	}
	if f <= 0 {
		return 0, errors.New("value must be greater than zero")
	}
	return f, nil
}

// setMillis accepts zero so retry back-off and attempt timeouts can be disabled.
func setMillis(dst *time.Duration, v string) error {
	ms, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid integer: %w", err)
	}
	if ms < 0 {
		return errors.New("value must not be negative")
	}
	*dst = time.Duration(ms) * time.Millisecond
	return nil
}

func setBool(dst *bool, v string) error {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		*dst = true
	case "0", "false", "no", "off", "":
		*dst = false
	default:
		return fmt.Errorf("invalid boolean %q", v)
	}
	return nil
}
