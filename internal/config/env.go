// v1
// internal/config/env.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// envKeys maps environment variables onto property keys, in the order they
// are applied. KAFKA_BROKERS, the CB_* and the INFLUX_* names are shared with
// the other services on the same stack.
var envKeys = []struct{ env, key string }{
	{"SENSORSIM_OUTPUT_DIR", "output_dir"},
	{"SENSORSIM_LOG_PATH", "log_path"},
	{"SENSORSIM_LOG_LEVEL", "log_level"},
	{"SENSORSIM_DURATION_MINUTES", "duration_minutes"},
	{"SENSORSIM_START", "start"},
	{"SENSORSIM_SEED", "seed"},
	{"SENSORSIM_SENSORS", "sensors"},
	{"SENSORSIM_LISTEN_ADDRESS", "listen_address"},
	{"SENSORSIM_RUN_TTL_SECONDS", "run_ttl_seconds"},
	{"SENSORSIM_HTTP_READ_TIMEOUT_MS", "http_read_timeout_ms"},
	{"SENSORSIM_HTTP_WRITE_TIMEOUT_MS", "http_write_timeout_ms"},
	{"SENSORSIM_SHUTDOWN_TIMEOUT_MS", "shutdown_timeout_ms"},
	{"SENSORSIM_KAFKA_ENABLED", "kafka_enabled"},
	{"KAFKA_BROKERS", "kafka_brokers"},
	{"SENSORSIM_KAFKA_BROKERS", "kafka_brokers"},
	{"SENSORSIM_KAFKA_TOPIC_PREFIX", "kafka_topic_prefix"},
	{"SENSORSIM_KAFKA_BATCH_SIZE", "kafka_batch_size"},
	{"CB_ENABLED", "cb_enabled"},
	{"CB_KAFKA_FAILURE_THRESHOLD", "cb_kafka_failure_threshold"},
	{"CB_KAFKA_SUCCESS_THRESHOLD", "cb_kafka_success_threshold"},
	{"CB_KAFKA_OPEN_SECONDS", "cb_kafka_open_seconds"},
	{"CB_KAFKA_TIMEOUT_MS", "cb_kafka_timeout_ms"},
	{"CB_KAFKA_BACKOFF_MS", "cb_kafka_backoff_ms"},
	{"SENSORSIM_MQTT_ENABLED", "mqtt_enabled"},
	{"SENSORSIM_MQTT_BROKER", "mqtt_broker"},
	{"SENSORSIM_MQTT_CLIENT_ID", "mqtt_client_id"},
	{"SENSORSIM_MQTT_USERNAME", "mqtt_username"},
	{"SENSORSIM_MQTT_PASSWORD", "mqtt_password"},
	{"SENSORSIM_MQTT_TOPIC_ROOT", "mqtt_topic_root"},
	{"SENSORSIM_MQTT_QOS", "mqtt_qos"},
	{"SENSORSIM_INFLUX_ENABLED", "influx_enabled"},
	{"INFLUX_URL", "influx_url"},
	{"INFLUX_TOKEN", "influx_token"},
	{"INFLUX_ORG", "influx_org"},
	{"INFLUX_BUCKET", "influx_bucket"},
	{"SENSORSIM_INFLUX_BATCH_SIZE", "influx_batch_size"},
	{"SENSORSIM_NATS_ENABLED", "nats_enabled"},
	{"NATS_URL", "nats_url"},
	{"SENSORSIM_NATS_STREAM", "nats_stream"},
	{"SENSORSIM_NATS_SUBJECT_PREFIX", "nats_subject_prefix"},
}

// loadDotEnv reads SENSORSIM_ENV_FILE, or .env in the working directory.
// Variables already present in the environment win. Only an explicitly named
// file must exist.
func loadDotEnv() error {
	path, explicit := lookupEnvTrimmed("SENSORSIM_ENV_FILE")
	if !explicit || path == "" {
		path, explicit = ".env", false
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	for _, e := range envKeys {
		v, ok := lookupEnvTrimmed(e.env)
		if !ok {
			continue
		}
		if err := setProperty(cfg, e.key, v); err != nil {
			return fmt.Errorf("%s: %w", e.env, err)
		}
	}
	return nil
}

func lookupEnvTrimmed(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}
