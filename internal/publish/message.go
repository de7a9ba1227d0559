// v0
// internal/publish/message.go

// Package publish forwards datasets to message buses and time-series stores.
// Kafka goes through the circuit-breaker writer, MQTT through a paho client,
// NATS through JetStream and InfluxDB through the blocking write API. Bus
// messages are one JSON object per reading keyed by column name; missing
// values are null.
package publish

import (
	"encoding/json"
	"time"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/sensor"
)

// Encode renders one reading as a JSON object.
func Encode(r sensor.Reading) ([]byte, error) {
	fields := r.Fields()
	fields["timestamp"] = r.Timestamp.Format(time.RFC3339)
	return json.Marshal(fields)
}
