// v0
// internal/publish/mqtt.go
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/sensor"
)

type MQTTConfig struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	TopicRoot      string
	QoS            byte
	ConnectTimeout time.Duration
}

// Topic returns the topic a device of dataset name publishes to.
func (c MQTTConfig) Topic(name, devEUI string) string {
	if c.TopicRoot == "" {
		return name + "/" + devEUI
	}
	return c.TopicRoot + "/" + name + "/" + devEUI
}

type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTSink publishes one message per reading to <root>/<dataset>/<devEUI>.
type MQTTSink struct {
	cfg    MQTTConfig
	client mqttPublisher
	log    *slog.Logger
}

// NewMQTTSink connects to the broker and fails if it is not reachable within
// the connect timeout.
func NewMQTTSink(cfg MQTTConfig, logger *slog.Logger) (*MQTTSink, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt sink: no broker configured")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect %s: timed out after %s", cfg.Broker, cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, err)
	}
	return newMQTTSinkWithClient(cfg, logger, client), nil
}

func newMQTTSinkWithClient(cfg MQTTConfig, logger *slog.Logger, client mqttPublisher) *MQTTSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &MQTTSink{cfg: cfg, client: client, log: logger}
}

func (s *MQTTSink) Name() string        { return "mqtt" }
func (s *MQTTSink) PerSensorOnly() bool { return true }

func (s *MQTTSink) WriteDataset(ctx context.Context, ds sensor.Dataset) error {
	for _, r := range ds.Readings {
		payload, err := Encode(r)
		if err != nil {
			return fmt.Errorf("encode reading: %w", err)
		}
		topic := s.cfg.Topic(ds.Name, r.DevEUI)
		token := s.client.Publish(topic, s.cfg.QoS, false, payload)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-token.Done():
		}
		if err := token.Error(); err != nil {
			s.log.Error("Failed to publish sensor data", "topic", topic, "err", err)
			return fmt.Errorf("publish %s: %w", topic, err)
		}
	}
	s.log.Info("published", "broker", s.cfg.Broker, "dataset", ds.Name, "rows", ds.Len())
	return nil
}

func (s *MQTTSink) Close() error {
	s.client.Disconnect(250)
	return nil
}
