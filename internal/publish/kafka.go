// v0
// internal/publish/kafka.go
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/circuitbreaker"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/sensor"
)

const defaultBatchSize = 500

type KafkaConfig struct {
	Brokers     []string
	TopicPrefix string
	BatchSize   int
}

// Topic returns the topic a dataset called name is published to.
func (c KafkaConfig) Topic(name string) string {
	if c.TopicPrefix == "" {
		return name
	}
	return c.TopicPrefix + "." + name
}

type kafkaWriteCloser interface {
	Close() error
}

// KafkaSink publishes each reading to <prefix>.<dataset>, keyed by devEUI so
// one device stays on one partition.
type KafkaSink struct {
	cfg    KafkaConfig
	writer circuitbreaker.MessageWriter
	closer kafkaWriteCloser
	log    *slog.Logger
}

// NewKafkaSink dials nothing up front; kafka-go connects on the first write.
func NewKafkaSink(cfg KafkaConfig, breaker *circuitbreaker.KafkaBreaker, logger *slog.Logger) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka sink: no brokers configured")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return newKafkaSinkWithWriter(cfg, logger, circuitbreaker.NewCBKafkaWriter(w, breaker), w), nil
}

func newKafkaSinkWithWriter(cfg KafkaConfig, logger *slog.Logger, w circuitbreaker.MessageWriter, c kafkaWriteCloser) *KafkaSink {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaSink{cfg: cfg, writer: w, closer: c, log: logger}
}

func (s *KafkaSink) Name() string        { return "kafka" }
func (s *KafkaSink) PerSensorOnly() bool { return true }

func (s *KafkaSink) WriteDataset(ctx context.Context, ds sensor.Dataset) error {
	topic := s.cfg.Topic(ds.Name)
	batch := make([]kafka.Message, 0, min(s.cfg.BatchSize, ds.Len()))
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.writer.WriteMessages(ctx, batch...); err != nil {
			s.log.Error("kafka write failed", "topic", topic, "err", err)
			return fmt.Errorf("publish %s: %w", topic, err)
		}
		batch = batch[:0]
		return nil
	}
	for _, r := range ds.Readings {
		b, err := Encode(r)
		if err != nil {
			return fmt.Errorf("encode reading: %w", err)
		}
		batch = append(batch, kafka.Message{Topic: topic, Key: []byte(r.DevEUI), Value: b, Time: r.Timestamp})
		if len(batch) >= s.cfg.BatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	s.log.Info("published", "topic", topic, "rows", ds.Len(), "brokers", strings.Join(s.cfg.Brokers, ","))
	return nil
}

func (s *KafkaSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
