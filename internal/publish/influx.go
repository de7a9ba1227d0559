// v0
// internal/publish/influx.go
package publish

import (
	"context"
	"fmt"
	"log/slog"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/sensor"
)

type InfluxConfig struct {
	URL       string
	Token     string
	Org       string
	Bucket    string
	BatchSize int
}

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxSink writes one point per reading into a measurement named after the
// dataset. String columns become tags, everything else a field; missing
// values are left out of the point.
type InfluxSink struct {
	cfg    InfluxConfig
	writer pointWriter
	close  func()
	log    *slog.Logger
}

func NewInfluxSink(cfg InfluxConfig, logger *slog.Logger) (*InfluxSink, error) {
	if cfg.URL == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx sink: url, org and bucket are required")
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return newInfluxSinkWithWriter(cfg, logger, client.WriteAPIBlocking(cfg.Org, cfg.Bucket), client.Close), nil
}

func newInfluxSinkWithWriter(cfg InfluxConfig, logger *slog.Logger, w pointWriter, closeFn func()) *InfluxSink {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InfluxSink{cfg: cfg, writer: w, close: closeFn, log: logger}
}

func (s *InfluxSink) Name() string        { return "influx" }
func (s *InfluxSink) PerSensorOnly() bool { return true }

func (s *InfluxSink) WriteDataset(ctx context.Context, ds sensor.Dataset) error {
	batch := make([]*write.Point, 0, min(s.cfg.BatchSize, ds.Len()))
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.writer.WritePoint(ctx, batch...); err != nil {
			s.log.Error("influx write failed", "bucket", s.cfg.Bucket, "measurement", ds.Name, "err", err)
			return fmt.Errorf("write %s: %w", ds.Name, err)
		}
		batch = batch[:0]
		return nil
	}
	for _, r := range ds.Readings {
		batch = append(batch, Point(ds.Name, r))
		if len(batch) >= s.cfg.BatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	s.log.Info("published", "bucket", s.cfg.Bucket, "measurement", ds.Name, "rows", ds.Len())
	return nil
}

// Point converts a reading into an InfluxDB point.
func Point(measurement string, r sensor.Reading) *write.Point {
	p := influxdb2.NewPointWithMeasurement(measurement).
		AddTag("sensor_type", r.SensorType).
		AddTag("devEUI", r.DevEUI).
		AddField("battery", r.Battery).
		AddField("rssi", r.RSSI).
		AddField("snr", r.SNR).
		AddField("seqNumber", r.SeqNumber).
		SetTime(r.Timestamp)
	if r.Measurement == nil {
		return p
	}
	vals := r.Measurement.Values()
	for i, col := range r.Measurement.Columns() {
		if i >= len(vals) || vals[i] == nil {
			continue
		}
		if v, ok := vals[i].(string); ok {
			p.AddTag(col, v)
			continue
		}
		p.AddField(col, vals[i])
	}
	p.AddField("anomaly", r.Measurement.Anomaly())
	return p
}

func (s *InfluxSink) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
