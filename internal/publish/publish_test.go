// v0
// internal/publish/publish_test.go
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/segmentio/kafka-go"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/ammonia"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/sensor"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func ammoniaDataset(t *testing.T, dropout float64) sensor.Dataset {
	t.Helper()
	e, err := ammonia.New(sensor.Options{Seed: sensor.Seed(42), DropoutRate: dropout, DevEUI: "0011223344556677"})
	if err != nil {
		t.Fatalf("new sensor: %v", err)
	}
	ds, err := e.Generate(60, time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return ds
}

type recordingWriter struct {
	mu      sync.Mutex
	batches [][]kafka.Message
	err     error
	closed  bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.batches = append(w.batches, append([]kafka.Message(nil), msgs...))
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestEncodeMissingValuesAsNull(t *testing.T) {
	ds := ammoniaDataset(t, 1)
	b, err := Encode(ds.Readings[0])
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, ok := got["nh3"]; !ok || v != nil {
		t.Fatalf("nh3 = %v (present=%v), want null", v, ok)
	}
	if got["timestamp"] != "2025-06-02T08:00:00Z" {
		t.Fatalf("timestamp = %v", got["timestamp"])
	}
	if got["devEUI"] != "0011223344556677" {
		t.Fatalf("devEUI = %v", got["devEUI"])
	}
}

func TestKafkaSinkBatchesKeyedMessages(t *testing.T) {
	w := &recordingWriter{}
	sink := newKafkaSinkWithWriter(KafkaConfig{Brokers: []string{"kafka:9092"}, TopicPrefix: "sensorsim", BatchSize: 5}, quietLogger(), w, w)
	ds := ammoniaDataset(t, 0)
	if err := sink.WriteDataset(context.Background(), ds); err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(w.batches) != 3 {
		t.Fatalf("expected 3 batches for 12 rows, got %d", len(w.batches))
	}
	total := 0
	for _, batch := range w.batches {
		for _, m := range batch {
			total++
			if m.Topic != "sensorsim.ammonia" {
				t.Fatalf("topic = %q", m.Topic)
			}
			if string(m.Key) != "0011223344556677" {
				t.Fatalf("key = %q", m.Key)
			}
		}
	}
	if total != ds.Len() {
		t.Fatalf("published %d of %d readings", total, ds.Len())
	}
	if first := w.batches[0][0]; !first.Time.Equal(ds.Readings[0].Timestamp) {
		t.Fatalf("message time %v, want %v", first.Time, ds.Readings[0].Timestamp)
	}
	if !sink.PerSensorOnly() {
		t.Fatalf("kafka sink must skip the combined dataset")
	}
	if err := sink.Close(); err != nil || !w.closed {
		t.Fatalf("close: err=%v closed=%v", err, w.closed)
	}
}

func TestKafkaSinkPropagatesWriteErrors(t *testing.T) {
	w := &recordingWriter{err: errors.New("leader not available")}
	sink := newKafkaSinkWithWriter(KafkaConfig{TopicPrefix: "p"}, quietLogger(), w, nil)
	if err := sink.WriteDataset(context.Background(), ammoniaDataset(t, 0)); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewKafkaSinkNeedsBrokers(t *testing.T) {
	if _, err := NewKafkaSink(KafkaConfig{}, nil, quietLogger()); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type stubMQTT struct {
	topics   []string
	payloads [][]byte
	qos      []byte
	err      error
	quiesced bool
}

func (c *stubMQTT) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	c.topics = append(c.topics, topic)
	c.qos = append(c.qos, qos)
	c.payloads = append(c.payloads, payload.([]byte))
	return doneToken{err: c.err}
}

func (c *stubMQTT) Disconnect(uint) { c.quiesced = true }

func TestMQTTSinkPublishesPerReading(t *testing.T) {
	client := &stubMQTT{}
	sink := newMQTTSinkWithClient(MQTTConfig{Broker: "tcp://mosquitto:1883", TopicRoot: "sensors", QoS: 1}, quietLogger(), client)
	ds := ammoniaDataset(t, 0)
	if err := sink.WriteDataset(context.Background(), ds); err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(client.topics) != ds.Len() {
		t.Fatalf("published %d of %d", len(client.topics), ds.Len())
	}
	if client.topics[0] != "sensors/ammonia/0011223344556677" || client.qos[0] != 1 {
		t.Fatalf("topic=%q qos=%d", client.topics[0], client.qos[0])
	}
	var msg map[string]any
	if err := json.Unmarshal(client.payloads[0], &msg); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if msg["sensor_type"] != "ammonia" {
		t.Fatalf("sensor_type = %v", msg["sensor_type"])
	}
	_ = sink.Close()
	if !client.quiesced {
		t.Fatalf("close must disconnect")
	}
}

func TestMQTTSinkStopsOnPublishError(t *testing.T) {
	client := &stubMQTT{err: errors.New("not connected")}
	sink := newMQTTSinkWithClient(MQTTConfig{TopicRoot: "s"}, quietLogger(), client)
	if err := sink.WriteDataset(context.Background(), ammoniaDataset(t, 0)); err == nil {
		t.Fatalf("expected error")
	}
	if len(client.topics) != 1 {
		t.Fatalf("expected to stop after the first failure, got %d publishes", len(client.topics))
	}
}

type recordingPoints struct {
	points []*write.Point
	calls  int
	err    error
}

func (w *recordingPoints) WritePoint(_ context.Context, p ...*write.Point) error {
	w.calls++
	if w.err != nil {
		return w.err
	}
	w.points = append(w.points, p...)
	return nil
}

func fieldMap(p *write.Point) map[string]any {
	out := map[string]any{}
	for _, f := range p.FieldList() {
		out[f.Key] = f.Value
	}
	return out
}

func tagMap(p *write.Point) map[string]string {
	out := map[string]string{}
	for _, t := range p.TagList() {
		out[t.Key] = t.Value
	}
	return out
}

func TestInfluxSinkWritesPointsInBatches(t *testing.T) {
	w := &recordingPoints{}
	closed := false
	sink := newInfluxSinkWithWriter(InfluxConfig{Bucket: "sensors", BatchSize: 5}, quietLogger(), w, func() { closed = true })
	ds := ammoniaDataset(t, 0)
	if err := sink.WriteDataset(context.Background(), ds); err != nil {
		t.Fatalf("write: %v", err)
	}
	if w.calls != 3 || len(w.points) != ds.Len() {
		t.Fatalf("calls=%d points=%d rows=%d", w.calls, len(w.points), ds.Len())
	}
	p := w.points[0]
	if p.Name() != "ammonia" || !p.Time().Equal(ds.Readings[0].Timestamp) {
		t.Fatalf("name=%q time=%v", p.Name(), p.Time())
	}
	if tags := tagMap(p); tags["devEUI"] != "0011223344556677" || tags["sensor_type"] != "ammonia" {
		t.Fatalf("tags = %v", tags)
	}
	fields := fieldMap(p)
	for _, k := range []string{"battery", "rssi", "snr", "seqNumber", "temperature", "humidity", "nh3", "anomaly"} {
		if _, ok := fields[k]; !ok {
			t.Fatalf("field %s missing from %v", k, fields)
		}
	}
	_ = sink.Close()
	if !closed {
		t.Fatalf("close must release the client")
	}
}

func TestInfluxPointOmitsMissingValues(t *testing.T) {
	ds := ammoniaDataset(t, 1)
	fields := fieldMap(Point(ds.Name, ds.Readings[0]))
	if _, ok := fields["nh3"]; ok {
		t.Fatalf("missing nh3 must not be written: %v", fields)
	}
	if _, ok := fields["battery"]; !ok {
		t.Fatalf("radio fields are always present")
	}
}

func TestInfluxSinkPropagatesWriteErrors(t *testing.T) {
	w := &recordingPoints{err: errors.New("unauthorized")}
	sink := newInfluxSinkWithWriter(InfluxConfig{Bucket: "b"}, quietLogger(), w, nil)
	if err := sink.WriteDataset(context.Background(), ammoniaDataset(t, 0)); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := NewInfluxSink(InfluxConfig{URL: "http://influx:8086"}, quietLogger()); err == nil {
		t.Fatalf("expected error without org and bucket")
	}
}

type stubJetStream struct {
	subjects []string
	ids      []string
	err      error
}

func (s *stubJetStream) Publish(_ context.Context, subject string, _ []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	s.subjects = append(s.subjects, subject)
	s.ids = append(s.ids, fmt.Sprint(len(opts)))
	if s.err != nil {
		return nil, s.err
	}
	return &jetstream.PubAck{Stream: "SENSORSIM"}, nil
}

func TestNATSSinkPublishesWithMessageIDs(t *testing.T) {
	js := &stubJetStream{}
	sink := newNATSSinkWithPublisher(NATSConfig{Stream: "SENSORSIM", SubjectPrefix: "sensorsim"}, quietLogger(), js, nil)
	ds := ammoniaDataset(t, 0)
	if err := sink.WriteDataset(context.Background(), ds); err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(js.subjects) != ds.Len() {
		t.Fatalf("published %d of %d", len(js.subjects), ds.Len())
	}
	if js.subjects[0] != "sensorsim.ammonia.0011223344556677" {
		t.Fatalf("subject = %q", js.subjects[0])
	}
	if js.ids[0] != "1" {
		t.Fatalf("expected a message id option on every publish")
	}
	seen := map[string]bool{}
	for _, r := range ds.Readings {
		id := MessageID(r)
		if seen[id] {
			t.Fatalf("duplicate message id %s", id)
		}
		seen[id] = true
	}
}

func TestNATSSinkStopsOnPublishError(t *testing.T) {
	js := &stubJetStream{err: errors.New("no responders")}
	sink := newNATSSinkWithPublisher(NATSConfig{Stream: "S"}, quietLogger(), js, nil)
	if err := sink.WriteDataset(context.Background(), ammoniaDataset(t, 0)); err == nil {
		t.Fatalf("expected error")
	}
	if len(js.subjects) != 1 {
		t.Fatalf("expected to stop after the first failure, got %d", len(js.subjects))
	}
	if _, err := NewNATSSink(context.Background(), NATSConfig{}, quietLogger()); err == nil {
		t.Fatalf("expected error without url")
	}
}
