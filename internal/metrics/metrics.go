// v1
// internal/metrics/metrics.go
// Package metrics exposes Prometheus collectors for simulation runs, generated
// readings, sink failures, the run cache and the Kafka circuit breaker.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/circuitbreaker"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/sensor"
)

const namespace = "sensorsim"

// Recorder owns the collectors. A nil *Recorder is valid and records nothing.
type Recorder struct {
	readings    *prometheus.CounterVec
	anomalies   *prometheus.CounterVec
	missing     *prometheus.CounterVec
	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
	sinkErrors  *prometheus.CounterVec
	cache       *prometheus.CounterVec
	breaker     *prometheus.GaugeVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "readings_total",
			Help: "Readings generated, by sensor type.",
		}, []string{"sensor"}),
		anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "anomalies_total",
			Help: "Readings flagged as injected domain anomalies, by sensor type.",
		}, []string{"sensor"}),
		missing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "missing_readings_total",
			Help: "Readings whose domain values were dropped, by sensor type.",
		}, []string{"sensor"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "runs_total",
			Help: "Simulation runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "run_duration_seconds",
			Help:    "Wall time of a simulation run including persistence.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		sinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sink_errors_total",
			Help: "Failed dataset writes, by sink.",
		}, []string{"sink"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "run_cache_requests_total",
			Help: "Run cache lookups by result.",
		}, []string{"result"}),
		breaker: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "circuit_breaker_state",
			Help: "Circuit breaker state: 0 closed, 1 open, 2 half-open.",
		}, []string{"name"}),
	}
	reg.MustRegister(r.readings, r.anomalies, r.missing, r.runs, r.runDuration, r.sinkErrors, r.cache, r.breaker)
	return r
}

// ObserveDataset counts the readings of one sensor dataset.
func (r *Recorder) ObserveDataset(ds sensor.Dataset) {
	if r == nil || ds.Len() == 0 {
		return
	}
	var anomalies, missing int
	for _, rd := range ds.Readings {
		if rd.Measurement == nil {
			continue
		}
		if !rd.Measurement.Valid() {
			missing++
		} else if rd.Measurement.Anomaly() {
			anomalies++
		}
	}
	r.readings.WithLabelValues(ds.Name).Add(float64(ds.Len()))
	r.anomalies.WithLabelValues(ds.Name).Add(float64(anomalies))
	r.missing.WithLabelValues(ds.Name).Add(float64(missing))
}

// RunFinished records one run; err == nil counts as success.
func (r *Recorder) RunFinished(err error, took time.Duration) {
	if r == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.runs.WithLabelValues(outcome).Inc()
	r.runDuration.Observe(took.Seconds())
}

func (r *Recorder) SinkError(sink string) {
	if r == nil {
		return
	}
	r.sinkErrors.WithLabelValues(sink).Inc()
}

func (r *Recorder) CacheHit() {
	if r != nil {
		r.cache.WithLabelValues("hit").Inc()
	}
}

func (r *Recorder) CacheMiss() {
	if r != nil {
		r.cache.WithLabelValues("miss").Inc()
	}
}

// TrackBreaker mirrors b's state into the breaker gauge.
func (r *Recorder) TrackBreaker(b *circuitbreaker.Breaker) {
	if r == nil || b == nil {
		return
	}
	g := r.breaker.WithLabelValues(b.Name())
	g.Set(float64(b.State()))
	b.OnStateChange(func(_, to circuitbreaker.State) { g.Set(float64(to)) })
}
