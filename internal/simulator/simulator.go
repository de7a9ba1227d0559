// v0
// internal/simulator/simulator.go

// Package simulator drives sensor engines over a time window, merges their
// datasets and hands every result to the configured sinks.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/metrics"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/randx"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/sensor"
)

// ErrInvalidConfig is sensor.ErrInvalidConfig, re-exported for callers that
// only talk to the orchestrator.
var ErrInvalidConfig = sensor.ErrInvalidConfig

// CombinedName names the merged dataset of a multi-sensor run.
const CombinedName = "combined_simulation"

// Sink persists or forwards a dataset.
type Sink interface {
	Name() string
	WriteDataset(ctx context.Context, ds sensor.Dataset) error
}

// PerSensorSink is implemented by sinks that skip the combined dataset, such
// as message buses that already received every reading per sensor.
type PerSensorSink interface {
	PerSensorOnly() bool
}

type Options struct {
	DurationMinutes float64
	// Start of the window; zero means now, truncated to the second.
	Start time.Time
	// Seed is the run seed. Each sensor derives its own seed from it and its
	// name unless its override sets one.
	Seed      int64
	Overrides map[string]sensor.Options
}

// Result is the outcome of RunAll.
type Result struct {
	Datasets []sensor.Dataset
	Combined sensor.Dataset
}

type Simulator struct {
	opts    Options
	sinks   []Sink
	logger  *slog.Logger
	metrics *metrics.Recorder
}

func New(opts Options, logger *slog.Logger, rec *metrics.Recorder, sinks ...Sink) (*Simulator, error) {
	if !(opts.DurationMinutes > 0) {
		return nil, fmt.Errorf("%w: duration must be positive, got %v min", ErrInvalidConfig, opts.DurationMinutes)
	}
	for name := range opts.Overrides {
		if _, err := Lookup(name); err != nil {
			return nil, err
		}
	}
	for _, e := range registry {
		interval := e.Defaults.IntervalSeconds
		if o, ok := opts.Overrides[e.Name]; ok && o.IntervalSeconds != 0 {
			interval = o.IntervalSeconds
		}
		if n := sensor.StepCount(opts.DurationMinutes, interval); n > sensor.MaxSteps {
			return nil, fmt.Errorf("%w: sensor %s: duration %v min exceeds %d readings",
				ErrInvalidConfig, e.Name, opts.DurationMinutes, sensor.MaxSteps)
		}
	}
	if opts.Start.IsZero() {
		opts.Start = time.Now().Truncate(time.Second)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{opts: opts, sinks: sinks, logger: logger, metrics: rec}, nil
}

func (s *Simulator) Options() Options { return s.opts }

// Build constructs the engine registered under name.
func (s *Simulator) Build(name string) (sensor.Sensor, error) {
	e, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	opts := s.opts.Overrides[name]
	if opts.Seed == nil {
		opts.Seed = sensor.Seed(randx.DeriveSeed(s.opts.Seed, name))
	}
	sn, err := e.New(opts)
	if err != nil {
		return nil, fmt.Errorf("sensor %s: %w", name, err)
	}
	return sn, nil
}

// RunSensor generates one sensor's dataset and persists it.
func (s *Simulator) RunSensor(ctx context.Context, name string) (ds sensor.Dataset, err error) {
	began := time.Now()
	defer func() { s.metrics.RunFinished(err, time.Since(began)) }()

	sn, err := s.Build(name)
	if err != nil {
		return sensor.Dataset{}, err
	}
	ds, err = s.generate(name, sn)
	if err != nil {
		return sensor.Dataset{}, err
	}
	return ds, s.persist(ctx, ds, false)
}

// RunAll validates every name before doing any work, then runs the sensors
// in order and persists each dataset plus their merge. An empty list runs
// every registered sensor.
func (s *Simulator) RunAll(ctx context.Context, names []string) (res Result, err error) {
	began := time.Now()
	defer func() { s.metrics.RunFinished(err, time.Since(began)) }()

	if len(names) == 0 {
		names = Names()
	}
	engines := make([]sensor.Sensor, len(names))
	for i, name := range names {
		if engines[i], err = s.Build(name); err != nil {
			return Result{}, err
		}
	}

	res.Datasets = make([]sensor.Dataset, 0, len(names))
	for i, name := range names {
		ds, err := s.generate(name, engines[i])
		if err != nil {
			return Result{}, err
		}
		res.Datasets = append(res.Datasets, ds)
	}
	res.Combined = sensor.Merge(CombinedName, res.Datasets...)

	var errs []error
	for _, ds := range res.Datasets {
		if err := s.persist(ctx, ds, false); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.persist(ctx, res.Combined, true); err != nil {
		errs = append(errs, err)
	}
	s.logger.Info("run_completed", "sensors", len(names), "rows", res.Combined.Len(), "start", s.opts.Start.Format(time.RFC3339))
	return res, errors.Join(errs...)
}

func (s *Simulator) generate(name string, sn sensor.Sensor) (sensor.Dataset, error) {
	ds, err := sn.Generate(s.opts.DurationMinutes, s.opts.Start)
	if err != nil {
		return sensor.Dataset{}, fmt.Errorf("sensor %s: %w", name, err)
	}
	ds.Name = name
	s.metrics.ObserveDataset(ds)
	s.logger.Debug("sensor_generated", "sensor", name, "devEUI", sn.Identity().DevEUI, "rows", ds.Len())
	return ds, nil
}

// persist hands ds to every sink; a failing sink does not stop the others.
func (s *Simulator) persist(ctx context.Context, ds sensor.Dataset, combined bool) error {
	var errs []error
	for _, sink := range s.sinks {
		if p, ok := sink.(PerSensorSink); combined && ok && p.PerSensorOnly() {
			continue
		}
		if err := sink.WriteDataset(ctx, ds); err != nil {
			s.metrics.SinkError(sink.Name())
			s.logger.Error("sink_failed", "sink", sink.Name(), "dataset", ds.Name, "err", err)
			errs = append(errs, fmt.Errorf("%s sink: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}
