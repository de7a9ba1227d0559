// v1
// internal/api/server.go

// Package api serves simulation runs over HTTP: trigger a run, fetch its
// summary or combined CSV, list sensors and expose Prometheus metrics.
package api

import (
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/cache"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/metrics"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/sensor"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/simulator"
)

type Options struct {
	// Base supplies duration, start, seed and overrides for requests that
	// leave them out.
	Base    simulator.Options
	Sensors []string
	Sinks   []simulator.Sink
	RunTTL  time.Duration
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// AccessLog receives one line per request; nil disables access logging.
	AccessLog io.Writer
}

// RunSummary describes a finished run.
type RunSummary struct {
	RunID           string         `json:"runId"`
	Rows            int            `json:"rows"`
	Sensors         []string       `json:"sensors"`
	Start           time.Time      `json:"start"`
	DurationMinutes float64        `json:"durationMinutes"`
	Seed            int64          `json:"seed"`
	RowsPerSensor   map[string]int `json:"rowsPerSensor"`
	CompletedAt     time.Time      `json:"completedAt"`
}

type run struct {
	summary  RunSummary
	combined sensor.Dataset
}

type Server struct {
	opts    Options
	log     *slog.Logger
	metrics *metrics.Recorder
	runs    *cache.Cache[*run]
	newID   func() string

	// mu serializes runs; generation is single-threaded.
	mu sync.Mutex
}

func NewServer(opts Options, logger *slog.Logger, rec *metrics.Recorder) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RunTTL <= 0 {
		opts.RunTTL = 30 * time.Minute
	}
	return &Server{
		opts:    opts,
		log:     logger,
		metrics: rec,
		runs:    cache.New[*run](opts.RunTTL, rec),
		newID:   func() string { return uuid.NewString() },
	}
}

// NewRouter registers the routes without middleware.
func (s *Server) NewRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.health).Methods("GET")
	r.HandleFunc("/sensors", s.listSensors).Methods("GET")
	r.HandleFunc("/runs", s.createRun).Methods("POST")
	r.HandleFunc("/runs/{id}", s.getRun).Methods("GET")
	r.HandleFunc("/runs/{id}/csv", s.getRunCSV).Methods("GET")
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	return r
}

// Handler returns the router wrapped with panic recovery and access logging.
func (s *Server) Handler() http.Handler {
	var h http.Handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(s.log.Handler(), slog.LevelError)),
	)(s.NewRouter())
	if s.opts.AccessLog != nil {
		h = handlers.LoggingHandler(s.opts.AccessLog, h)
	}
	return h
}
