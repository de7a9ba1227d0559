// v1
// internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/export"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/simulator"
)

type runRequest struct {
	Sensors         []string `json:"sensors"`
	DurationMinutes float64  `json:"durationMinutes"`
	Start           string   `json:"start"`
	Seed            *int64   `json:"seed"`
}

type sensorInfo struct {
	Name            string  `json:"name"`
	IntervalSeconds float64 `json:"intervalSeconds"`
	NoiseLevel      float64 `json:"noiseLevel"`
	AnomalyRate     float64 `json:"anomalyRate"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listSensors(w http.ResponseWriter, r *http.Request) {
	entries := simulator.Registry()
	out := make([]sensorInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, sensorInfo{
			Name:            e.Name,
			IntervalSeconds: e.Defaults.IntervalSeconds,
			NoiseLevel:      e.Defaults.NoiseLevel,
			AnomalyRate:     e.Defaults.AnomalyRate,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	opts, names, err := s.resolve(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sim, err := simulator.New(opts, s.log, s.metrics, s.opts.Sinks...)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := sim.RunAll(r.Context(), names)
	switch {
	case errors.Is(err, simulator.ErrInvalidConfig):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.log.Error("run_failed", "err", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	sum := RunSummary{
		RunID:           s.newID(),
		Rows:            res.Combined.Len(),
		Sensors:         names,
		Start:           sim.Options().Start,
		DurationMinutes: opts.DurationMinutes,
		Seed:            opts.Seed,
		RowsPerSensor:   make(map[string]int, len(res.Datasets)),
		CompletedAt:     time.Now().UTC(),
	}
	for _, ds := range res.Datasets {
		sum.RowsPerSensor[ds.Name] = ds.Len()
	}
	s.runs.Set(sum.RunID, &run{summary: sum, combined: res.Combined})
	s.log.Info("run_stored", "runId", sum.RunID, "rows", sum.Rows)
	writeJSON(w, http.StatusCreated, sum)
}

func (s *Server) resolve(req runRequest) (simulator.Options, []string, error) {
	opts := s.opts.Base
	if req.DurationMinutes != 0 {
		opts.DurationMinutes = req.DurationMinutes
	}
	if req.Start != "" {
		t, err := time.Parse(time.RFC3339, req.Start)
		if err != nil {
			return simulator.Options{}, nil, fmt.Errorf("invalid start: %v", err)
		}
		opts.Start = t
	}
	if req.Seed != nil {
		opts.Seed = *req.Seed
	}
	names := req.Sensors
	if len(names) == 0 {
		names = s.opts.Sensors
	}
	if len(names) == 0 {
		names = simulator.Names()
	}
	return opts, names, nil
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*run, bool) {
	id := mux.Vars(r)["id"]
	rn, ok := s.runs.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return nil, false
	}
	return rn, true
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	if rn, ok := s.lookup(w, r); ok {
		writeJSON(w, http.StatusOK, rn.summary)
	}
}

func (s *Server) getRunCSV(w http.ResponseWriter, r *http.Request) {
	rn, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", simulator.CombinedName+".csv"))
	w.WriteHeader(http.StatusOK)
	if err := export.WriteCSV(w, rn.combined); err != nil {
		s.log.Error("csv_write_failed", "runId", rn.summary.RunID, "err", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
