// v1
// internal/api/handlers_test.go
package api

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/logging"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/metrics"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/simulator"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	reg := prometheus.NewRegistry()
	s := NewServer(Options{
		Base:     simulator.Options{DurationMinutes: 60, Seed: 42},
		RunTTL:   time.Minute,
		Gatherer: reg,
	}, logging.Discard(), metrics.New(reg))
	return s, s.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListSensors(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/sensors", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []sensorInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 5)
	assert.Equal(t, "ammonia", got[0].Name)
	assert.Equal(t, 300.0, got[0].IntervalSeconds)
}

func TestCreateRunAndFetchCSV(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/runs",
		`{"sensors":["ammonia","people_counter_toilet"],"durationMinutes":1440,"start":"2025-06-02T00:00:00Z","seed":7}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var sum RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 576, sum.Rows)
	assert.Equal(t, 288, sum.RowsPerSensor["people_counter_toilet"])
	assert.Equal(t, int64(7), sum.Seed)
	assert.True(t, sum.Start.Equal(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)))

	rec = do(t, h, http.MethodGet, "/runs/"+sum.RunID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/runs/"+sum.RunID+"/csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 577)
	assert.Equal(t, []string{"timestamp", "sensor_type", "devEUI", "battery", "rssi", "snr", "seqNumber",
		"temperature", "humidity", "nh3", "period_in", "period_out", "current_occupancy", "location"}, rows[0])
}

func TestCreateRunDefaults(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/runs", `{}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sum RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Len(t, sum.Sensors, 5)
	assert.Equal(t, 5*12, sum.Rows)
}

func TestCreateRunRejectsBadInput(t *testing.T) {
	_, h := newTestServer(t)
	cases := map[string]string{
		"unknown sensor": `{"sensors":["thermostat"]}`,
		"bad json":       `{"sensors":`,
		"unknown field":  `{"sensor":["ammonia"]}`,
		"bad start":      `{"start":"tomorrow"}`,
		"negative":       `{"durationMinutes":-10}`,
		"too short":      `{"sensors":["ammonia"],"durationMinutes":1}`,
		"too long":       `{"sensors":["ammonia"],"durationMinutes":1e9}`,
		"overflowing":    `{"durationMinutes":1e300}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/runs", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestUnknownRun(t *testing.T) {
	_, h := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/runs/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/runs/nope/csv", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/runs", `{"sensors":["ammonia"]}`).Code)
	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sensorsim_readings_total{sensor="ammonia"} 12`)
	assert.Contains(t, rec.Body.String(), `sensorsim_runs_total{outcome="success"} 1`)
}
