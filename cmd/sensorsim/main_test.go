// v0
// cmd/sensorsim/main_test.go
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	stdout, _, err := executeStreams(t, args...)
	return stdout, err
}

// executeStreams runs the root command with stdout and stderr kept apart.
func executeStreams(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, version) {
		t.Fatalf("output %q missing version", out)
	}
}

func TestSensorsJSON(t *testing.T) {
	out, err := execute(t, "sensors", "--json")
	if err != nil {
		t.Fatalf("sensors: %v", err)
	}
	var got struct {
		Sensors []struct {
			Name string `json:"name"`
		} `json:"sensors"`
		Locations []string `json:"locations"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(got.Sensors) != 5 || len(got.Locations) != 4 {
		t.Fatalf("unexpected listing: %+v", got)
	}
}

func TestRunWritesFilesAndPreview(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "run",
		"--log-file", filepath.Join(dir, "sim.log"),
		"--output", dir,
		"--location", "toilet",
		"--duration", "120",
		"--start", "2025-06-02T00:00:00Z",
		"--preview", "3",
	)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	for _, name := range []string{"ammonia.csv", "people_counter_toilet.csv", "combined_simulation.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	if !strings.Contains(out, "timestamp") || !strings.Contains(out, "2025-06-02T00:00:00Z") {
		t.Fatalf("preview missing from output:\n%s", out)
	}
	if !strings.Contains(out, "48 rows from 2 sensors") {
		t.Fatalf("summary missing from output:\n%s", out)
	}
}

func TestRunRejectsUnknownLocation(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "run", "--log-file", "", "--output", dir, "--location", "garage")
	if err == nil {
		t.Fatalf("expected error for unknown location")
	}
}

func TestRunRejectsConflictingSelection(t *testing.T) {
	_, err := execute(t, "run", "--log-file", "", "--sensors", "ammonia", "--location", "mall")
	if err == nil {
		t.Fatalf("expected error for --sensors with --location")
	}
}

func TestRunJSONKeepsLogsOffStdout(t *testing.T) {
	dir := t.TempDir()
	stdout, stderr, err := executeStreams(t, "run", "--json",
		"--log-file", "",
		"--output", dir,
		"--location", "toilet",
		"--duration", "60",
		"--start", "2025-06-02T00:00:00Z",
	)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, stderr)
	}
	dec := json.NewDecoder(strings.NewReader(stdout))
	var got struct {
		Rows          int            `json:"rows"`
		RowsPerSensor map[string]int `json:"rowsPerSensor"`
		OutputDir     string         `json:"outputDir"`
	}
	if err := dec.Decode(&got); err != nil {
		t.Fatalf("decode stdout %q: %v", stdout, err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		t.Fatalf("stdout must hold exactly one JSON value, got trailing %q (err=%v)", extra, err)
	}
	if got.Rows != 24 || got.RowsPerSensor["ammonia"] != 12 || got.OutputDir != dir {
		t.Fatalf("unexpected summary: %+v", got)
	}
	if !strings.Contains(stderr, "msg=run_completed") {
		t.Fatalf("logs must go to stderr, got %q", stderr)
	}
}
