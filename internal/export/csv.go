// v0
// internal/export/csv.go

// Package export writes datasets as flat CSV tables, one file per dataset.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/sensor"
)

// TimestampLayout is RFC 3339 with second precision.
const TimestampLayout = time.RFC3339

// CSVSink writes each dataset to <dir>/<dataset name>.csv, creating dir on
// demand and overwriting previous files.
type CSVSink struct {
	dir    string
	logger *slog.Logger
}

func NewCSVSink(dir string, logger *slog.Logger) *CSVSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVSink{dir: dir, logger: logger}
}

func (s *CSVSink) Name() string { return "csv" }

// Path returns the file a dataset called name is written to.
func (s *CSVSink) Path(name string) string {
	return filepath.Join(s.dir, name+".csv")
}

func (s *CSVSink) WriteDataset(ctx context.Context, ds sensor.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := s.Path(ds.Name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, ds); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	s.logger.Info("dataset_written", "path", path, "rows", ds.Len())
	return nil
}

// WriteCSV writes the header and one row per reading. Missing values are
// empty cells.
func WriteCSV(w io.Writer, ds sensor.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Columns); err != nil {
		return err
	}
	record := make([]string, len(ds.Columns))
	for _, r := range ds.Readings {
		for i, v := range r.Row(ds.Columns) {
			record[i] = FormatValue(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatValue renders one cell.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		return x.Format(TimestampLayout)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
