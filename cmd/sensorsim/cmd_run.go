// v0
// cmd/sensorsim/cmd_run.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/config"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/export"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/sensor"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/simulator"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate datasets and write them to the output directory",
		Long: `Run every configured sensor over the simulation window, write one CSV per
sensor plus combined_simulation.csv, publish to the enabled buses and print
the first rows of the combined table.`,
		Example: `  sensorsim run
  sensorsim run --location mall --duration 720
  sensorsim run --sensors ammonia,people_counter_toilet --seed 7 --start 2025-06-02T00:00:00Z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, &cfg); err != nil {
				return err
			}
			a, err := newApp(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			sinks, err := a.sinks(cmd.Context(), true)
			if err != nil {
				return err
			}
			sim, err := simulator.New(cfg.SimulatorOptions(), a.log.Logger, a.metrics, sinks...)
			if err != nil {
				return err
			}
			res, err := sim.RunAll(cmd.Context(), cfg.Sensors)
			if err != nil {
				return err
			}

			preview, _ := cmd.Flags().GetInt("preview")
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return printRunJSON(cmd.OutOrStdout(), cfg, res)
			}
			printPreview(cmd.OutOrStdout(), res.Combined, preview)
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d rows from %d sensors written to %s\n",
				res.Combined.Len(), len(res.Datasets), cfg.OutputDir)
			return nil
		},
	}

	cmd.Flags().StringSlice("sensors", nil, "Sensors to run (default: all registered)")
	cmd.Flags().String("location", "", "Run the ammonia sensor and the people counter of this location")
	cmd.Flags().Float64("duration", 0, "Simulated minutes")
	cmd.Flags().String("start", "", "Start of the window, RFC 3339 (default: now)")
	cmd.Flags().Int64("seed", 0, "Run seed")
	cmd.Flags().StringP("output", "o", "", "Output directory")
	cmd.Flags().Bool("kafka", false, "Publish datasets to Kafka")
	cmd.Flags().Bool("mqtt", false, "Publish datasets to MQTT")
	cmd.Flags().Bool("influx", false, "Write datasets to InfluxDB")
	cmd.Flags().Bool("nats", false, "Publish datasets to NATS JetStream")
	cmd.Flags().Int("preview", 10, "Rows of the combined table to print")
	return cmd
}

// applyRunFlags lets explicitly set flags override the configuration.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("sensors") && flags.Changed("location") {
		return fmt.Errorf("--sensors and --location are mutually exclusive")
	}
	if flags.Changed("sensors") {
		cfg.Sensors, _ = flags.GetStringSlice("sensors")
	}
	if flags.Changed("location") {
		loc, _ := flags.GetString("location")
		names, err := simulator.ForLocation(loc)
		if err != nil {
			return err
		}
		cfg.Sensors = names
	}
	if flags.Changed("duration") {
		cfg.DurationMinutes, _ = flags.GetFloat64("duration")
	}
	if flags.Changed("start") {
		raw, _ := flags.GetString("start")
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
		cfg.Start = t
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("output") {
		cfg.OutputDir, _ = flags.GetString("output")
	}
	if flags.Changed("kafka") {
		cfg.Kafka.Enabled, _ = flags.GetBool("kafka")
	}
	if flags.Changed("mqtt") {
		cfg.MQTT.Enabled, _ = flags.GetBool("mqtt")
	}
	if flags.Changed("influx") {
		cfg.Influx.Enabled, _ = flags.GetBool("influx")
	}
	if flags.Changed("nats") {
		cfg.NATS.Enabled, _ = flags.GetBool("nats")
	}
	return nil
}

func printPreview(w io.Writer, ds sensor.Dataset, n int) {
	if n <= 0 || ds.Len() == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(ds.Columns, "\t"))
	for _, r := range ds.Readings[:min(n, ds.Len())] {
		row := r.Row(ds.Columns)
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = export.FormatValue(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()
}

func printRunJSON(w io.Writer, cfg config.Config, res simulator.Result) error {
	perSensor := make(map[string]int, len(res.Datasets))
	for _, ds := range res.Datasets {
		perSensor[ds.Name] = ds.Len()
	}
	return json.NewEncoder(w).Encode(map[string]any{
		"rows":          res.Combined.Len(),
		"rowsPerSensor": perSensor,
		"outputDir":     cfg.OutputDir,
	})
}
