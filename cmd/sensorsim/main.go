// v0
// cmd/sensorsim/main.go
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sensorsim",
		Short: "Synthetic IoT sensor telemetry",
		Long: `sensorsim generates time-ordered telemetry for simulated ammonia sensors
and people counters, with radio link quality, battery drain and injected
anomalies. Datasets are written as CSV and can be published to Kafka, MQTT,
NATS JetStream or InfluxDB.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Properties file (default sensorsim.properties if present)")
	rootCmd.PersistentFlags().String("scenario", "", "YAML scenario file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-file", "", "Log file path, in addition to stdout")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newRunCmd(),
		newSensorsCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				_ = json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"version": version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "sensorsim version %s\n", version)
			}
		},
	}
}
