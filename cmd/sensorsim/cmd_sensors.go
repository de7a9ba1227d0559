// v0
// cmd/sensorsim/cmd_sensors.go
package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/profile"
	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/simulator"
)

func newSensorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sensors",
		Short: "List the registered sensors and locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := simulator.Registry()
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				type item struct {
					Name            string  `json:"name"`
					IntervalSeconds float64 `json:"intervalSeconds"`
					NoiseLevel      float64 `json:"noiseLevel"`
					AnomalyRate     float64 `json:"anomalyRate"`
				}
				items := make([]item, 0, len(entries))
				for _, e := range entries {
					items = append(items, item{e.Name, e.Defaults.IntervalSeconds, e.Defaults.NoiseLevel, e.Defaults.AnomalyRate})
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"sensors":   items,
					"locations": profile.Locations(),
				})
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tINTERVAL(s)\tNOISE\tANOMALY")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%g\t%g\t%g\n", e.Name, e.Defaults.IntervalSeconds, e.Defaults.NoiseLevel, e.Defaults.AnomalyRate)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nlocations: %v\n", profile.Locations())
			return nil
		},
	}
}
