// v0
// cmd/sensorsim/cmd_serve.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RaysonTay/IoT-Sensor-Data-Simulator-UnaBiz/internal/api"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve simulation runs over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.ListenAddress, _ = cmd.Flags().GetString("listen")
			}
			a, err := newApp(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			writeFiles, _ := cmd.Flags().GetBool("write-files")
			sinks, err := a.sinks(cmd.Context(), writeFiles)
			if err != nil {
				return err
			}
			srv := api.NewServer(api.Options{
				Base:      cfg.SimulatorOptions(),
				Sensors:   cfg.Sensors,
				Sinks:     sinks,
				RunTTL:    cfg.RunTTL,
				Gatherer:  a.reg,
				AccessLog: os.Stdout,
			}, a.log.Logger, a.metrics)

			httpSrv := &http.Server{
				Addr:         cfg.ListenAddress,
				Handler:      srv.Handler(),
				ReadTimeout:  cfg.HTTPReadTimeout,
				WriteTimeout: cfg.HTTPWriteTimeout,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("http_listen", "addr", cfg.ListenAddress)
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			a.log.Info("http_shutdown")
			return httpSrv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().String("listen", "", "Listen address (default from configuration, :8088)")
	cmd.Flags().Bool("write-files", false, "Also write each run's CSV files to the output directory")
	return cmd
}
