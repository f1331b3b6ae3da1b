package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/chocapikk/arcdb/internal/dblog"
	"github.com/chocapikk/arcdb/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the TCP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("addr")
		if !cmd.Flags().Changed("addr") {
			addr = h.ListenAddr
		}
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if metricsAddr != "" {
			go func() {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				if err := http.ListenAndServe(metricsAddr, mux); err != nil {
					dblog.WithComponent("server").Error().Err(err).Msg("metrics listener stopped")
				}
			}()
		}

		s := server.New(addr, h.Engine)
		serveErr := s.Serve(ctx)
		if saveErr := h.Catalog.Save(h.CatalogPath); saveErr != nil {
			if serveErr != nil {
				dblog.WithComponent("server").Error().Err(saveErr).Msg("failed to save catalog on shutdown")
				return serveErr
			}
			return saveErr
		}
		return serveErr
	},
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:7171", "Address to listen on")
	serveCmd.Flags().String("metrics-addr", "", "Address to expose Prometheus /metrics on (empty disables it)")
}
