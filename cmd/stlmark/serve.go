package main

import (
	"github.com/philipparndt/stlmark/internal/logger"
	"github.com/philipparndt/stlmark/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve embedding and extraction over HTTP",
	Long: `Start an HTTP service with these routes:

  POST /v1/embed?payload=...   STL in, watermarked STL out
  POST /v1/extract             STL in, JSON payload out
  POST /v1/info                STL in, JSON capacity report out
  GET  /health
  GET  /metrics                Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := server.New(server.Options{
		Canonicalizer:  newCanonicalizer(),
		Format:         cfg.OutputFormat(),
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
		MaxFacets:      cfg.Server.MaxFacets,
		Logger:         logger.Log,
		Registry:       reg,
	})
	return srv.Run(cmd.Context(), addr)
}
