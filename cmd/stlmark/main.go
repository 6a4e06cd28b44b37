package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/philipparndt/stlmark/internal/config"
	"github.com/philipparndt/stlmark/internal/logger"
	"github.com/philipparndt/stlmark/version"
	"github.com/spf13/cobra"
)

var (
	flags config.Flags
	cfg   = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "stlmark",
	Short: "Hide short messages in the facet order of STL files",
	Long: `stlmark embeds a payload into an STL file by reordering its facets.
The geometry is not touched. The payload is recovered from the order in
which facets are stored, relative to a canonical order computed from the
shape itself, so it survives rotating and moving the model.`,
	Version:       version.GetFullVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(&flags)
		if err != nil {
			return err
		}
		cfg = loaded
		return logger.Init(cfg.Logging.Level, cfg.Logging.LogFile)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	flags.Register(rootCmd.PersistentFlags())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
