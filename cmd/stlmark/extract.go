package main

import (
	"fmt"

	"github.com/philipparndt/stlmark/internal/logger"
	"github.com/philipparndt/stlmark/pkg/watermark"
	"github.com/spf13/cobra"
)

var extractRaw bool

var extractCmd = &cobra.Command{
	Use:   "extract [file...]",
	Short: "Read the payload stored in the facet order of solids",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().BoolVar(&extractRaw, "raw", false, "Write the payload bytes unformatted (single file only)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	if extractRaw && len(args) > 1 {
		return fmt.Errorf("--raw takes a single file, got %d", len(args))
	}
	x := watermark.NewExtractor(newCanonicalizer(), logger.Log)
	out := cmd.OutOrStdout()

	failed := 0
	for _, path := range args {
		model, err := loadSolid(cmd.Context(), path)
		if err == nil {
			var payload []byte
			if payload, err = x.Extract(model); err == nil {
				if extractRaw {
					_, err = out.Write(payload)
					return err
				}
				fmt.Fprintf(out, "%s: %s\n", path, formatPayload(payload))
				continue
			}
		}
		if len(args) == 1 {
			return err
		}
		failed++
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errSomeFailed, failed, len(args))
	}
	return nil
}
