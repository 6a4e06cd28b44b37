package main

import (
	"context"
	"fmt"

	"github.com/philipparndt/stlmark/internal/logger"
	"github.com/philipparndt/stlmark/pkg/permcodec"
	"github.com/philipparndt/stlmark/pkg/stl"
	"github.com/philipparndt/stlmark/pkg/watermark"
	"github.com/spf13/cobra"
)

var embedOut string

var embedCmd = &cobra.Command{
	Use:   "embed [file]",
	Short: "Embed a payload into the facet order of a solid",
	Long: `Write a copy of the solid whose facets are stored in the order that
encodes the payload. Without --out the copy is written next to the input
with the configured suffix, e.g. gear.stl becomes gear_wm.stl. OpenSCAD
sources are rendered first.`,
	Example: `  stlmark embed gear.stl --payload "ACME-42"
  stlmark embed gear.scad --payload-hex 0badf00d --out marked.stl --format binary`,
	Args: cobra.ExactArgs(1),
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)

	addPayloadFlags(embedCmd)
	embedCmd.Flags().StringVarP(&embedOut, "out", "o", "", "Output file")
}

func newEmbedder() *watermark.Embedder {
	emb := watermark.NewEmbedder(newCanonicalizer(), cfg.OutputFormat(), logger.Log)
	emb.Suffix = cfg.Output.Suffix
	return emb
}

func runEmbed(cmd *cobra.Command, args []string) error {
	payload, err := payloadFromFlags(cmd)
	if err != nil {
		return err
	}
	written, err := embedFile(cmd.Context(), newEmbedder(), args[0], embedOut, payload)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Embedded %d of %d bytes into %s\n",
		len(payload), permcodec.Capacity(written.Len()), written.File)
	return nil
}

// embedFile loads path, which may be an OpenSCAD source, and writes the
// watermarked copy to out or to the derived output name.
func embedFile(ctx context.Context, emb *watermark.Embedder, path, out string, payload []byte) (*stl.Solid, error) {
	model, err := loadSolid(ctx, path)
	if err != nil {
		return nil, err
	}
	return emb.EmbedSolid(model, out, payload)
}
