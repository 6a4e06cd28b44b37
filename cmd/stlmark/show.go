package main

import (
	"fmt"
	"image/png"
	"os"

	"github.com/philipparndt/stlmark/internal/logger"
	"github.com/philipparndt/stlmark/pkg/canon"
	"github.com/philipparndt/stlmark/pkg/display"
	"github.com/philipparndt/stlmark/pkg/stl"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	showPCA    bool
	showOut    string
	showPlot   string
	showWidth  int
	showHeight int
	showEdges  bool
)

var showCmd = &cobra.Command{
	Use:   "show [file]",
	Short: "Render a solid to PNG, optionally in its principal frame",
	Long: `Render a flat-shaded view of the solid and/or a plot of its three
orthographic projections. With --pca the solid is drawn in the coordinates
of its principal frame, the frame the canonical order is computed in.`,
	Example: `  stlmark show gear.stl --out gear.png
  stlmark show gear.stl --pca --plot gear-pca.png`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().BoolVar(&showPCA, "pca", false, "Draw in principal frame coordinates")
	showCmd.Flags().StringVarP(&showOut, "out", "o", "", "Write a rendered view to this PNG file")
	showCmd.Flags().StringVar(&showPlot, "plot", "", "Write projection plots to this PNG file")
	showCmd.Flags().IntVar(&showWidth, "width", 800, "Render width in pixels")
	showCmd.Flags().IntVar(&showHeight, "height", 600, "Render height in pixels")
	showCmd.Flags().BoolVar(&showEdges, "edges", false, "Draw facet edges")
}

func runShow(cmd *cobra.Command, args []string) error {
	if showOut == "" && showPlot == "" {
		return fmt.Errorf("nothing to do, use --out and/or --plot")
	}
	model, err := loadSolid(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	snap, err := snapshot(model, showPCA, newCanonicalizer())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if showOut != "" {
		v := display.DefaultView(showWidth, showHeight)
		v.Edges = showEdges
		if err := writePNG(showOut, snap, v); err != nil {
			return err
		}
		fmt.Fprintf(out, "Rendered %s to %s\n", model.Name, showOut)
	}
	if showPlot != "" {
		if err := display.Plot(snap, showPlot); err != nil {
			return err
		}
		fmt.Fprintf(out, "Plotted %s to %s\n", model.Name, showPlot)
	}
	return nil
}

func snapshot(model *stl.Solid, pca bool, c *canon.Canonicalizer) (display.Snapshot, error) {
	if !pca {
		return display.NewSnapshot(model, nil), nil
	}
	frame, err := c.Frame(model)
	if err != nil {
		return nil, err
	}
	return display.NewSnapshot(model, &frame), nil
}

func writePNG(path string, snap display.Snapshot, v display.View) error {
	img := display.RenderView(snap, v)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	logger.Debug("render written", zap.String("file", path), zap.Int("width", v.Width), zap.Int("height", v.Height))
	return f.Close()
}
