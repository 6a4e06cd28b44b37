package main

import (
	"fmt"

	"github.com/philipparndt/stlmark/pkg/analysis"
	"github.com/spf13/cobra"
)

var (
	infoEdges    int
	infoLongest  bool
	infoShortest bool
)

var infoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Display geometry and watermark capacity of an STL file",
	Long: `Show dimensions, facet count, surface area and edge statistics together
with the principal frame and how many payload bytes the file can carry.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().IntVarP(&infoEdges, "edges", "n", 5, "Number of edges to list with --longest or --shortest")
	infoCmd.Flags().BoolVarP(&infoLongest, "longest", "l", false, "List the longest edges")
	infoCmd.Flags().BoolVarP(&infoShortest, "shortest", "s", false, "List the shortest edges")
}

func runInfo(cmd *cobra.Command, args []string) error {
	model, err := loadSolid(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	sum := analysis.Summarize(model, newCanonicalizer())

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "STL File Information")
	fmt.Fprintln(out, "====================")
	if sum.Name != "" {
		fmt.Fprintf(out, "Name: %s\n", sum.Name)
	}
	fmt.Fprintf(out, "File: %s\n\n", args[0])

	fmt.Fprintln(out, "Model Statistics:")
	fmt.Fprintf(out, "  Facets: %d\n", sum.FacetCount)
	fmt.Fprintf(out, "  Distinct vertices: %d\n", sum.DistinctVertices)
	fmt.Fprintf(out, "  Edges: %d\n", sum.EdgeCount)
	fmt.Fprintf(out, "  Surface Area: %.6f square units\n\n", sum.SurfaceArea)

	fmt.Fprintln(out, "Bounding Box:")
	fmt.Fprintf(out, "  Min: %s\n", analysis.FormatVector(sum.BoundingBox.Min))
	fmt.Fprintf(out, "  Max: %s\n", analysis.FormatVector(sum.BoundingBox.Max))
	fmt.Fprintf(out, "  Center: %s\n\n", analysis.FormatVector(sum.BoundingBox.Center()))

	fmt.Fprintln(out, "Dimensions:")
	fmt.Fprintf(out, "  Width (X): %.6f units\n", sum.Dimensions.X)
	fmt.Fprintf(out, "  Depth (Y): %.6f units\n", sum.Dimensions.Y)
	fmt.Fprintf(out, "  Height (Z): %.6f units\n", sum.Dimensions.Z)
	fmt.Fprintf(out, "  Diagonal: %.6f units\n", sum.BoundingBox.Diagonal())
	fmt.Fprintf(out, "  Box volume: %.6f cubic units\n\n", sum.BoundingBox.Volume())

	fmt.Fprintln(out, "Edge Lengths:")
	fmt.Fprintf(out, "  Minimum: %.6f units\n", sum.MinEdgeLength)
	fmt.Fprintf(out, "  Maximum: %.6f units\n", sum.MaxEdgeLength)
	fmt.Fprintf(out, "  Average: %.6f units\n\n", sum.AvgEdgeLength)

	fmt.Fprintln(out, "Watermark:")
	fmt.Fprintf(out, "  Capacity: %.1f bits, %d bytes\n", sum.CapacityBits, sum.CapacityBytes)
	if sum.Frame != nil {
		fmt.Fprintf(out, "  Principal variances: %.6g %.6g %.6g\n",
			sum.Frame.Eigenvalues[0], sum.Frame.Eigenvalues[1], sum.Frame.Eigenvalues[2])
		fmt.Fprintf(out, "  Eigen gaps: %.4f %.4f\n", sum.EigenGaps[0], sum.EigenGaps[1])
	}
	if sum.DuplicateFacets {
		fmt.Fprintln(out, "  Contains duplicate facets")
	}
	if sum.Watermarkable() {
		fmt.Fprintln(out, "  Status: watermarkable")
	} else if sum.CanonError != nil {
		fmt.Fprintf(out, "  Status: not watermarkable (%v)\n", sum.CanonError)
	} else {
		fmt.Fprintln(out, "  Status: not watermarkable (too few facets)")
	}

	var edges []analysis.EdgeInfo
	switch {
	case infoLongest:
		edges = sum.LongestEdges(infoEdges)
		fmt.Fprintf(out, "\nTop %d Longest Edges\n", len(edges))
	case infoShortest:
		edges = sum.ShortestEdges(infoEdges)
		fmt.Fprintf(out, "\nTop %d Shortest Edges\n", len(edges))
	}
	if len(edges) > 0 {
		fmt.Fprintf(out, "%-6s %-35s %-35s %-15s\n", "Index", "Start", "End", "Length")
		for i, edge := range edges {
			fmt.Fprintf(out, "%-6d %-35s %-35s %-15.6f\n",
				i+1,
				analysis.FormatVector(edge.Start),
				analysis.FormatVector(edge.End),
				edge.Length)
		}
	}
	return nil
}
