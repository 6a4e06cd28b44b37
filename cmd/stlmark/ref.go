package main

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/philipparndt/stlmark/pkg/canon"
	"github.com/philipparndt/stlmark/pkg/geometry"
	"github.com/philipparndt/stlmark/pkg/stl"
	"github.com/spf13/cobra"
)

var (
	refIDs           bool
	refCheckRotation int
	refSeed          uint64
)

var errUnstableReference = errors.New("reference order changed under a rigid transform")

var refCmd = &cobra.Command{
	Use:   "ref [file]",
	Short: "Print the canonical reference order of a solid",
	Long: `Print the facets in canonical order with their principal-frame keys.
With --check-rotation the solid is moved by random rigid transforms and the
reference order is recomputed to verify that it does not change.`,
	Args: cobra.ExactArgs(1),
	RunE: runRef,
}

func init() {
	rootCmd.AddCommand(refCmd)

	refCmd.Flags().BoolVar(&refIDs, "ids", false, "Print full facet identities")
	refCmd.Flags().IntVar(&refCheckRotation, "check-rotation", 0, "Number of random rigid transforms to verify against")
	refCmd.Flags().Uint64Var(&refSeed, "seed", 1, "Seed for --check-rotation")
}

func runRef(cmd *cobra.Command, args []string) error {
	model, err := loadSolid(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	c := newCanonicalizer()
	ref, err := c.Reference(model)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, model)
	fmt.Fprintf(out, "Axes: %s %s %s\n", ref.Frame.Axes[0], ref.Frame.Axes[1], ref.Frame.Axes[2])
	if ref.Ambiguous {
		fmt.Fprintln(out, "Warning: ties broken by facet identity, order depends on the pose")
	}
	fmt.Fprintf(out, "\n%-6s %-8s %-16s %s\n", "Rank", "Facet", "ID", "Key")
	for pos, idx := range ref.Order {
		id := model.ID(idx).Short()
		if refIDs {
			id = model.ID(idx).String()
		}
		fmt.Fprintf(out, "%-6d %-8d %-16s %s\n", pos, idx, id, ref.Keys[pos])
	}

	if refCheckRotation > 0 {
		if err := checkRotations(c, model, ref, refCheckRotation, refSeed); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nReference order unchanged under %d random rigid transforms\n", refCheckRotation)
	}
	return nil
}

// checkRotations moves the solid by n random rigid transforms and checks
// that the reference lists the same facets in the same order each time.
// Transforms keep arena indices, so orders compare directly.
func checkRotations(c *canon.Canonicalizer, s *stl.Solid, ref *canon.Reference, n int, seed uint64) error {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	scale := s.BoundingBox().Diagonal()

	for i := 0; i < n; i++ {
		axis := geometry.NewVector3(rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64())
		shift := geometry.NewVector3(rng.Float64(), rng.Float64(), rng.Float64()).Mul(10 * scale)
		tr := geometry.NewRigidTransform(axis, rng.Float64()*2*math.Pi, shift)

		moved := s.Transform(tr)
		got, err := c.Reference(moved)
		if err != nil {
			return fmt.Errorf("transform %d: %w", i, err)
		}
		if !slices.Equal(got.Order, ref.Order) {
			return fmt.Errorf("%w: transform %d", errUnstableReference, i)
		}
	}
	return nil
}
