package canon

import (
	"fmt"
	"sort"

	"github.com/philipparndt/stlmark/pkg/geometry"
	"github.com/philipparndt/stlmark/pkg/stl"
	"go.uber.org/zap"
)

// Float32Precision is the relative rounding step of a float32
// coordinate, the storage type of both STL encodings.
const Float32Precision = 0x1p-23

// Options tune how close two quantities may be before they count as equal.
type Options struct {
	// EigenGapTolerance is the smallest relative gap between principal
	// variances for the axes to be told apart.
	EigenGapTolerance float64
	// KeyTolerance is the distance, as a fraction of Frame.Scale, below
	// which two coordinates are considered equal.
	KeyTolerance float64
	// Precision is the relative rounding error of stored coordinates.
	// Keys closer than a few of these steps at the solid's largest
	// coordinate are equal even when KeyTolerance is tighter. Zero
	// trusts coordinates exactly.
	Precision float64
	// AllowAmbiguous keeps going when facet keys coincide, breaking ties
	// by area and then facet identity. The result is only reproducible
	// for a solid in the same pose.
	AllowAmbiguous bool
}

// DefaultOptions returns tolerances for geometry that is saved as STL.
func DefaultOptions() Options {
	return Options{
		EigenGapTolerance: 1e-6,
		KeyTolerance:      1e-5,
		Precision:         Float32Precision,
	}
}

// Canonicalizer computes principal frames and reference orders.
// It holds no per-solid state and is safe for concurrent use.
type Canonicalizer struct {
	opts Options
	log  *zap.Logger
}

// New creates a canonicalizer. A nil logger discards output.
func New(opts Options, log *zap.Logger) *Canonicalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Canonicalizer{opts: opts, log: log}
}

// Options returns the canonicalizer's settings.
func (c *Canonicalizer) Options() Options {
	return c.opts
}

// Frame computes the principal frame of the solid's distinct vertices.
func (c *Canonicalizer) Frame(s *stl.Solid) (Frame, error) {
	frame, err := computeFrame(s.Vertices(), c.opts)
	if err != nil {
		return Frame{}, err
	}
	c.log.Debug("principal frame",
		zap.String("solid", s.Name),
		zap.Float64s("eigenvalues", frame.Eigenvalues[:]),
		zap.Float64("tolerance", frame.Tolerance),
		zap.Stringer("axis1", frame.Axes[0]),
		zap.Stringer("axis2", frame.Axes[1]),
		zap.Stringer("axis3", frame.Axes[2]),
	)
	return frame, nil
}

// Reference is the canonical order of a solid's facets.
type Reference struct {
	// Order lists arena indices of the solid, first facet first.
	Order []int
	// Keys holds the facet centroids in frame coordinates, parallel to Order.
	Keys  []geometry.Vector3
	Frame Frame
	// Ambiguous is set when ties were broken by identity because
	// Options.AllowAmbiguous was on.
	Ambiguous bool
}

// IDs returns the identities of the referenced facets in canonical order.
func (r *Reference) IDs(s *stl.Solid) []stl.FacetID {
	ids := make([]stl.FacetID, len(r.Order))
	for i, idx := range r.Order {
		ids[i] = s.ID(idx)
	}
	return ids
}

// Rank returns, for every arena index, its position in the canonical order.
func (r *Reference) Rank() []int {
	rank := make([]int, len(r.Order))
	for pos, idx := range r.Order {
		rank[idx] = pos
	}
	return rank
}

type facetKey struct {
	index int
	key   geometry.Vector3
	area  float64
	id    stl.FacetID
}

// Reference orders the solid's facets by the frame coordinates of their
// centroids. Facets whose first coordinates agree within the frame
// tolerance form a group that is ordered by the second coordinate, and
// so on; facets that agree on all three are ambiguous. The result does
// not depend on the solid's storage order or on its pose.
func (c *Canonicalizer) Reference(s *stl.Solid) (*Reference, error) {
	if s.Len() < 2 {
		return nil, fmt.Errorf("%w: %d facets", ErrDegenerateMesh, s.Len())
	}
	frame, err := c.Frame(s)
	if err != nil {
		return nil, err
	}

	keys := make([]facetKey, s.Len())
	for i := range keys {
		f := s.Facet(i)
		keys[i] = facetKey{
			index: i,
			key:   frame.Project(f.Center()),
			area:  f.Area(),
			id:    s.ID(i),
		}
	}

	var ties [][]facetKey
	orderKeys(keys, 0, frame.Tolerance, &ties)

	ref := &Reference{
		Order: make([]int, len(keys)),
		Keys:  make([]geometry.Vector3, len(keys)),
		Frame: frame,
	}
	for i, k := range keys {
		ref.Order[i] = k.index
		ref.Keys[i] = k.key
	}

	for _, group := range ties {
		a, b := group[0], group[1]
		if !c.opts.AllowAmbiguous {
			return nil, fmt.Errorf("%w: %d facets including %d and %d (%s, %s) share the key %s",
				ErrAmbiguousOrder, len(group), a.index, b.index, a.id.Short(), b.id.Short(), a.key)
		}
		ref.Ambiguous = true
		c.log.Warn("facet keys coincide, order falls back to area and identity",
			zap.String("solid", s.Name),
			zap.Int("facets", len(group)),
			zap.Int("facet_a", a.index),
			zap.Int("facet_b", b.index),
		)
	}

	c.log.Debug("reference order computed",
		zap.String("solid", s.Name),
		zap.Int("facets", len(ref.Order)),
		zap.Bool("ambiguous", ref.Ambiguous),
	)
	return ref, nil
}

// orderKeys sorts keys in place along axis and splits them into runs
// whose neighbours lie within tol of each other. Each run is ordered by
// the next axis. Runs that remain after the last axis are sorted by area
// and identity and appended to ties. The result does not depend on the
// input order.
func orderKeys(keys []facetKey, axis int, tol float64, ties *[][]facetKey) {
	if axis == 3 {
		if len(keys) > 1 {
			sort.Slice(keys, func(i, j int) bool {
				if keys[i].area != keys[j].area {
					return keys[i].area < keys[j].area
				}
				return keys[i].id.Compare(keys[j].id) < 0
			})
			*ties = append(*ties, keys)
		}
		return
	}

	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i].key.Component(axis), keys[j].key.Component(axis)
		if a != b {
			return a < b
		}
		return keys[i].id.Compare(keys[j].id) < 0
	})

	start := 0
	for i := 1; i <= len(keys); i++ {
		if i < len(keys) && keys[i].key.Component(axis)-keys[i-1].key.Component(axis) <= tol {
			continue
		}
		orderKeys(keys[start:i], axis+1, tol, ties)
		start = i
	}
}

// PCAVertices returns the solid's distinct vertices in frame coordinates.
func PCAVertices(s *stl.Solid, frame Frame) []geometry.Vector3 {
	return frame.ProjectAll(s.Vertices())
}
