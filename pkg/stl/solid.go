package stl

import (
	"fmt"
	"math"

	"github.com/philipparndt/stlmark/pkg/geometry"
)

// Solid is a named set of facets plus the order they are stored in.
//
// Facets live in a stable arena that is never reordered or modified.
// The storage order is kept separately as a list of arena indices, so
// reordering a solid never disturbs its geometry or the identity index.
type Solid struct {
	Name string
	File string

	facets   []Facet
	ids      []FacetID
	index    map[FacetID]int
	vertices []geometry.Vector3
	order    []int
}

// NewSolid creates a solid whose storage order is the order of facets.
func NewSolid(name string, facets []Facet) *Solid {
	s := &Solid{
		Name:   name,
		facets: append([]Facet(nil), facets...),
		ids:    make([]FacetID, len(facets)),
		index:  make(map[FacetID]int, len(facets)),
		order:  make([]int, len(facets)),
	}

	seen := make(map[geometry.Vector3]struct{})
	for i, f := range s.facets {
		id := f.ID()
		s.ids[i] = id
		if _, dup := s.index[id]; !dup {
			s.index[id] = i
		}
		s.order[i] = i

		for _, v := range f.Vertices() {
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				s.vertices = append(s.vertices, v)
			}
		}
	}
	return s
}

// Len returns the number of facets
func (s *Solid) Len() int {
	return len(s.facets)
}

// Facet returns the facet at arena index i
func (s *Solid) Facet(i int) Facet {
	return s.facets[i]
}

// ID returns the identity of the facet at arena index i
func (s *Solid) ID(i int) FacetID {
	return s.ids[i]
}

// IDs returns all identities in arena order
func (s *Solid) IDs() []FacetID {
	return append([]FacetID(nil), s.ids...)
}

// IndexOf maps a facet identity to its arena index. When several facets
// share an identity the first one is returned.
func (s *Solid) IndexOf(id FacetID) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// HasDuplicates reports whether two facets share the same vertex set
func (s *Solid) HasDuplicates() bool {
	return len(s.index) != len(s.ids)
}

// Order returns the storage order as arena indices
func (s *Solid) Order() []int {
	return append([]int(nil), s.order...)
}

// Facets returns the facets in storage order
func (s *Solid) Facets() []Facet {
	out := make([]Facet, len(s.order))
	for i, idx := range s.order {
		out[i] = s.facets[idx]
	}
	return out
}

// Triangles returns the facet triangles in storage order
func (s *Solid) Triangles() []geometry.Triangle {
	out := make([]geometry.Triangle, len(s.order))
	for i, idx := range s.order {
		out[i] = s.facets[idx].Triangle
	}
	return out
}

// Vertices returns the distinct vertex positions in order of first
// appearance in the arena.
func (s *Solid) Vertices() []geometry.Vector3 {
	return append([]geometry.Vector3(nil), s.vertices...)
}

// WithOrder returns a solid sharing this solid's facets but stored in the
// given order. The receiver is left untouched.
func (s *Solid) WithOrder(order []int) (*Solid, error) {
	if err := checkPermutation(order, len(s.facets)); err != nil {
		return nil, err
	}
	out := *s
	out.order = append([]int(nil), order...)
	return &out, nil
}

// Compact returns a solid whose arena is this solid's storage order, as
// it would look after being written and loaded again.
func (s *Solid) Compact() *Solid {
	out := NewSolid(s.Name, s.Facets())
	out.File = s.File
	return out
}

// Transform returns a solid with every facet moved by tr. Storage order
// and arena positions are preserved.
func (s *Solid) Transform(tr geometry.RigidTransform) *Solid {
	return s.mapFacets(func(f Facet) Facet {
		return Facet{Triangle: tr.ApplyTriangle(f.Triangle)}
	})
}

// Float32 rounds every coordinate to float32, the precision of binary STL.
func (s *Solid) Float32() *Solid {
	round := func(v geometry.Vector3) geometry.Vector3 {
		return geometry.NewVector3(float64(float32(v.X)), float64(float32(v.Y)), float64(float32(v.Z)))
	}
	return s.mapFacets(func(f Facet) Facet {
		return NewFacet(round(f.Normal), round(f.V1), round(f.V2), round(f.V3))
	})
}

func (s *Solid) mapFacets(fn func(Facet) Facet) *Solid {
	facets := make([]Facet, len(s.facets))
	for i, f := range s.facets {
		facets[i] = fn(f)
	}
	out := NewSolid(s.Name, facets)
	out.File = s.File
	out.order = append([]int(nil), s.order...)
	return out
}

// BoundingBox calculates the bounding box of the entire solid
func (s *Solid) BoundingBox() geometry.BoundingBox {
	bbox := geometry.NewBoundingBox()
	for _, v := range s.vertices {
		bbox.Extend(v)
	}
	return bbox
}

// SurfaceArea calculates the total surface area of the solid
func (s *Solid) SurfaceArea() float64 {
	total := 0.0
	for _, f := range s.facets {
		total += f.Area()
	}
	return total
}

// CapacityBits is log2(n!), the number of bits the facet order can carry
func (s *Solid) CapacityBits() float64 {
	lg, _ := math.Lgamma(float64(len(s.facets)) + 1)
	return lg / math.Ln2
}

func (s *Solid) String() string {
	return fmt.Sprintf("'%s' with %d facets, which can save about %.1f bits.",
		s.Name, len(s.facets), s.CapacityBits())
}

func checkPermutation(order []int, n int) error {
	if len(order) != n {
		return fmt.Errorf("%w: order has %d entries, solid has %d facets", ErrFacetSetMismatch, len(order), n)
	}
	seen := make([]bool, n)
	for pos, idx := range order {
		if idx < 0 || idx >= n {
			return fmt.Errorf("%w: position %d names facet %d, out of range", ErrFacetSetMismatch, pos, idx)
		}
		if seen[idx] {
			return fmt.Errorf("%w: facet %d appears twice", ErrFacetSetMismatch, idx)
		}
		seen[idx] = true
	}
	return nil
}
