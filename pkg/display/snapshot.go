// Package display draws solids for inspection, either where they are or
// in the principal frame used for canonical ordering.
package display

import (
	"github.com/philipparndt/stlmark/pkg/canon"
	"github.com/philipparndt/stlmark/pkg/geometry"
	"github.com/philipparndt/stlmark/pkg/stl"
)

// Snapshot is a read-only copy of the geometry to draw.
type Snapshot interface {
	Name() string
	Triangles() []geometry.Triangle
	BoundingBox() geometry.BoundingBox
	// PCA reports whether the coordinates are principal frame coordinates.
	PCA() bool
}

type snapshot struct {
	name      string
	triangles []geometry.Triangle
	bbox      geometry.BoundingBox
	pca       bool
}

// NewSnapshot copies the triangles of s in storage order. With a non-nil
// frame every triangle is expressed in that frame's coordinates.
func NewSnapshot(s *stl.Solid, frame *canon.Frame) Snapshot {
	tris := s.Triangles()
	if frame != nil {
		for i, t := range tris {
			tris[i] = frame.ProjectTriangle(t)
		}
	}
	bbox := geometry.NewBoundingBox()
	for _, t := range tris {
		for _, v := range t.Vertices() {
			bbox.Extend(v)
		}
	}
	return &snapshot{name: s.Name, triangles: tris, bbox: bbox, pca: frame != nil}
}

func (s *snapshot) Name() string { return s.name }

func (s *snapshot) Triangles() []geometry.Triangle {
	return append([]geometry.Triangle(nil), s.triangles...)
}

func (s *snapshot) BoundingBox() geometry.BoundingBox { return s.bbox }

func (s *snapshot) PCA() bool { return s.pca }
