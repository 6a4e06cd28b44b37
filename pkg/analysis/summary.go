// Package analysis summarizes how well a solid can carry a watermark.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/philipparndt/stlmark/pkg/canon"
	"github.com/philipparndt/stlmark/pkg/geometry"
	"github.com/philipparndt/stlmark/pkg/permcodec"
	"github.com/philipparndt/stlmark/pkg/stl"
)

// EdgeInfo contains information about an edge of a facet
type EdgeInfo struct {
	Start  geometry.Vector3
	End    geometry.Vector3
	Length float64
	Facet  int // arena index
}

// Summary describes a solid's geometry and its watermark capacity
type Summary struct {
	Name             string
	File             string
	FacetCount       int
	DistinctVertices int
	DuplicateFacets  bool

	BoundingBox geometry.BoundingBox
	Dimensions  geometry.Vector3
	SurfaceArea float64

	EdgeCount     int
	MinEdgeLength float64
	MaxEdgeLength float64
	AvgEdgeLength float64
	AllEdges      []EdgeInfo

	// CapacityBits is log2(n!), CapacityBytes the longest payload accepted.
	CapacityBits  float64
	CapacityBytes int

	// Frame is nil when no principal frame exists.
	Frame *canon.Frame
	// EigenGaps are the relative gaps between successive principal variances.
	EigenGaps [2]float64
	// CanonError explains why the solid has no usable reference order.
	CanonError error
}

// Watermarkable reports whether payloads can be embedded and recovered.
func (sum *Summary) Watermarkable() bool {
	return sum.CanonError == nil && sum.CapacityBytes > 0
}

// Summarize analyzes the solid. The canonicalizer decides whether the
// reference order is usable; its failure is recorded, not returned.
func Summarize(s *stl.Solid, c *canon.Canonicalizer) *Summary {
	sum := &Summary{
		Name:             s.Name,
		File:             s.File,
		FacetCount:       s.Len(),
		DistinctVertices: len(s.Vertices()),
		DuplicateFacets:  s.HasDuplicates(),
		BoundingBox:      s.BoundingBox(),
		SurfaceArea:      s.SurfaceArea(),
		CapacityBits:     s.CapacityBits(),
		CapacityBytes:    permcodec.Capacity(s.Len()),
	}
	sum.Dimensions = sum.BoundingBox.Size()
	sum.collectEdges(s)

	if frame, err := c.Frame(s); err == nil {
		sum.Frame = &frame
		for k := 0; k < 2; k++ {
			sum.EigenGaps[k] = (frame.Eigenvalues[k] - frame.Eigenvalues[k+1]) / frame.Eigenvalues[0]
		}
	}
	if _, err := c.Reference(s); err != nil {
		sum.CanonError = err
	}
	return sum
}

func (sum *Summary) collectEdges(s *stl.Solid) {
	minLength := math.MaxFloat64
	maxLength := 0.0
	totalLength := 0.0

	for i := 0; i < s.Len(); i++ {
		v := s.Facet(i).Vertices()
		for k := 0; k < 3; k++ {
			start, end := v[k], v[(k+1)%3]
			length := start.Distance(end)
			sum.AllEdges = append(sum.AllEdges, EdgeInfo{Start: start, End: end, Length: length, Facet: i})

			totalLength += length
			minLength = math.Min(minLength, length)
			maxLength = math.Max(maxLength, length)
		}
	}

	sum.EdgeCount = len(sum.AllEdges)
	if sum.EdgeCount > 0 {
		sum.MinEdgeLength = minLength
		sum.MaxEdgeLength = maxLength
		sum.AvgEdgeLength = totalLength / float64(sum.EdgeCount)
	}
}

// LongestEdges returns the n longest edges
func (sum *Summary) LongestEdges(n int) []EdgeInfo {
	return sortedEdges(sum.AllEdges, n, func(a, b float64) bool { return a > b })
}

// ShortestEdges returns the n shortest edges
func (sum *Summary) ShortestEdges(n int) []EdgeInfo {
	return sortedEdges(sum.AllEdges, n, func(a, b float64) bool { return a < b })
}

func sortedEdges(all []EdgeInfo, n int, less func(a, b float64) bool) []EdgeInfo {
	edges := append([]EdgeInfo(nil), all...)
	sort.SliceStable(edges, func(i, j int) bool {
		return less(edges[i].Length, edges[j].Length)
	})
	if n > len(edges) {
		n = len(edges)
	}
	return edges[:n]
}

// FormatVector formats a 3D vector
func FormatVector(v geometry.Vector3) string {
	return fmt.Sprintf("(%.6f, %.6f, %.6f)", v.X, v.Y, v.Z)
}
