package analysis

import (
	"testing"

	"github.com/philipparndt/stlmark/internal/testmesh"
	"github.com/philipparndt/stlmark/pkg/canon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeJitteredCube(t *testing.T) {
	cube := testmesh.JitteredCube()
	sum := Summarize(cube, canon.New(canon.DefaultOptions(), nil))

	assert.Equal(t, "cube", sum.Name)
	assert.Equal(t, 12, sum.FacetCount)
	assert.Equal(t, 8, sum.DistinctVertices)
	assert.False(t, sum.DuplicateFacets)
	assert.Equal(t, 36, sum.EdgeCount)
	assert.Equal(t, 3, sum.CapacityBytes)
	assert.InDelta(t, 28.8, sum.CapacityBits, 0.05)
	assert.InDelta(t, cube.SurfaceArea(), sum.SurfaceArea, 1e-12)

	require.NotNil(t, sum.Frame)
	assert.NoError(t, sum.CanonError)
	assert.True(t, sum.Watermarkable())
	assert.Greater(t, sum.EigenGaps[0], 0.01)
	assert.Greater(t, sum.EigenGaps[1], 0.01)

	assert.LessOrEqual(t, sum.MinEdgeLength, sum.AvgEdgeLength)
	assert.LessOrEqual(t, sum.AvgEdgeLength, sum.MaxEdgeLength)
}

func TestSummarizeSymmetricBox(t *testing.T) {
	sum := Summarize(testmesh.Box("box", 1, 1, 1), canon.New(canon.DefaultOptions(), nil))

	assert.ErrorIs(t, sum.CanonError, canon.ErrAmbiguousOrder)
	assert.False(t, sum.Watermarkable())
	assert.Nil(t, sum.Frame)
	assert.InDelta(t, 1.0, sum.BoundingBox.Volume(), 1e-12)
}

func TestEdgeOrdering(t *testing.T) {
	sum := Summarize(testmesh.Box("box", 3, 2, 1), canon.New(canon.DefaultOptions(), nil))

	longest := sum.LongestEdges(2)
	require.Len(t, longest, 2)
	assert.InDelta(t, sum.MaxEdgeLength, longest[0].Length, 1e-12)
	assert.GreaterOrEqual(t, longest[0].Length, longest[1].Length)

	shortest := sum.ShortestEdges(100)
	assert.Len(t, shortest, sum.EdgeCount)
	assert.InDelta(t, 1.0, shortest[0].Length, 1e-12)
}

func TestFormatVector(t *testing.T) {
	sum := Summarize(testmesh.Box("box", 3, 2, 1), canon.New(canon.DefaultOptions(), nil))
	assert.Equal(t, "(3.000000, 2.000000, 1.000000)", FormatVector(sum.Dimensions))
}
