package canon

import (
	"math"
	"testing"

	"github.com/philipparndt/stlmark/internal/testmesh"
	"github.com/philipparndt/stlmark/pkg/geometry"
	"github.com/philipparndt/stlmark/pkg/stl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCanonicalizer() *Canonicalizer {
	return New(DefaultOptions(), nil)
}

func TestReferenceJitteredCube(t *testing.T) {
	ref, err := newTestCanonicalizer().Reference(testmesh.JitteredCube())
	require.NoError(t, err)

	assert.Equal(t, []int{2, 3, 5, 7, 11, 4, 10, 9, 6, 8, 0, 1}, ref.Order)
	assert.False(t, ref.Ambiguous)
	require.Len(t, ref.Keys, 12)
	for i := 1; i < len(ref.Keys); i++ {
		assert.Less(t, ref.Keys[i-1].X, ref.Keys[i].X, "keys must ascend along the main axis")
	}
}

func TestReferenceInvariantUnderRigidMotion(t *testing.T) {
	cube := testmesh.JitteredCube()
	c := newTestCanonicalizer()

	want, err := c.Reference(cube)
	require.NoError(t, err)

	transforms := []geometry.RigidTransform{
		geometry.Identity(),
		geometry.NewEulerTransform(0.7, -1.1, 2.3, geometry.NewVector3(5, -3, 12)),
		geometry.NewRigidTransform(geometry.NewVector3(1, 1, 0), math.Pi, geometry.Vector3{}),
		geometry.NewRigidTransform(geometry.NewVector3(0, 0, 1), math.Pi/2, geometry.NewVector3(-100, 250, 3)),
		geometry.NewEulerTransform(3.0, 0.2, -0.5, geometry.NewVector3(1e3, 1e3, -1e3)),
	}
	for i, tr := range transforms {
		got, err := c.Reference(cube.Transform(tr))
		require.NoError(t, err, "transform %d", i)
		assert.Equal(t, want.Order, got.Order, "transform %d", i)
	}
}

func TestReferenceIndependentOfStorageOrder(t *testing.T) {
	cube := testmesh.JitteredCube()
	c := newTestCanonicalizer()

	want, err := c.Reference(cube)
	require.NoError(t, err)

	// Reload the cube as if it had been stored back to front
	reversed := testmesh.Reversed(cube).Compact()
	got, err := c.Reference(reversed)
	require.NoError(t, err)

	assert.Equal(t, want.IDs(cube), got.IDs(reversed))
	assert.NotEqual(t, want.Order, got.Order)
}

func TestReferenceSurvivesFloat32Resave(t *testing.T) {
	c := newTestCanonicalizer()
	frustum := testmesh.Frustum(40).Float32()

	want, err := c.Reference(frustum)
	require.NoError(t, err)
	require.Len(t, want.Order, 158)

	transforms := []geometry.RigidTransform{
		geometry.NewEulerTransform(0.4, 0.9, -0.3, geometry.NewVector3(20, -35, 8)),
		geometry.NewEulerTransform(1.3, -0.6, 2.2, geometry.NewVector3(-40, 12, 30)),
		geometry.NewRigidTransform(geometry.NewVector3(1, 2, 3), 2.5, geometry.Vector3{}),
	}
	for i, tr := range transforms {
		got, err := c.Reference(frustum.Transform(tr).Float32())
		require.NoError(t, err, "transform %d", i)
		assert.Equal(t, want.Order, got.Order, "transform %d", i)
	}
}

func TestCoplanarFacetsAreOrderedByTheNextAxis(t *testing.T) {
	ref, err := newTestCanonicalizer().Reference(testmesh.Frustum(40).Float32())
	require.NoError(t, err)

	tol := ref.Frame.Tolerance
	grouped := 0
	for i := 1; i < len(ref.Keys); i++ {
		a, b := ref.Keys[i-1], ref.Keys[i]
		if b.X-a.X > tol {
			continue
		}
		grouped++
		if b.Y-a.Y > tol {
			continue
		}
		assert.Greater(t, b.Z-a.Z, tol, "keys %d and %d coincide", i-1, i)
	}
	// the caps and the side bands
	assert.Greater(t, grouped, 100)
}

func newKey(index int, x, y, z float64) facetKey {
	return facetKey{index: index, key: geometry.NewVector3(x, y, z), area: 1, id: stl.FacetID{byte(index)}}
}

func orderOf(keys []facetKey) []int {
	order := make([]int, len(keys))
	for i, k := range keys {
		order[i] = k.index
	}
	return order
}

func TestOrderKeysGroupsWithinTolerance(t *testing.T) {
	const tol = 1e-6
	keys := []facetKey{
		newKey(0, 0, 3, 0),
		newKey(1, 0.6e-6, 1, 0),
		newKey(2, 1.2e-6, 2, 0), // chained to key 0 through key 1
		newKey(3, -5, 9, 0),
		newKey(4, 5, -9, 0),
	}
	want := []int{3, 1, 2, 0, 4}

	// every rotation of the input gives the same order
	for shift := 0; shift < len(keys); shift++ {
		in := append(append([]facetKey{}, keys[shift:]...), keys[:shift]...)
		var ties [][]facetKey
		orderKeys(in, 0, tol, &ties)
		assert.Equal(t, want, orderOf(in), "shift %d", shift)
		assert.Empty(t, ties)
	}
}

func TestOrderKeysReportsTies(t *testing.T) {
	keys := []facetKey{
		newKey(0, 1, 1, 1),
		newKey(1, 0, 0, 0),
		newKey(2, 1, 1, 1+1e-9),
	}
	keys[2].area = 0.5

	var ties [][]facetKey
	orderKeys(keys, 0, 1e-6, &ties)

	require.Len(t, ties, 1)
	assert.Len(t, ties[0], 2)
	// ties fall back to area
	assert.Equal(t, []int{1, 2, 0}, orderOf(keys))
}

func TestFrameToleranceFollowsCoordinatePrecision(t *testing.T) {
	cube := testmesh.JitteredCube()
	far := cube.Transform(geometry.NewRigidTransform(geometry.NewVector3(0, 0, 1), 0, geometry.NewVector3(1e3, 0, 0)))

	c := newTestCanonicalizer()
	near, err := c.Frame(cube)
	require.NoError(t, err)
	assert.InDelta(t, DefaultOptions().KeyTolerance*near.Scale(), near.Tolerance, 1e-18)

	moved, err := c.Frame(far)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, moved.Tolerance, 4*Float32Precision*1e3)

	exact := DefaultOptions()
	exact.Precision = 0
	moved, err = New(exact, nil).Frame(far)
	require.NoError(t, err)
	assert.InDelta(t, exact.KeyTolerance*moved.Scale(), moved.Tolerance, 1e-15)
}

func TestFrameIsOrthonormalAndRightHanded(t *testing.T) {
	frame, err := newTestCanonicalizer().Frame(testmesh.JitteredCube())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.InDelta(t, 1.0, frame.Axes[i].Length(), 1e-12)
		for j := i + 1; j < 3; j++ {
			assert.InDelta(t, 0.0, frame.Axes[i].Dot(frame.Axes[j]), 1e-12)
		}
	}
	assert.InDelta(t, 1.0, frame.Axes[0].Cross(frame.Axes[1]).Dot(frame.Axes[2]), 1e-12)

	assert.Greater(t, frame.Eigenvalues[0], frame.Eigenvalues[1])
	assert.Greater(t, frame.Eigenvalues[1], frame.Eigenvalues[2])
	assert.InDelta(t, math.Sqrt(frame.Eigenvalues[0]), frame.Scale(), 1e-15)
}

func TestPCAVerticesAreCentered(t *testing.T) {
	cube := testmesh.JitteredCube()
	frame, err := newTestCanonicalizer().Frame(cube)
	require.NoError(t, err)

	var sum geometry.Vector3
	pca := PCAVertices(cube, frame)
	require.Len(t, pca, 8)
	for _, p := range pca {
		sum = sum.Add(p)
	}
	assert.InDelta(t, 0.0, sum.Length(), 1e-12)
}

func TestSymmetricSolidsAreAmbiguous(t *testing.T) {
	c := newTestCanonicalizer()

	// Equal variances on every axis
	_, err := c.Reference(testmesh.Box("cube", 1, 1, 1))
	assert.ErrorIs(t, err, ErrAmbiguousOrder)

	// Distinct variances, but each axis is a mirror symmetry
	_, err = c.Reference(testmesh.Box("brick", 3, 2, 1))
	assert.ErrorIs(t, err, ErrAmbiguousOrder)
}

func TestDuplicateFacetsAreAmbiguous(t *testing.T) {
	cube := testmesh.JitteredCube()
	facets := append(cube.Facets(), cube.Facet(4))
	dup := stl.NewSolid("dup", facets)

	_, err := newTestCanonicalizer().Reference(dup)
	require.ErrorIs(t, err, ErrAmbiguousOrder)

	opts := DefaultOptions()
	opts.AllowAmbiguous = true
	ref, err := New(opts, nil).Reference(dup)
	require.NoError(t, err)
	assert.True(t, ref.Ambiguous)
	assert.Len(t, ref.Order, 13)
}

func TestDegenerateSolids(t *testing.T) {
	c := newTestCanonicalizer()

	single := stl.NewSolid("one", testmesh.JitteredCube().Facets()[:1])
	_, err := c.Reference(single)
	assert.ErrorIs(t, err, ErrDegenerateMesh)

	_, err = c.Reference(stl.NewSolid("empty", nil))
	assert.ErrorIs(t, err, ErrDegenerateMesh)

	// front and back of one triangle: two facets, three vertices
	f := testmesh.JitteredCube().Facet(0)
	back := stl.NewFacet(geometry.Vector3{}, f.V1, f.V3, f.V2)
	_, err = c.Reference(stl.NewSolid("sheet", []stl.Facet{f, back}))
	assert.ErrorIs(t, err, ErrDegenerateMesh)
}

func TestReferenceRank(t *testing.T) {
	ref := &Reference{Order: []int{2, 0, 3, 1}}
	assert.Equal(t, []int{1, 3, 0, 2}, ref.Rank())
}

func TestProjectTriangleKeepsArea(t *testing.T) {
	cube := testmesh.JitteredCube()
	frame, err := newTestCanonicalizer().Frame(cube)
	require.NoError(t, err)

	f := cube.Facet(0)
	projected := frame.ProjectTriangle(f.Triangle)
	assert.InDelta(t, f.Area(), projected.Area(), 1e-12)
}
