package display

import (
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/philipparndt/stlmark/internal/testmesh"
	"github.com/philipparndt/stlmark/pkg/canon"
	"github.com/philipparndt/stlmark/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotOriginalCoordinates(t *testing.T) {
	cube := testmesh.JitteredCube()
	snap := NewSnapshot(cube, nil)

	assert.Equal(t, "cube", snap.Name())
	assert.False(t, snap.PCA())
	assert.Equal(t, cube.Triangles(), snap.Triangles())
	assert.Equal(t, cube.BoundingBox(), snap.BoundingBox())

	// callers cannot reach into the snapshot
	tris := snap.Triangles()
	tris[0] = geometry.Triangle{}
	assert.Equal(t, cube.Triangles()[0], snap.Triangles()[0])
}

func TestSnapshotPCACoordinates(t *testing.T) {
	cube := testmesh.JitteredCube()
	frame, err := canon.New(canon.DefaultOptions(), nil).Frame(cube)
	require.NoError(t, err)

	snap := NewSnapshot(cube, &frame)
	assert.True(t, snap.PCA())

	// the principal frame is centered on the vertex centroid
	var sum geometry.Vector3
	n := 0
	seen := map[geometry.Vector3]bool{}
	for _, tri := range snap.Triangles() {
		for _, v := range tri.Vertices() {
			if !seen[v] {
				seen[v] = true
				sum = sum.Add(v)
				n++
			}
		}
	}
	assert.Equal(t, 8, n)
	assert.InDelta(t, 0, sum.Length()/float64(n), 1e-9)

	// moving the cube does not move its principal view
	moved := cube.Transform(geometry.NewEulerTransform(1, 2, 3, geometry.NewVector3(5, 6, 7)))
	movedFrame, err := canon.New(canon.DefaultOptions(), nil).Frame(moved)
	require.NoError(t, err)
	movedSnap := NewSnapshot(moved, &movedFrame)
	for i, tri := range snap.Triangles() {
		other := movedSnap.Triangles()[i]
		for j, v := range tri.Vertices() {
			assert.InDelta(t, 0, v.Distance(other.Vertices()[j]), 1e-9)
		}
	}
}

func TestRender(t *testing.T) {
	img := Render(NewSnapshot(testmesh.JitteredCube(), nil), 160, 120)
	require.Equal(t, image.Rect(0, 0, 160, 120), img.Bounds())

	// the model is centered, so the middle pixel is part of it
	assert.NotEqual(t, background, img.RGBAAt(80, 60))
	assert.Equal(t, background, img.RGBAAt(0, 0))
}

func TestRenderEdgesAndEmptyCanvas(t *testing.T) {
	snap := NewSnapshot(testmesh.JitteredCube(), nil)
	v := DefaultView(64, 64)
	v.Edges = true
	img := RenderView(snap, v)

	found := false
	for y := 0; y < 64 && !found; y++ {
		for x := 0; x < 64; x++ {
			if img.RGBAAt(x, y) == edgeColor {
				found = true
				break
			}
		}
	}
	assert.True(t, found, "no edge pixels drawn")

	empty := RenderView(snap, View{})
	assert.True(t, empty.Bounds().Empty())
}

func TestShade(t *testing.T) {
	assert.Equal(t, baseColor, shade(1))
	assert.Equal(t, baseColor, shade(-1))
	dark := shade(0)
	assert.Less(t, dark.B, baseColor.B)
}

func TestCameraProjectsTargetToCenter(t *testing.T) {
	bbox := testmesh.JitteredCube().BoundingBox()
	cam := NewCamera(bbox)
	cam.Rotate(0.3, -1.2)
	cam.Zoom(0.5)

	x, y, z := cam.Project(bbox.Center(), 200, 100)
	assert.InDelta(t, 100, x, 1e-9)
	assert.InDelta(t, 50, y, 1e-9)
	assert.InDelta(t, cam.Distance, z, 1e-9)

	cam.Rotate(10, 0)
	assert.InDelta(t, math.Pi/2-0.1, cam.RotationX, 1e-12)
}

func TestPlot(t *testing.T) {
	cube := testmesh.JitteredCube()
	frame, err := canon.New(canon.DefaultOptions(), nil).Frame(cube)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "plots", "cube.png")
	require.NoError(t, Plot(NewSnapshot(cube, &frame), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), img.Bounds().Dy())
}
