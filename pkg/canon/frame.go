// Package canon derives an order of facets that depends only on the
// shape of a solid, not on its pose or on how its facets are stored.
//
// The solid's vertices are centred and rotated into their principal
// component frame. Every facet is keyed by the position of its centroid
// in that frame and the keys are sorted. Rigid motions of the solid move
// the frame along with it, so the keys and their order stay the same.
package canon

import (
	"fmt"
	"math"
	"sort"

	"github.com/philipparndt/stlmark/pkg/geometry"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Frame is the principal component frame of a vertex set.
type Frame struct {
	Centroid geometry.Vector3
	// Axes are orthonormal and right-handed, ordered by descending variance.
	Axes [3]geometry.Vector3
	// Eigenvalues are the variances along Axes.
	Eigenvalues [3]float64
	// Tolerance is the distance below which two frame coordinates are
	// treated as equal.
	Tolerance float64
}

// Project expresses p in the frame's coordinates.
func (f Frame) Project(p geometry.Vector3) geometry.Vector3 {
	d := p.Sub(f.Centroid)
	return geometry.NewVector3(d.Dot(f.Axes[0]), d.Dot(f.Axes[1]), d.Dot(f.Axes[2]))
}

// ProjectAll projects every point.
func (f Frame) ProjectAll(points []geometry.Vector3) []geometry.Vector3 {
	out := make([]geometry.Vector3, len(points))
	for i, p := range points {
		out[i] = f.Project(p)
	}
	return out
}

// ProjectTriangle projects the vertices and recomputes the normal.
func (f Frame) ProjectTriangle(t geometry.Triangle) geometry.Triangle {
	return t.Map(f.Project)
}

// Scale is the standard deviation along the main axis, the length unit
// used for tolerances.
func (f Frame) Scale() float64 {
	return math.Sqrt(f.Eigenvalues[0])
}

// precisionULPs is how many units of Options.Precision, taken at the
// largest absolute coordinate, two equal keys may drift apart after a
// rigid motion and a resave.
const precisionULPs = 4

// computeFrame runs PCA over points. Signs of the first two axes are
// fixed so that the point furthest along each axis lies on its positive
// side; the third axis completes a right-handed frame.
func computeFrame(points []geometry.Vector3, opts Options) (Frame, error) {
	if len(points) < 4 {
		return Frame{}, fmt.Errorf("%w: %d distinct vertices", ErrDegenerateMesh, len(points))
	}

	data := mat.NewDense(len(points), 3, nil)
	var centroid geometry.Vector3
	maxAbs := 0.0
	for i, p := range points {
		data.Set(i, 0, p.X)
		data.Set(i, 1, p.Y)
		data.Set(i, 2, p.Z)
		centroid = centroid.Add(p)
		maxAbs = math.Max(maxAbs, math.Max(math.Abs(p.X), math.Max(math.Abs(p.Y), math.Abs(p.Z))))
	}
	centroid = centroid.Mul(1 / float64(len(points)))

	cov := mat.NewSymDense(3, nil)
	stat.CovarianceMatrix(cov, data, nil)

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return Frame{}, fmt.Errorf("%w: eigendecomposition failed", ErrDegenerateMesh)
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// gonum returns ascending eigenvalues
	idx := []int{0, 1, 2}
	sort.Slice(idx, func(i, j int) bool { return values[idx[i]] > values[idx[j]] })

	var frame Frame
	frame.Centroid = centroid
	for k, col := range idx {
		frame.Eigenvalues[k] = values[col]
		frame.Axes[k] = geometry.NewVector3(vectors.At(0, col), vectors.At(1, col), vectors.At(2, col)).Normalize()
	}

	if frame.Eigenvalues[0] <= 0 {
		return Frame{}, fmt.Errorf("%w: all vertices coincide", ErrDegenerateMesh)
	}
	for k := 0; k < 2; k++ {
		gap := (frame.Eigenvalues[k] - frame.Eigenvalues[k+1]) / frame.Eigenvalues[0]
		if gap < opts.EigenGapTolerance {
			return Frame{}, fmt.Errorf("%w: principal variances %d and %d differ by %.3g (relative), below %.3g",
				ErrAmbiguousOrder, k+1, k+2, gap, opts.EigenGapTolerance)
		}
	}

	frame.Tolerance = keyTolerance(opts, frame.Scale(), maxAbs)
	for k := 0; k < 2; k++ {
		axis, err := orientAxis(frame.Axes[k], centroid, points, frame.Tolerance)
		if err != nil {
			return Frame{}, fmt.Errorf("axis %d: %w", k+1, err)
		}
		frame.Axes[k] = axis
	}
	frame.Axes[2] = frame.Axes[0].Cross(frame.Axes[1]).Normalize()

	return frame, nil
}

// keyTolerance is the larger of the shape-relative tolerance and the
// rounding noise of coordinates as large as maxAbs.
func keyTolerance(opts Options, scale, maxAbs float64) float64 {
	return math.Max(opts.KeyTolerance*scale, precisionULPs*opts.Precision*maxAbs)
}

// orientAxis flips axis so that the vertex with the largest absolute
// projection projects positively.
func orientAxis(axis, centroid geometry.Vector3, points []geometry.Vector3, tol float64) (geometry.Vector3, error) {
	proj := make([]float64, len(points))
	extreme := 0.0
	for i, p := range points {
		proj[i] = p.Sub(centroid).Dot(axis)
		if math.Abs(proj[i]) > math.Abs(extreme) {
			extreme = proj[i]
		}
	}

	for _, d := range proj {
		if d*extreme < 0 && math.Abs(extreme)-math.Abs(d) <= tol {
			return axis, fmt.Errorf("%w: extreme vertices at %.6g and %.6g are mirror images",
				ErrAmbiguousOrder, extreme, d)
		}
	}
	if extreme < 0 {
		return axis.Neg(), nil
	}
	return axis, nil
}
