// Package testmesh builds small solids shared by tests across packages.
package testmesh

import (
	"math"

	"github.com/philipparndt/stlmark/pkg/geometry"
	"github.com/philipparndt/stlmark/pkg/stl"
)

var boxFaces = [12][3]int{
	{0, 2, 1}, {0, 3, 2}, // bottom
	{4, 5, 6}, {4, 6, 7}, // top
	{0, 1, 5}, {0, 5, 4},
	{1, 2, 6}, {1, 6, 5},
	{2, 3, 7}, {2, 7, 6},
	{3, 0, 4}, {3, 4, 7},
}

// cubeJitter moves the unit cube corners far enough apart that the
// principal axes, their signs and every facet key are well separated.
var cubeJitter = [8][3]float64{
	{0.00, 0.00, 0.00},
	{0.21, -0.03, 0.05},
	{0.12, 0.34, -0.08},
	{-0.06, 0.09, 0.02},
	{0.04, -0.11, 0.27},
	{0.15, 0.07, 0.43},
	{0.31, 0.22, 0.18},
	{-0.09, 0.17, 0.36},
}

// Box returns a 12-facet axis-aligned box with corners at the origin and
// (sx, sy, sz). It is symmetric, so its canonical order is ambiguous.
func Box(name string, sx, sy, sz float64) *stl.Solid {
	return fromCorners(name, boxCorners(sx, sy, sz))
}

func boxCorners(sx, sy, sz float64) [8]geometry.Vector3 {
	return [8]geometry.Vector3{
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(sx, 0, 0),
		geometry.NewVector3(sx, sy, 0),
		geometry.NewVector3(0, sy, 0),
		geometry.NewVector3(0, 0, sz),
		geometry.NewVector3(sx, 0, sz),
		geometry.NewVector3(sx, sy, sz),
		geometry.NewVector3(0, sy, sz),
	}
}

// JitteredCube returns the unit cube with every corner displaced by a
// fixed offset. It has 12 facets and an unambiguous canonical order.
func JitteredCube() *stl.Solid {
	corners := boxCorners(1, 1, 1)
	for i, v := range corners {
		corners[i] = v.Add(geometry.NewVector3(cubeJitter[i][0], cubeJitter[i][1], cubeJitter[i][2]))
	}
	return fromCorners("cube", corners)
}

func fromCorners(name string, c [8]geometry.Vector3) *stl.Solid {
	facets := make([]stl.Facet, 0, len(boxFaces))
	for _, f := range boxFaces {
		facets = append(facets, stl.NewFacet(geometry.Vector3{}, c[f[0]], c[f[1]], c[f[2]]))
	}
	return stl.NewSolid(name, facets)
}

// Frustum returns a tapered prism over an irregular oval with the given
// number of sides, 4*sides-2 facets in total. Both caps are flat and
// perpendicular to the main axis, so many facets share a key coordinate
// up to rounding. The bottom cap is fanned from a corner and the top cap
// from its centre, which leaves the solid without mirror symmetries.
func Frustum(sides int) *stl.Solid {
	const (
		rx, ry = 1.0, 0.55
		taper  = 0.6
		height = 3.0
	)
	ring := make([][2]float64, sides)
	var mx, my float64
	for k := range ring {
		fk := float64(k)
		th := 2 * math.Pi * (fk + 0.3*math.Sin(1.7*fk)) / float64(sides)
		r := 1 + 0.1*math.Cos(2.3*fk)
		ring[k] = [2]float64{rx * r * math.Cos(th), ry * r * math.Sin(th)}
		mx += ring[k][0]
		my += ring[k][1]
	}
	mx /= float64(sides)
	my /= float64(sides)

	bottom := make([]geometry.Vector3, sides)
	top := make([]geometry.Vector3, sides)
	for k, p := range ring {
		x, y := p[0]-mx, p[1]-my
		bottom[k] = geometry.NewVector3(x, y, 0)
		top[k] = geometry.NewVector3(taper*x, taper*y, height)
	}
	centre := geometry.NewVector3(0, 0, height)

	facets := make([]stl.Facet, 0, 4*sides-2)
	for i := 1; i < sides-1; i++ {
		facets = append(facets, stl.NewFacet(geometry.Vector3{}, bottom[0], bottom[i+1], bottom[i]))
	}
	for i := 0; i < sides; i++ {
		facets = append(facets, stl.NewFacet(geometry.Vector3{}, centre, top[i], top[(i+1)%sides]))
	}
	for i := 0; i < sides; i++ {
		j := (i + 1) % sides
		facets = append(facets,
			stl.NewFacet(geometry.Vector3{}, bottom[i], bottom[j], top[i]),
			stl.NewFacet(geometry.Vector3{}, bottom[j], top[j], top[i]),
		)
	}
	return stl.NewSolid("frustum", facets)
}

// Reversed returns the solid stored back to front.
func Reversed(s *stl.Solid) *stl.Solid {
	order := make([]int, s.Len())
	for i := range order {
		order[i] = s.Len() - 1 - i
	}
	out, err := s.WithOrder(order)
	if err != nil {
		panic(err)
	}
	return out
}
