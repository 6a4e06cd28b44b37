package geometry

import (
	"math"
	"testing"
)

func TestRigidTransformPreservesDistances(t *testing.T) {
	tr := NewEulerTransform(0.7, -1.1, 2.3, NewVector3(5, -3, 12))

	a := NewVector3(1, 2, 3)
	b := NewVector3(-4, 0.5, 7)

	before := a.Distance(b)
	after := tr.Apply(a).Distance(tr.Apply(b))
	if math.Abs(before-after) > 1e-12 {
		t.Errorf("distance changed: %v -> %v", before, after)
	}
}

func TestRigidTransformQuarterTurn(t *testing.T) {
	tr := NewRigidTransform(NewVector3(0, 0, 1), math.Pi/2, NewVector3(0, 0, 10))

	got := tr.Apply(NewVector3(1, 0, 0))
	expected := NewVector3(0, 1, 10)
	if got.Distance(expected) > 1e-12 {
		t.Errorf("Apply failed: expected %v, got %v", expected, got)
	}
}

func TestRigidTransformTriangleNormal(t *testing.T) {
	tri := NewTriangle(
		NewVector3(0, 0, 1),
		NewVector3(0, 0, 0),
		NewVector3(1, 0, 0),
		NewVector3(0, 1, 0),
	)
	tr := NewEulerTransform(0.3, 0.2, -0.9, NewVector3(1, 1, 1))

	moved := tr.ApplyTriangle(tri)
	if moved.Normal.Distance(moved.CalculateNormal()) > 1e-12 {
		t.Errorf("rotated normal %v disagrees with winding normal %v", moved.Normal, moved.CalculateNormal())
	}
}

func TestIdentityTransform(t *testing.T) {
	p := NewVector3(3, -2, 8)
	if got := Identity().Apply(p); got.Distance(p) > 1e-15 {
		t.Errorf("Identity moved %v to %v", p, got)
	}
}
