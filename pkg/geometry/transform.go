package geometry

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// RigidTransform is a rotation followed by a translation. It preserves
// distances and handedness, the class of motions the canonical facet
// order must be invariant under.
type RigidTransform struct {
	Rotation    r3.Rotation
	Translation Vector3
}

// Identity returns the transform that leaves every point in place.
func Identity() RigidTransform {
	return RigidTransform{Rotation: r3.Rotation(quat.Number{Real: 1})}
}

// NewRigidTransform rotates by angle radians about axis, then translates.
func NewRigidTransform(axis Vector3, angle float64, translation Vector3) RigidTransform {
	return RigidTransform{
		Rotation:    r3.NewRotation(angle, axis.Normalize().Vec()),
		Translation: translation,
	}
}

// NewEulerTransform rotates about X by roll, then Y by pitch, then Z by
// yaw, and finally translates.
func NewEulerTransform(yaw, pitch, roll float64, translation Vector3) RigidTransform {
	rz := quat.Number(r3.NewRotation(yaw, r3.Vec{Z: 1}))
	ry := quat.Number(r3.NewRotation(pitch, r3.Vec{Y: 1}))
	rx := quat.Number(r3.NewRotation(roll, r3.Vec{X: 1}))
	return RigidTransform{
		Rotation:    r3.Rotation(quat.Mul(quat.Mul(rz, ry), rx)),
		Translation: translation,
	}
}

// Apply moves a point.
func (t RigidTransform) Apply(p Vector3) Vector3 {
	return FromVec(t.Rotation.Rotate(p.Vec())).Add(t.Translation)
}

// ApplyTriangle moves all vertices and rotates the normal.
func (t RigidTransform) ApplyTriangle(tri Triangle) Triangle {
	return Triangle{
		Normal: FromVec(t.Rotation.Rotate(tri.Normal.Vec())),
		V1:     t.Apply(tri.V1),
		V2:     t.Apply(tri.V2),
		V3:     t.Apply(tri.V3),
	}
}
