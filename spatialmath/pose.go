package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is the rigid transform from the camera frame to the robot base frame. Position is in
// meters with +Y up, so Point.Y is the camera height above the ground plane.
type Pose struct {
	Point       r3.Vector
	Orientation quat.Number
}

// NewPose returns a pose with a normalized orientation.
func NewPose(point r3.Vector, orientation quat.Number) Pose {
	return Pose{Point: point, Orientation: Normalize(orientation)}
}

// NewZeroPose returns a pose at the origin with no rotation.
func NewZeroPose() Pose {
	return Pose{Orientation: NewZeroOrientation()}
}

// NewPoseFromHeight returns an untilted camera pose at the given height above the ground.
func NewPoseFromHeight(height float64) Pose {
	return NewPose(r3.Vector{Y: height}, NewZeroOrientation())
}

// Height returns the height of the camera above the ground plane.
func (p Pose) Height() float64 {
	return p.Point.Y
}

// Rotate applies only the rotational part of the pose to v.
func (p Pose) Rotate(v r3.Vector) r3.Vector {
	return RotateVector(Normalize(p.Orientation), v)
}

// PoseAlmostEqual reports whether two poses match within tol.
func PoseAlmostEqual(a, b Pose, tol float64) bool {
	return a.Point.Sub(b.Point).Norm() <= tol && OrientationAlmostEqual(Normalize(a.Orientation), Normalize(b.Orientation), tol)
}
