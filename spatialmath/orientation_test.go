package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestAxisAngle(t *testing.T) {
	q := NewOrientationFromAxisAngle(r3.Vector{X: 2}, math.Pi/2)
	test.That(t, quat.Abs(q), test.ShouldAlmostEqual, 1.0)
	test.That(t, q.Real, test.ShouldAlmostEqual, math.Cos(math.Pi/4))
	test.That(t, q.Imag, test.ShouldAlmostEqual, math.Sin(math.Pi/4))

	v := RotateVector(q, r3.Vector{Y: 1})
	test.That(t, v.X, test.ShouldAlmostEqual, 0.0)
	test.That(t, v.Y, test.ShouldAlmostEqual, 0.0)
	test.That(t, v.Z, test.ShouldAlmostEqual, 1.0)

	test.That(t, NewOrientationFromAxisAngle(r3.Vector{}, 1), test.ShouldResemble, NewZeroOrientation())
}

func TestPitchTurnsForwardAxis(t *testing.T) {
	// pitching down turns the forward axis toward the floor
	forward := RotateVector(NewPitchOrientation(math.Pi/6), r3.Vector{Z: -1})
	test.That(t, forward.Y, test.ShouldAlmostEqual, -0.5)
	test.That(t, forward.Z, test.ShouldAlmostEqual, -math.Sqrt(3)/2)

	up := RotateVector(NewPitchOrientation(-math.Pi/6), r3.Vector{Z: -1})
	test.That(t, up.Y, test.ShouldAlmostEqual, 0.5)
}

func TestOrientationAlmostEqual(t *testing.T) {
	q := NewOrientationFromAxisAngle(r3.Vector{Y: 1}, 0.7)
	neg := quat.Scale(-1, q)
	test.That(t, QuaternionAlmostEqual(q, neg, 1e-9), test.ShouldBeFalse)
	test.That(t, OrientationAlmostEqual(q, neg, 1e-9), test.ShouldBeTrue)
	test.That(t, OrientationAlmostEqual(q, NewZeroOrientation(), 1e-9), test.ShouldBeFalse)
}
