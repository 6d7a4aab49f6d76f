// Package transform maps between depth-camera pixels and camera view space.
package transform

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/depthnav/utils"
)

// NearPlaneMeters is the fixed near clipping distance of every projection.
const NearPlaneMeters = 0.12

// DefaultMaxRangeMeters is the far plane used when no max range is configured.
const DefaultMaxRangeMeters = 10.0

// singularDeterminant is the smallest determinant Invert accepts.
const singularDeterminant = 1e-12

var (
	// ErrInvalidGeometry is returned when camera parameters cannot produce a projection.
	ErrInvalidGeometry = errors.New("invalid camera geometry")
	// ErrSingularMatrix is returned when a matrix has no inverse.
	ErrSingularMatrix = errors.New("matrix is singular")
)

func effectiveMaxRange(maxRangeMeters float64) float64 {
	if maxRangeMeters == 0 {
		return DefaultMaxRangeMeters
	}
	return maxRangeMeters
}

func checkProjectionParams(fovRadians float64, width, height int, near, far float64) error {
	if math.IsNaN(fovRadians) || fovRadians <= 0 || fovRadians >= math.Pi {
		return errors.Wrapf(ErrInvalidGeometry, "field of view %v must be in (0, pi)", fovRadians)
	}
	if width <= 0 || height <= 0 {
		return errors.Wrapf(ErrInvalidGeometry, "bad image size %dx%d", width, height)
	}
	if near <= 0 || far <= 0 {
		return errors.Wrapf(ErrInvalidGeometry, "clip planes must be positive, near=%v far=%v", near, far)
	}
	if near >= far {
		return errors.Wrapf(ErrInvalidGeometry, "near plane %v must be closer than far plane %v", near, far)
	}
	return nil
}

// BuildProjection returns the right-handed perspective matrix for a camera with the given horizontal
// field of view. The matrix multiplies column vectors. The far plane sits at maxRangeMeters.
func BuildProjection(fovRadians float64, width, height int, maxRangeMeters float64) (mgl64.Mat4, error) {
	near, far := NearPlaneMeters, maxRangeMeters
	if err := checkProjectionParams(fovRadians, width, height, near, far); err != nil {
		return mgl64.Mat4{}, err
	}
	focal := 1 / math.Tan(fovRadians/2)
	var m mgl64.Mat4
	m.Set(0, 0, focal)
	m.Set(1, 1, focal*float64(width)/float64(height))
	m.Set(2, 2, (far+near)/(near-far))
	m.Set(2, 3, 2*far*near/(near-far))
	m.Set(3, 2, -1)
	return m, nil
}

// Invert returns the inverse of m, or ErrSingularMatrix instead of a matrix full of infinities.
func Invert(m mgl64.Mat4) (mgl64.Mat4, error) {
	det := m.Det()
	if math.IsNaN(det) || math.Abs(det) < singularDeterminant {
		return mgl64.Mat4{}, errors.Wrapf(ErrSingularMatrix, "determinant %v", det)
	}
	return m.Inv(), nil
}

// PixelToView lifts pixel (x, y) with a depth sample in millimeters into view space (meters).
// The camera looks down -Z, so the returned Z is -depthMm/1000.
func PixelToView(x, y, depthMm float64, inv mgl64.Mat4, width, height int) r3.Vector {
	ndcX := 2*x/float64(width) - 1
	ndcY := 1 - 2*y/float64(height)
	p := inv.Mul4x1(mgl64.Vec4{ndcX, ndcY, 0, 1})
	if p.W() != 0 {
		p = p.Mul(1 / p.W())
	}
	depthM := utils.MillimetersToMeters(depthMm)
	if p.Z() == 0 {
		return r3.Vector{Z: -depthM}
	}
	scale := depthM / -p.Z()
	return r3.Vector{X: p.X() * scale, Y: p.Y() * scale, Z: -depthM}
}

// ViewToPixel projects a view-space point back onto the image. X and Y of the result are pixel
// coordinates and Z is the depth in millimeters.
func ViewToPixel(v r3.Vector, proj mgl64.Mat4, width, height int) r3.Vector {
	clip := proj.Mul4x1(mgl64.Vec4{v.X, v.Y, v.Z, 1})
	if clip.W() == 0 {
		return r3.Vector{X: float64(width) / 2, Y: float64(height) / 2, Z: utils.MetersToMillimeters(-v.Z)}
	}
	ndcX, ndcY := clip.X()/clip.W(), clip.Y()/clip.W()
	return r3.Vector{
		X: (ndcX + 1) * float64(width) / 2,
		Y: (1 - ndcY) * float64(height) / 2,
		Z: utils.MetersToMillimeters(-v.Z),
	}
}
