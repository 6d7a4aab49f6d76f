package transform

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// CameraGeometry is a depth camera's field of view, image size and range, together with the
// projection matrices derived from them. It is immutable; build a new one when any input changes.
type CameraGeometry struct {
	fov      float64
	width    int
	height   int
	maxRange float64

	projection mgl64.Mat4
	inverse    mgl64.Mat4
}

// NewCameraGeometry validates the parameters and computes both matrices.
func NewCameraGeometry(fovRadians float64, width, height int, maxRangeMeters float64) (*CameraGeometry, error) {
	proj, err := BuildProjection(fovRadians, width, height, effectiveMaxRange(maxRangeMeters))
	if err != nil {
		return nil, err
	}
	inv, err := Invert(proj)
	if err != nil {
		return nil, err
	}
	return &CameraGeometry{
		fov:        fovRadians,
		width:      width,
		height:     height,
		maxRange:   effectiveMaxRange(maxRangeMeters),
		projection: proj,
		inverse:    inv,
	}, nil
}

// FieldOfView returns the horizontal field of view in radians.
func (g *CameraGeometry) FieldOfView() float64 { return g.fov }

// Width returns the image width in pixels.
func (g *CameraGeometry) Width() int { return g.width }

// Height returns the image height in pixels.
func (g *CameraGeometry) Height() int { return g.height }

// MaxRange returns the far plane distance in meters.
func (g *CameraGeometry) MaxRange() float64 { return g.maxRange }

// Projection returns the projection matrix.
func (g *CameraGeometry) Projection() mgl64.Mat4 { return g.projection }

// InverseProjection returns the inverse of Projection.
func (g *CameraGeometry) InverseProjection() mgl64.Mat4 { return g.inverse }

// PixelToView is PixelToView using this geometry.
func (g *CameraGeometry) PixelToView(x, y, depthMm float64) r3.Vector {
	return PixelToView(x, y, depthMm, g.inverse, g.width, g.height)
}

// ViewToPixel is ViewToPixel using this geometry.
func (g *CameraGeometry) ViewToPixel(v r3.Vector) r3.Vector {
	return ViewToPixel(v, g.projection, g.width, g.height)
}

// Matches reports whether the geometry was built from these parameters, so owners of a cached
// geometry know when to rebuild it.
func (g *CameraGeometry) Matches(fovRadians float64, width, height int, maxRangeMeters float64) bool {
	if g == nil {
		return false
	}
	return g.fov == fovRadians && g.width == width && g.height == height &&
		g.maxRange == effectiveMaxRange(maxRangeMeters)
}
