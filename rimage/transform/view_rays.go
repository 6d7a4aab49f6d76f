package transform

import "github.com/golang/geo/r3"

// ViewRayField holds, for every pixel, the view-space ray that reaches one meter of depth.
type ViewRayField struct {
	Width  int
	Height int
	Rays   []r3.Vector
}

// NewViewRayField unprojects every pixel of the geometry at a depth of 1000mm.
func NewViewRayField(g *CameraGeometry) *ViewRayField {
	field := &ViewRayField{
		Width:  g.Width(),
		Height: g.Height(),
		Rays:   make([]r3.Vector, g.Width()*g.Height()),
	}
	for y := 0; y < field.Height; y++ {
		for x := 0; x < field.Width; x++ {
			field.Rays[y*field.Width+x] = g.PixelToView(float64(x), float64(y), 1000)
		}
	}
	return field
}

// At returns the ray through pixel (x, y).
func (f *ViewRayField) At(x, y int) r3.Vector {
	return f.Rays[y*f.Width+x]
}
