// Package rimage holds raw depth frames and the operations that reshape them before analysis.
package rimage

import (
	"math"

	"github.com/pkg/errors"
)

// NoReading is the sample value a depth sensor reports when it could not measure a pixel.
const NoReading int16 = 0

// ErrInvalidFrame is returned for frames whose buffer does not match their dimensions.
var ErrInvalidFrame = errors.New("invalid depth frame")

// DepthFrame is a row-major buffer of millimeter depth samples.
type DepthFrame struct {
	Width   int
	Height  int
	Samples []int16
}

// NewEmptyDepthFrame returns a zeroed (all NoReading) frame.
func NewEmptyDepthFrame(width, height int) *DepthFrame {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &DepthFrame{
		Width:   width,
		Height:  height,
		Samples: make([]int16, width*height),
	}
}

// NewDepthFrame wraps samples without copying them.
func NewDepthFrame(width, height int, samples []int16) (*DepthFrame, error) {
	f := &DepthFrame{Width: width, Height: height, Samples: samples}
	if err := f.CheckValid(); err != nil {
		return nil, err
	}
	return f, nil
}

// CheckValid ensures the frame has positive dimensions and a matching buffer.
func (f *DepthFrame) CheckValid() error {
	if f == nil {
		return errors.Wrap(ErrInvalidFrame, "frame is nil")
	}
	if f.Samples == nil {
		return errors.Wrap(ErrInvalidFrame, "samples are nil")
	}
	if f.Width <= 0 || f.Height <= 0 {
		return errors.Wrapf(ErrInvalidFrame, "bad dimensions %dx%d", f.Width, f.Height)
	}
	if len(f.Samples) != f.Width*f.Height {
		return errors.Wrapf(ErrInvalidFrame, "have %d samples for %dx%d", len(f.Samples), f.Width, f.Height)
	}
	return nil
}

// Index returns the offset of (x, y) in Samples.
func (f *DepthFrame) Index(x, y int) int {
	return y*f.Width + x
}

// Get returns the sample at (x, y).
func (f *DepthFrame) Get(x, y int) int16 {
	return f.Samples[f.Index(x, y)]
}

// Set stores the sample at (x, y).
func (f *DepthFrame) Set(x, y int, depth int16) {
	f.Samples[f.Index(x, y)] = depth
}

// Clone returns a deep copy of the frame.
func (f *DepthFrame) Clone() *DepthFrame {
	samples := make([]int16, len(f.Samples))
	copy(samples, f.Samples)
	return &DepthFrame{Width: f.Width, Height: f.Height, Samples: samples}
}

// Downsample keeps every columnStep-th column of every rowStep-th row. No averaging is done, each
// output cell is the nearest input sample.
func (f *DepthFrame) Downsample(columnStep, rowStep int) (*DepthFrame, error) {
	if err := f.CheckValid(); err != nil {
		return nil, err
	}
	if columnStep <= 0 || rowStep <= 0 {
		return nil, errors.Errorf("downsample steps must be positive, got column step %d and row step %d", columnStep, rowStep)
	}
	outWidth := f.Width / columnStep
	outHeight := f.Height / rowStep
	if outWidth == 0 || outHeight == 0 {
		return nil, errors.Errorf("downsample steps (%d, %d) too large for %dx%d frame", columnStep, rowStep, f.Width, f.Height)
	}
	out := NewEmptyDepthFrame(outWidth, outHeight)
	for y := 0; y < outHeight; y++ {
		src := f.Samples[(y*rowStep)*f.Width:]
		dst := out.Samples[y*outWidth : (y+1)*outWidth]
		for x := range dst {
			dst[x] = src[x*columnStep]
		}
	}
	return out, nil
}

// MinMax returns the smallest and largest samples, ignoring noReading. Both are zero if no
// sample is valid.
func (f *DepthFrame) MinMax(noReading int16) (int16, int16) {
	lo, hi := int16(math.MaxInt16), int16(math.MinInt16)
	found := false
	for _, z := range f.Samples {
		if z == noReading {
			continue
		}
		found = true
		if z < lo {
			lo = z
		}
		if z > hi {
			hi = z
		}
	}
	if !found {
		return 0, 0
	}
	return lo, hi
}
