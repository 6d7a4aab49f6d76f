// Package profile collapses a depth frame into a one dimensional nearest-obstacle profile.
package profile

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/depthnav/rimage"
)

// NoObstacle marks a bin in which no valid sample was seen.
const NoObstacle int16 = math.MaxInt16

// ErrInvalidBins is returned when a bin count cannot partition the frame.
var ErrInvalidBins = errors.New("invalid number of bins")

// HorizontalProfile holds the nearest depth, in millimeters, seen in each horizontal bin of a
// frame together with a byte scaled copy for lightweight consumers.
type HorizontalProfile struct {
	Depths     []int16 `json:"depths"`
	Normalized []byte  `json:"normalized"`
}

// ReduceOptions controls Reduce.
type ReduceOptions struct {
	// NoReadingValue is skipped during reduction.
	NoReadingValue int16
	// DeadZoneColumns is the number of rightmost columns ignored.
	DeadZoneColumns int
	// MinDepthMm and MaxDepthMm bound the sensor's valid range.
	MinDepthMm int
	// MaxDepthMm also maps to 255 in the normalized profile.
	MaxDepthMm   int
	NumberOfBins int
}

// BinWidth returns how many frame columns feed each bin. Columns past bins*BinWidth fall into
// the last bin.
func BinWidth(width, bins int) int {
	if bins <= 0 || width < bins {
		return 0
	}
	return width / bins
}

// Reduce scans every column outside the dead zone from the bottom row up and keeps, per bin,
// the minimum sample that is not opts.NoReadingValue.
func Reduce(frame *rimage.DepthFrame, opts ReduceOptions) (*HorizontalProfile, error) {
	if err := frame.CheckValid(); err != nil {
		return nil, err
	}
	if opts.NumberOfBins <= 0 || opts.NumberOfBins > frame.Width {
		return nil, errors.Wrapf(ErrInvalidBins, "%d bins for a frame %d wide", opts.NumberOfBins, frame.Width)
	}
	if opts.MaxDepthMm <= 0 || opts.MinDepthMm < 0 || opts.MinDepthMm >= opts.MaxDepthMm {
		return nil, errors.Errorf("bad depth range [%d, %d]", opts.MinDepthMm, opts.MaxDepthMm)
	}
	if opts.DeadZoneColumns < 0 {
		return nil, errors.Errorf("dead zone cannot be negative, got %d", opts.DeadZoneColumns)
	}

	depths := make([]int16, opts.NumberOfBins)
	for i := range depths {
		depths[i] = NoObstacle
	}
	binWidth := BinWidth(frame.Width, opts.NumberOfBins)
	lastBin := opts.NumberOfBins - 1
	for x := 0; x < frame.Width-opts.DeadZoneColumns; x++ {
		bin := x / binWidth
		if bin > lastBin {
			bin = lastBin
		}
		for y := frame.Height - 1; y >= 0; y-- {
			z := frame.Samples[y*frame.Width+x]
			if z == opts.NoReadingValue {
				continue
			}
			if z < depths[bin] {
				depths[bin] = z
			}
		}
	}

	p := &HorizontalProfile{Depths: depths}
	p.Normalize(opts.MaxDepthMm)
	return p, nil
}

// Normalize rebuilds the byte profile, scaling maxDepthMm to 255. Call it again after editing Depths.
func (p *HorizontalProfile) Normalize(maxDepthMm int) {
	if maxDepthMm <= 0 {
		maxDepthMm = math.MaxInt16
	}
	p.Normalized = make([]byte, len(p.Depths))
	for i, d := range p.Depths {
		p.Normalized[i] = byte(lo.Clamp(math.MaxUint8*int(d)/maxDepthMm, 0, math.MaxUint8))
	}
}

// Len returns the number of bins.
func (p *HorizontalProfile) Len() int {
	return len(p.Depths)
}

// Clone returns a deep copy.
func (p *HorizontalProfile) Clone() *HorizontalProfile {
	return &HorizontalProfile{
		Depths:     append([]int16(nil), p.Depths...),
		Normalized: append([]byte(nil), p.Normalized...),
	}
}

// BinForBearing returns the bin that sees a bearing in radians, positive to the right of forward,
// clamped to the profile.
func BinForBearing(bearing, fovRadians float64, bins int) int {
	if bins <= 0 {
		return 0
	}
	half := math.Tan(fovRadians / 2)
	if half <= 0 {
		return bins / 2
	}
	// normalized image x in [0, 1]
	u := (math.Tan(bearing)/half + 1) / 2
	return lo.Clamp(int(math.Floor(u*float64(bins))), 0, bins-1)
}

// Summary describes the measured bins of a profile.
type Summary struct {
	Measured int
	Min      float64
	Mean     float64
	Median   float64
}

// Stats summarizes the bins that saw an obstacle. All fields are zero when none did.
func (p *HorizontalProfile) Stats() (Summary, error) {
	measured := stats.Float64Data(lo.FilterMap(p.Depths, func(d int16, _ int) (float64, bool) {
		return float64(d), d != NoObstacle
	}))
	if len(measured) == 0 {
		return Summary{}, nil
	}
	minimum, err := measured.Min()
	if err != nil {
		return Summary{}, err
	}
	mean, err := measured.Mean()
	if err != nil {
		return Summary{}, err
	}
	median, err := measured.Median()
	if err != nil {
		return Summary{}, err
	}
	return Summary{Measured: len(measured), Min: minimum, Mean: mean, Median: median}, nil
}
