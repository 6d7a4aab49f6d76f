// Package openspace finds the widest drivable opening in a horizontal depth profile.
package openspace

import (
	"github.com/pkg/errors"

	"go.viam.com/depthnav/rimage/transform"
	"go.viam.com/depthnav/vision/profile"
)

const (
	// gradientCrossingMm is the depth a sharp edge in the profile has to cross.
	gradientCrossingMm = 3000
	// largeGradientMm is the smallest depth jump between neighboring bins treated as an edge.
	largeGradientMm = 500
	// initialGradientDepthMm seeds edge depths before any edge is found.
	initialGradientDepthMm = 4000
)

// Params describes the camera and robot for FindWidestOpening.
type Params struct {
	Geometry *transform.CameraGeometry
	// DeadZoneColumns is the number of rightmost image columns to ignore. Only bins lying entirely
	// inside the dead zone are skipped.
	DeadZoneColumns int
	// HalfScreenHeight is the image row used when projecting bin edges into view space.
	HalfScreenHeight        int
	RobotWidthSquaredMeters float64
	// ObstacleThresholdMm is the depth below which a bin blocks the robot.
	ObstacleThresholdMm int
}

// Result is the widest opening found in one profile.
type Result struct {
	StartBin                    int     `json:"start_bin"`
	WidthInBins                 int     `json:"width_in_bins"`
	ProjectedWidthSquaredMeters float64 `json:"projected_width_squared_meters"`
	AverageDepthMm              int     `json:"average_depth_mm"`
	// NearObstacleCount is the number of scanned bins nearer than the obstacle threshold and
	// NearObstacleIndexSum the sum of their indexes.
	NearObstacleCount    int     `json:"near_obstacle_count"`
	NearObstacleIndexSum int     `json:"near_obstacle_index_sum"`
	NearObstacleDensity  float64 `json:"near_obstacle_density"`
}

// Found reports whether any opening was found.
func (r Result) Found() bool {
	return r.WidthInBins > 0
}

// NearObstacleCentroid returns the mean bin index of near obstacles, or -1 if there were none.
func (r Result) NearObstacleCentroid() float64 {
	if r.NearObstacleCount == 0 {
		return -1
	}
	return float64(r.NearObstacleIndexSum) / float64(r.NearObstacleCount)
}

type opening struct {
	start, width  int
	widthSquared  float64
	minGradient   int
	maxGradient   int
	minGradientMm int16
	maxGradientMm int16
}

// gapFinder holds the state of one left to right scan.
type gapFinder struct {
	depths   []int16
	params   Params
	binWidth int
}

func (g *gapFinder) largeNegativeGradient(i int) bool {
	if i == len(g.depths)-1 {
		return false
	}
	here, next := int(g.depths[i]), int(g.depths[i+1])
	return here < gradientCrossingMm && next > gradientCrossingMm && next-here > largeGradientMm
}

func (g *gapFinder) largePositiveGradient(i int) bool {
	if i == 0 {
		return false
	}
	prev, here := int(g.depths[i-1]), int(g.depths[i])
	return prev > gradientCrossingMm && here < gradientCrossingMm && prev-here > largeGradientMm
}

// widthSquared projects the edges of bins startBin and endBin into view space at the nearer of the
// two depths and returns the squared distance between them.
func (g *gapFinder) widthSquared(startDepthMm, endDepthMm int16, startBin, endBin int) float64 {
	depth := float64(startDepthMm)
	if endDepthMm < startDepthMm {
		depth = float64(endDepthMm)
	}
	row := float64(g.params.HalfScreenHeight)
	a := g.params.Geometry.PixelToView(float64(startBin*g.binWidth), row, depth)
	b := g.params.Geometry.PixelToView(float64(endBin*g.binWidth), row, depth)
	return a.Sub(b).Norm2()
}

func (g *gapFinder) acceptable(widthSquared float64, start int) bool {
	return widthSquared > g.params.RobotWidthSquaredMeters || start == 0
}

// FindWidestOpening scans the profile left to right for the widest run of bins at or beyond the
// obstacle threshold whose projected width fits the robot. A run starting at bin 0 has no left
// wall to measure and is always acceptable. Ties keep the leftmost run.
//
// While scanning it also tracks the first sharp near-to-far edge and the last sharp far-to-near
// edge of each run. When both lie strictly inside the winning run and the space between them still
// fits the robot, that tighter opening is reported instead.
func FindWidestOpening(p *profile.HorizontalProfile, params Params) (Result, error) {
	if p == nil {
		return Result{}, errors.New("profile is required")
	}
	if params.Geometry == nil {
		return Result{}, errors.New("camera geometry is required")
	}
	if params.ObstacleThresholdMm <= 0 {
		return Result{}, errors.Errorf("obstacle threshold must be positive, got %d", params.ObstacleThresholdMm)
	}
	if params.RobotWidthSquaredMeters < 0 {
		return Result{}, errors.Errorf("robot width squared cannot be negative, got %v", params.RobotWidthSquaredMeters)
	}
	if params.DeadZoneColumns < 0 {
		return Result{}, errors.Errorf("dead zone cannot be negative, got %d", params.DeadZoneColumns)
	}
	n := p.Len()
	binWidth := profile.BinWidth(params.Geometry.Width(), n)
	if binWidth == 0 {
		return Result{}, errors.Wrapf(profile.ErrInvalidBins, "%d bins for an image %d wide", n, params.Geometry.Width())
	}
	scanned := n - params.DeadZoneColumns/binWidth
	if scanned < 0 {
		scanned = 0
	}

	g := &gapFinder{depths: p.Depths, params: params, binWidth: binWidth}
	var res Result
	best := opening{
		minGradient:   0,
		maxGradient:   n - 1,
		minGradientMm: initialGradientDepthMm,
		maxGradientMm: initialGradientDepthMm,
	}
	cur := best

	consider := func(endDepthMm int16) {
		ws := g.widthSquared(p.Depths[cur.start], endDepthMm, cur.start, cur.start+cur.width)
		if g.acceptable(ws, cur.start) && cur.width > best.width {
			best = cur
			best.widthSquared = ws
		}
	}

	for i := 0; i < scanned; i++ {
		depth := p.Depths[i]
		blocked := int(depth) < params.ObstacleThresholdMm
		if blocked {
			res.NearObstacleCount++
			res.NearObstacleIndexSum += i
		}

		if cur.minGradient == 0 {
			if g.largeNegativeGradient(i) {
				cur.minGradient = i
				cur.minGradientMm = depth
			}
		} else if g.largePositiveGradient(i) {
			if i > cur.maxGradient || cur.maxGradient == n-1 {
				cur.maxGradient = i
				cur.maxGradientMm = depth
			}
		}

		if blocked {
			consider(depth)
			cur.start = i + 1
			cur.width = 0
			cur.minGradient = 0
			cur.maxGradient = n - 1
			continue
		}
		cur.width++
	}
	if cur.width > 0 {
		consider(p.Depths[scanned-1])
	}

	if best.minGradient > best.start && best.maxGradient+1 < best.start+best.width {
		ws := g.widthSquared(best.minGradientMm, best.maxGradientMm, best.minGradient, best.maxGradient)
		if ws > params.RobotWidthSquaredMeters {
			best.start = best.minGradient
			best.width = best.maxGradient - best.minGradient + 1
			best.widthSquared = ws
		}
	}

	if best.width > 0 {
		res.StartBin = best.start
		res.WidthInBins = best.width
		res.ProjectedWidthSquaredMeters = best.widthSquared
		sum := 0
		for _, d := range p.Depths[best.start : best.start+best.width] {
			sum += int(d)
		}
		res.AverageDepthMm = sum / best.width
	}
	if scanned > 0 {
		res.NearObstacleDensity = float64(res.NearObstacleCount) / float64(scanned)
	}
	return res, nil
}
