// Package segmentation separates floor and ceiling returns from obstacles in depth frames.
package segmentation

import (
	"math"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/depthnav/rimage"
	"go.viam.com/depthnav/rimage/transform"
	"go.viam.com/depthnav/spatialmath"
	"go.viam.com/depthnav/utils"
	"go.viam.com/depthnav/vision/profile"
)

// FloorCeilingDepths holds, per pixel, the depths at which the camera expects to see the floor
// and ceiling planes. MaxDepth is the expected floor (or ceiling) depth. MinDepth is the depth of
// the plane floorThreshold above the floor and is only set for floor facing pixels. Pixels whose
// ray meets neither plane hold profile.NoObstacle.
type FloorCeilingDepths struct {
	Width    int
	Height   int
	MinDepth []int16
	MaxDepth []int16
}

// FloorFacing reports whether pixel i looks down at the floor.
func (fc *FloorCeilingDepths) FloorFacing(i int) bool {
	return fc.MinDepth[i] != profile.NoObstacle
}

func depthAlongAxis(length, axisComponent, maxDepthMm float64) int16 {
	return utils.SaturateInt16(lo.Clamp(utils.MetersToMillimeters(length*axisComponent), 0, maxDepthMm))
}

// ComputeFloorCeiling intersects every pixel's view ray, rotated by the camera pose, with the
// floor (world height 0), the plane at floorThreshold and the ceiling plane at ceilingThreshold.
// Depths are measured along the camera's viewing axis and clamped to the geometry's range.
func ComputeFloorCeiling(
	pose spatialmath.Pose,
	floorThreshold, ceilingThreshold float64,
	geometry *transform.CameraGeometry,
) (*FloorCeilingDepths, error) {
	if geometry == nil {
		return nil, errors.New("camera geometry is required")
	}
	height := pose.Height()
	if height <= 0 {
		return nil, errors.Errorf("camera height must be above the floor, got %v", height)
	}
	maxDepthMm := utils.MetersToMillimeters(geometry.MaxRange())
	rays := transform.NewViewRayField(geometry)

	n := len(rays.Rays)
	fc := &FloorCeilingDepths{
		Width:    rays.Width,
		Height:   rays.Height,
		MinDepth: make([]int16, n),
		MaxDepth: make([]int16, n),
	}
	for i, ray := range rays.Rays {
		fc.MinDepth[i] = profile.NoObstacle
		fc.MaxDepth[i] = profile.NoObstacle

		dir := ray.Normalize()
		// view depth per meter travelled along the ray
		forward := -dir.Z
		world := pose.Rotate(dir)

		switch {
		case world.Y > 0:
			if ceilingThreshold > height {
				length := (ceilingThreshold - height) / world.Y
				fc.MaxDepth[i] = depthAlongAxis(length, forward, maxDepthMm)
			}
		case world.Y < 0:
			fc.MaxDepth[i] = depthAlongAxis(-height/world.Y, forward, maxDepthMm)
			fc.MinDepth[i] = depthAlongAxis((floorThreshold-height)/world.Y, forward, maxDepthMm)
		}
	}
	return fc, nil
}

// FilterOptions are the thresholds used by FilterGroundAndCeiling. Depths are in millimeters.
type FilterOptions struct {
	PreFilterNoReading  int16
	PostFilterNoReading int16
	// FloorHoleThresholdMm is how far past the floor a floor facing sample must be to count as a hole.
	FloorHoleThresholdMm int
	// FloorDetectionMarginMm is how far in front of the expected depth a sample still counts as floor.
	FloorDetectionMarginMm int
	MinValidDepthMm        int
	MaxValidDepthMm        int
}

// holeDepth is the near obstacle depth written over a floor hole. It never equals the post-filter
// no-reading value, which would make the hole vanish from the profile.
func holeDepth(expected int, opts FilterOptions) int16 {
	hole := utils.SaturateInt16(float64(expected - 2*opts.MinValidDepthMm))
	if hole != opts.PostFilterNoReading {
		return hole
	}
	if hole == math.MaxInt16 {
		return hole - 1
	}
	return hole + 1
}

// FilterGroundAndCeiling reclassifies depth in place and returns the number of floor pixels.
// No-reading samples become PostFilterNoReading. Floor facing samples well beyond the floor are
// holes and are pulled in front of the floor so they read as obstacles. Samples at or beyond their
// expected floor or ceiling depth, less the margin, are pushed out to MaxValidDepthMm.
func FilterGroundAndCeiling(depth *rimage.DepthFrame, fc *FloorCeilingDepths, opts FilterOptions) (int, error) {
	if err := depth.CheckValid(); err != nil {
		return 0, err
	}
	if fc == nil {
		return 0, errors.New("floor and ceiling depths are required")
	}
	if fc.Width != depth.Width || fc.Height != depth.Height ||
		len(fc.MaxDepth) != len(depth.Samples) || len(fc.MinDepth) != len(depth.Samples) {
		return 0, errors.Errorf("floor and ceiling depths are %dx%d but frame is %dx%d",
			fc.Width, fc.Height, depth.Width, depth.Height)
	}
	if opts.FloorHoleThresholdMm < 0 || opts.FloorDetectionMarginMm < 0 {
		return 0, errors.Errorf("floor thresholds cannot be negative, hole=%d margin=%d",
			opts.FloorHoleThresholdMm, opts.FloorDetectionMarginMm)
	}

	maxValid := utils.SaturateInt16(float64(opts.MaxValidDepthMm))
	floorPixels := 0
	for i, sample := range depth.Samples {
		expected := int(fc.MaxDepth[i])
		z := int(sample)
		switch {
		case sample == opts.PreFilterNoReading || sample == opts.PostFilterNoReading:
			depth.Samples[i] = opts.PostFilterNoReading
		case fc.FloorFacing(i) && z < opts.MaxValidDepthMm && z >= expected+opts.FloorHoleThresholdMm:
			depth.Samples[i] = holeDepth(expected, opts)
		case z >= expected-opts.FloorDetectionMarginMm:
			depth.Samples[i] = maxValid
			floorPixels++
		}
	}
	return floorPixels, nil
}
