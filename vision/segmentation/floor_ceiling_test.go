package segmentation

import (
	"math"
	"testing"

	"go.viam.com/test"

	"go.viam.com/depthnav/rimage"
	"go.viam.com/depthnav/rimage/transform"
	"go.viam.com/depthnav/spatialmath"
	"go.viam.com/depthnav/vision/profile"
)

func testGeometry(t *testing.T) *transform.CameraGeometry {
	t.Helper()
	g, err := transform.NewCameraGeometry(1.0, 32, 24, 4)
	test.That(t, err, test.ShouldBeNil)
	return g
}

func TestComputeFloorCeilingErrors(t *testing.T) {
	_, err := ComputeFloorCeiling(spatialmath.NewPoseFromHeight(0.5), 0.1, 2, nil)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = ComputeFloorCeiling(spatialmath.NewPoseFromHeight(0), 0.1, 2, testGeometry(t))
	test.That(t, err.Error(), test.ShouldContainSubstring, "above the floor")
}

func TestComputeFloorCeilingLevelCamera(t *testing.T) {
	g := testGeometry(t)
	fc, err := ComputeFloorCeiling(spatialmath.NewPoseFromHeight(0.5), 0.1, 2, g)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fc.Width, test.ShouldEqual, 32)
	test.That(t, fc.Height, test.ShouldEqual, 24)
	test.That(t, fc.MaxDepth, test.ShouldHaveLength, 32*24)

	for y := 0; y < fc.Height; y++ {
		for x := 0; x < fc.Width; x++ {
			i := y*fc.Width + x
			expected := fc.MaxDepth[i]
			if expected == profile.NoObstacle || expected >= 4000 {
				continue
			}
			p := g.PixelToView(float64(x), float64(y), float64(expected))
			if y > fc.Height/2 {
				test.That(t, fc.FloorFacing(i), test.ShouldBeTrue)
				test.That(t, p.Y, test.ShouldAlmostEqual, -0.5, 0.005)
				test.That(t, fc.MinDepth[i], test.ShouldBeLessThan, expected)
				above := g.PixelToView(float64(x), float64(y), float64(fc.MinDepth[i]))
				test.That(t, above.Y, test.ShouldAlmostEqual, -0.4, 0.005)
			} else {
				test.That(t, fc.FloorFacing(i), test.ShouldBeFalse)
				test.That(t, p.Y, test.ShouldAlmostEqual, 1.5, 0.005)
			}
		}
	}
	// the bottom row always meets the floor within range
	test.That(t, fc.MaxDepth[(fc.Height-1)*fc.Width+fc.Width/2], test.ShouldBeLessThan, int16(4000))
}

func TestComputeFloorCeilingNoCeiling(t *testing.T) {
	fc, err := ComputeFloorCeiling(spatialmath.NewPoseFromHeight(0.5), 0.1, 0.3, testGeometry(t))
	test.That(t, err, test.ShouldBeNil)
	for x := 0; x < fc.Width; x++ {
		test.That(t, fc.MaxDepth[x], test.ShouldEqual, profile.NoObstacle)
		test.That(t, fc.MinDepth[x], test.ShouldEqual, profile.NoObstacle)
	}
}

func TestComputeFloorCeilingPitchedCamera(t *testing.T) {
	pitch := 0.3
	pose := spatialmath.NewPose(spatialmath.NewPoseFromHeight(0.5).Point, spatialmath.NewPitchOrientation(pitch))
	fc, err := ComputeFloorCeiling(pose, 0.1, 2, testGeometry(t))
	test.That(t, err, test.ShouldBeNil)
	center := 12*fc.Width + 16
	test.That(t, fc.FloorFacing(center), test.ShouldBeTrue)
	test.That(t, float64(fc.MaxDepth[center]), test.ShouldAlmostEqual, 1000*0.5/math.Sin(pitch), 1.5)
	test.That(t, float64(fc.MinDepth[center]), test.ShouldAlmostEqual, 1000*0.4/math.Sin(pitch), 1.5)
}

func TestFilterGroundAndCeilingFlatFloor(t *testing.T) {
	g := testGeometry(t)
	fc, err := ComputeFloorCeiling(spatialmath.NewPoseFromHeight(0.5), 0.1, 2, g)
	test.That(t, err, test.ShouldBeNil)

	frame, err := rimage.NewDepthFrame(g.Width(), g.Height(), append([]int16(nil), fc.MaxDepth...))
	test.That(t, err, test.ShouldBeNil)
	opts := FilterOptions{
		PreFilterNoReading:     rimage.NoReading,
		PostFilterNoReading:    -1,
		FloorHoleThresholdMm:   100,
		FloorDetectionMarginMm: 50,
		MinValidDepthMm:        500,
		MaxValidDepthMm:        4000,
	}
	floorPixels, err := FilterGroundAndCeiling(frame, fc, opts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, floorPixels, test.ShouldEqual, g.Width()*g.Height())
	for _, z := range frame.Samples {
		test.That(t, z, test.ShouldEqual, int16(4000))
	}
}

func TestFilterGroundAndCeilingRules(t *testing.T) {
	fc := &FloorCeilingDepths{
		Width:    6,
		Height:   1,
		MaxDepth: []int16{1000, 1000, 1000, profile.NoObstacle, 2000, 1000},
		MinDepth: []int16{800, 800, 800, profile.NoObstacle, profile.NoObstacle, 800},
	}
	frame, err := rimage.NewDepthFrame(6, 1, []int16{0, 1500, 980, 600, 2500, -1})
	test.That(t, err, test.ShouldBeNil)
	opts := FilterOptions{
		PreFilterNoReading:     0,
		PostFilterNoReading:    -1,
		FloorHoleThresholdMm:   200,
		FloorDetectionMarginMm: 50,
		MinValidDepthMm:        300,
		MaxValidDepthMm:        4000,
	}
	floorPixels, err := FilterGroundAndCeiling(frame, fc, opts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, floorPixels, test.ShouldEqual, 2)
	// no reading, hole, floor, obstacle, ceiling, already filtered
	test.That(t, frame.Samples, test.ShouldResemble, []int16{-1, 400, 4000, 600, 4000, -1})

	// a far sample past the floor is not a hole once beyond the valid range
	frame, err = rimage.NewDepthFrame(6, 1, []int16{5000, 5000, 5000, 5000, 5000, 5000})
	test.That(t, err, test.ShouldBeNil)
	floorPixels, err = FilterGroundAndCeiling(frame, fc, opts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, floorPixels, test.ShouldEqual, 5)
	test.That(t, frame.Samples, test.ShouldResemble, []int16{4000, 4000, 4000, 5000, 4000, 4000})
}

func TestFilterGroundAndCeilingHoleKeptOffSentinel(t *testing.T) {
	fc := &FloorCeilingDepths{Width: 2, Height: 1, MaxDepth: []int16{1600, 3000}, MinDepth: []int16{1400, 2800}}
	frame, err := rimage.NewDepthFrame(2, 1, []int16{1800, 3200})
	test.That(t, err, test.ShouldBeNil)
	opts := FilterOptions{
		FloorHoleThresholdMm:   100,
		FloorDetectionMarginMm: 50,
		MinValidDepthMm:        800,
		MaxValidDepthMm:        4000,
	}
	_, err = FilterGroundAndCeiling(frame, fc, opts)
	test.That(t, err, test.ShouldBeNil)
	// 1600 - 2*800 lands on the no-reading value and is moved off it
	test.That(t, frame.Samples, test.ShouldResemble, []int16{1, 1400})

	p, err := profile.Reduce(frame, profile.ReduceOptions{MinDepthMm: 800, MaxDepthMm: 4000, NumberOfBins: 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Depths, test.ShouldResemble, []int16{1, 1400})

	test.That(t, holeDepth(math.MaxInt16, FilterOptions{PostFilterNoReading: math.MaxInt16}), test.ShouldEqual, int16(math.MaxInt16-1))
}

func TestFilterGroundAndCeilingErrors(t *testing.T) {
	fc := &FloorCeilingDepths{Width: 2, Height: 1, MaxDepth: []int16{1, 1}, MinDepth: []int16{1, 1}}
	frame := rimage.NewEmptyDepthFrame(3, 1)
	_, err := FilterGroundAndCeiling(frame, fc, FilterOptions{})
	test.That(t, err.Error(), test.ShouldContainSubstring, "2x1 but frame is 3x1")

	_, err = FilterGroundAndCeiling(frame, nil, FilterOptions{})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = FilterGroundAndCeiling(rimage.NewEmptyDepthFrame(2, 1), fc, FilterOptions{FloorHoleThresholdMm: -1})
	test.That(t, err, test.ShouldNotBeNil)
}
