// Package fusion overlays short range sonar and infrared readings onto a horizontal depth profile.
//
// Point sensors are only trusted below the depth camera's minimum valid depth, where the camera
// is blind (glass, thin chair legs, anything too close). Farther readings never touch the profile.
package fusion

import (
	"math"

	"go.viam.com/depthnav/utils"
	"go.viam.com/depthnav/vision/profile"
)

// SonarReading is a sonar distance and the profile bin at the center of its cone.
// A non-positive distance means the sonar did not report.
type SonarReading struct {
	DistanceMeters float64
	CenterBin      int
}

func (r SonarReading) near(minValidDepthMm int) (float64, bool) {
	if r.DistanceMeters <= 0 {
		return 0, false
	}
	mm := utils.MetersToMillimeters(r.DistanceMeters)
	return mm, mm < float64(minValidDepthMm)
}

// FuseSonar overrides profile bins with sonar readings nearer than minValidDepthMm and returns
// how many bins changed value. Bins right of the left center up to and including the right center
// take the nearer reading when both sonars see something close. Otherwise bins left of the left
// center take the left reading and bins from the right center on take the right reading.
func FuseSonar(p *profile.HorizontalProfile, minValidDepthMm int, left, right SonarReading) int {
	if p == nil {
		return 0
	}
	leftMm, leftNear := left.near(minValidDepthMm)
	rightMm, rightNear := right.near(minValidDepthMm)
	if !leftNear && !rightNear {
		return 0
	}

	changed := 0
	set := func(k int, mm float64) {
		v := utils.SaturateInt16(mm)
		if p.Depths[k] != v {
			changed++
		}
		p.Depths[k] = v
	}
	for k := range p.Depths {
		switch {
		case k > left.CenterBin && k <= right.CenterBin && leftNear && rightNear:
			set(k, math.Min(leftMm, rightMm))
		case k < left.CenterBin && leftNear:
			set(k, leftMm)
		case k >= right.CenterBin && rightNear:
			set(k, rightMm)
		}
	}
	return changed
}

// AuxiliaryReading is a single point range reading. OrientationRadians is measured in the
// horizontal plane from the forward axis, positive to the right.
type AuxiliaryReading struct {
	OrientationRadians float64
	DistanceMeters     float64
}

// FuseInfrared writes each near infrared reading inside the camera's field of view into a block of
// a quarter of the profile, so a thin obstacle is not lost between bins. The forward sensor writes
// a double width block around the middle, sensors to the left the leftmost block and sensors to the
// right the rightmost block. It returns the number of readings applied.
func FuseInfrared(p *profile.HorizontalProfile, fovRadians float64, minValidDepthMm int, readings []AuxiliaryReading) int {
	if p == nil {
		return 0
	}
	n := p.Len()
	nearMeters := utils.MillimetersToMeters(float64(minValidDepthMm))
	applied := 0
	for _, r := range readings {
		if math.Abs(r.OrientationRadians) > fovRadians/2 {
			continue
		}
		if r.DistanceMeters <= 0 || r.DistanceMeters >= nearMeters {
			continue
		}

		block := n / 4
		var anchor int
		switch {
		case r.OrientationRadians == 0:
			block *= 2
			anchor = n/2 - 1 + block/2
		case r.OrientationRadians < 0:
			anchor = block - 1
		default:
			anchor = n - 1
		}
		if block == 0 {
			continue
		}
		depth := utils.SaturateInt16(utils.MetersToMillimeters(r.DistanceMeters))
		for k := 0; k < block; k++ {
			p.Depths[anchor-k] = depth
		}
		applied++
	}
	return applied
}
