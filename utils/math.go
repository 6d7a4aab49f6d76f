// Package utils contains small numeric helpers shared by the depth pipeline.
package utils

import (
	"math"
)

// MillimetersPerMeter converts between the stored depth unit and the geometric unit.
const MillimetersPerMeter = 1000.0

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// MetersToMillimeters converts a distance in meters to millimeters.
func MetersToMillimeters(m float64) float64 {
	return m * MillimetersPerMeter
}

// MillimetersToMeters converts a distance in millimeters to meters.
func MillimetersToMeters(mm float64) float64 {
	return mm / MillimetersPerMeter
}

// Square is faster than math.Pow(n, 2).
func Square(n float64) float64 {
	return n * n
}

// Float64AlmostEqual compares two float64s within epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

// SaturateInt16 rounds v toward zero and clamps it into the int16 range.
func SaturateInt16(v float64) int16 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt16:
		return math.MaxInt16
	case v <= math.MinInt16:
		return math.MinInt16
	default:
		return int16(v)
	}
}
