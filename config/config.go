// Package config defines the tunable parameters of the depth perception engine.
package config

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/depthnav/utils"
)

// Config holds every threshold the engine uses. Depths are in millimeters, distances in meters
// and angles in radians.
type Config struct {
	MinValidDepthMm        int     `json:"min_valid_depth_mm"`
	MaxValidDepthMm        int     `json:"max_valid_depth_mm"`
	FloorHoleThresholdMm   int     `json:"floor_hole_threshold_mm"`
	FloorDetectionMarginMm int     `json:"floor_detection_margin_mm"`
	DeadZoneColumns        int     `json:"dead_zone_columns"`
	ObstacleThresholdMm    int     `json:"obstacle_threshold_mm"`
	RobotWidthMeters       float64 `json:"robot_width_meters"`
	NumberOfBins           int     `json:"number_of_bins"`

	// camera
	HorizontalFOVRadians float64 `json:"horizontal_fov_radians"`
	MaxRangeMeters       float64 `json:"max_range_meters"`

	// floor and ceiling filter
	FloorThresholdMeters     float64 `json:"floor_threshold_meters"`
	CeilingThresholdMeters   float64 `json:"ceiling_threshold_meters"`
	NoReadingValue           int16   `json:"no_reading_value"`
	PostFilterNoReadingValue int16   `json:"post_filter_no_reading_value"`

	ColumnStep int `json:"column_step"`
	RowStep    int `json:"row_step"`

	LeftSonarBearingRadians  float64 `json:"left_sonar_bearing_radians"`
	RightSonarBearingRadians float64 `json:"right_sonar_bearing_radians"`

	// FrameBudgetMs is the processing time per tick above which a warning is logged. 0 disables it.
	FrameBudgetMs int `json:"frame_budget_ms"`
}

// defaultFOVRadians is the horizontal field of view of the default camera.
const defaultFOVRadians = 1.0

// Default returns the configuration of a Kinect class sensor on a small indoor robot.
func Default() Config {
	return Config{
		MinValidDepthMm:          800,
		MaxValidDepthMm:          4000,
		FloorHoleThresholdMm:     100,
		FloorDetectionMarginMm:   50,
		DeadZoneColumns:          0,
		ObstacleThresholdMm:      1000,
		RobotWidthMeters:         0.5,
		NumberOfBins:             80,
		HorizontalFOVRadians:     defaultFOVRadians,
		MaxRangeMeters:           4.0,
		FloorThresholdMeters:     0.05,
		CeilingThresholdMeters:   1.5,
		NoReadingValue:           0,
		PostFilterNoReadingValue: 0,
		ColumnStep:               1,
		RowStep:                  1,
		// each sonar looks at the middle of its half of the view
		LeftSonarBearingRadians:  -defaultFOVRadians / 4,
		RightSonarBearingRadians: defaultFOVRadians / 4,
		FrameBudgetMs:            33,
	}
}

// RobotWidthSquared returns the squared robot width in square meters.
func (c *Config) RobotWidthSquared() float64 {
	return utils.Square(c.RobotWidthMeters)
}

// Validate ensures all parts of the config are valid, reporting every problem found.
func (c *Config) Validate(path string) error {
	var errs error
	invalid := func(format string, args ...interface{}) {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(path, errors.Errorf(format, args...)))
	}
	required := func(field string) {
		errs = multierr.Append(errs, goutils.NewConfigValidationFieldRequiredError(path, field))
	}

	if c.MinValidDepthMm <= 0 {
		required("min_valid_depth_mm")
	}
	if c.MaxValidDepthMm <= 0 {
		required("max_valid_depth_mm")
	} else if c.MaxValidDepthMm <= c.MinValidDepthMm || c.MaxValidDepthMm >= math.MaxInt16 {
		invalid("max_valid_depth_mm must be in (min_valid_depth_mm, %d), got %d", math.MaxInt16, c.MaxValidDepthMm)
	}
	if c.FloorHoleThresholdMm < 0 {
		invalid("floor_hole_threshold_mm cannot be negative")
	}
	if c.FloorDetectionMarginMm < 0 {
		invalid("floor_detection_margin_mm cannot be negative")
	}
	if c.DeadZoneColumns < 0 {
		invalid("dead_zone_columns cannot be negative")
	}
	if c.ObstacleThresholdMm <= 0 {
		required("obstacle_threshold_mm")
	}
	if c.RobotWidthMeters <= 0 {
		required("robot_width_meters")
	}
	if c.NumberOfBins <= 0 {
		required("number_of_bins")
	}
	if c.HorizontalFOVRadians == 0 {
		required("horizontal_fov_radians")
	} else if c.HorizontalFOVRadians < 0 || c.HorizontalFOVRadians >= math.Pi {
		invalid("horizontal_fov_radians must be in (0, pi), got %v", c.HorizontalFOVRadians)
	} else {
		half := c.HorizontalFOVRadians / 2
		if math.Abs(c.LeftSonarBearingRadians) >= half {
			invalid("left_sonar_bearing_radians %v is outside the field of view (-%v, %v)", c.LeftSonarBearingRadians, half, half)
		}
		if math.Abs(c.RightSonarBearingRadians) >= half {
			invalid("right_sonar_bearing_radians %v is outside the field of view (-%v, %v)", c.RightSonarBearingRadians, half, half)
		}
	}
	if c.MaxRangeMeters < 0 {
		invalid("max_range_meters cannot be negative")
	}
	if c.CeilingThresholdMeters < 0 {
		invalid("ceiling_threshold_meters cannot be negative")
	}
	if c.PostFilterNoReadingValue == math.MaxInt16 {
		invalid("post_filter_no_reading_value cannot be %d, it marks empty profile bins", math.MaxInt16)
	}
	if c.ColumnStep < 1 || c.RowStep < 1 {
		invalid("column_step and row_step must be at least 1, got %d and %d", c.ColumnStep, c.RowStep)
	}
	if c.LeftSonarBearingRadians > c.RightSonarBearingRadians {
		invalid("left_sonar_bearing_radians must not be right of right_sonar_bearing_radians")
	}
	if c.FrameBudgetMs < 0 {
		invalid("frame_budget_ms cannot be negative")
	}
	return errs
}
