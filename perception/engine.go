// Package perception runs the depth pipeline once per sensing tick: downsample, floor and ceiling
// filtering, profile reduction, sonar and infrared fusion and the open space search.
package perception

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/depthnav/config"
	"go.viam.com/depthnav/logging"
	"go.viam.com/depthnav/rimage"
	"go.viam.com/depthnav/rimage/transform"
	"go.viam.com/depthnav/spatialmath"
	"go.viam.com/depthnav/utils"
	"go.viam.com/depthnav/vision/fusion"
	"go.viam.com/depthnav/vision/openspace"
	"go.viam.com/depthnav/vision/profile"
	"go.viam.com/depthnav/vision/segmentation"
)

// Tick is everything sensed in one cycle. Sonar distances that are not positive mean the sonar
// did not report. The frame is only read.
type Tick struct {
	Frame            *rimage.DepthFrame
	Pose             spatialmath.Pose
	LeftSonarMeters  float64
	RightSonarMeters float64
	Infrared         []fusion.AuxiliaryReading
}

// Report is the outcome of one tick.
type Report struct {
	Profile       *profile.HorizontalProfile `json:"profile"`
	Result        openspace.Result           `json:"result"`
	FloorPixels   int                        `json:"floor_pixels"`
	FusedInfrared int                        `json:"fused_infrared"`
	Timestamp     time.Time                  `json:"timestamp"`
	Duration      time.Duration              `json:"duration"`
}

// An Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to stamp and time ticks.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// poseTolerance is how far a pose may drift before the floor and ceiling depths are rebuilt.
const poseTolerance = 1e-9

type floorCacheKey struct {
	geometry *transform.CameraGeometry
	pose     spatialmath.Pose
	floor    float64
	ceiling  float64
}

func (k floorCacheKey) matches(other floorCacheKey) bool {
	return k.geometry == other.geometry &&
		utils.Float64AlmostEqual(k.floor, other.floor, poseTolerance) &&
		utils.Float64AlmostEqual(k.ceiling, other.ceiling, poseTolerance) &&
		spatialmath.PoseAlmostEqual(k.pose, other.pose, poseTolerance)
}

// An Engine turns ticks into reports. It caches the camera geometry and the floor and ceiling
// depths between ticks and rebuilds them only when their inputs change.
type Engine struct {
	logger logging.Logger
	clock  clock.Clock

	mu           sync.Mutex
	cfg          config.Config
	geometry     *transform.CameraGeometry
	floorCeiling *segmentation.FloorCeilingDepths
	floorKey     floorCacheKey
}

// NewEngine returns an engine for a validated config.
func NewEngine(cfg config.Config, logger logging.Logger, opts ...Option) (*Engine, error) {
	if err := cfg.Validate("engine"); err != nil {
		return nil, err
	}
	e := &Engine{
		logger: logger,
		clock:  clock.New(),
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the current configuration.
func (e *Engine) Config() config.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Reconfigure swaps in a new config and drops every cached value.
func (e *Engine) Reconfigure(cfg config.Config) error {
	if err := cfg.Validate("engine"); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
	e.geometry = nil
	e.floorCeiling = nil
	e.floorKey = floorCacheKey{}
	e.logger.Debug("reconfigured depth engine")
	return nil
}

func (e *Engine) ensureGeometry(width, height int) (*transform.CameraGeometry, error) {
	if e.geometry.Matches(e.cfg.HorizontalFOVRadians, width, height, e.cfg.MaxRangeMeters) {
		return e.geometry, nil
	}
	g, err := transform.NewCameraGeometry(e.cfg.HorizontalFOVRadians, width, height, e.cfg.MaxRangeMeters)
	if err != nil {
		return nil, err
	}
	e.logger.Debugw("rebuilt camera geometry",
		"width", width, "height", height, "fov_degrees", utils.RadToDeg(e.cfg.HorizontalFOVRadians))
	e.geometry = g
	return g, nil
}

func (e *Engine) ensureFloorCeiling(g *transform.CameraGeometry, pose spatialmath.Pose) (*segmentation.FloorCeilingDepths, error) {
	key := floorCacheKey{
		geometry: g,
		pose:     pose,
		floor:    e.cfg.FloorThresholdMeters,
		ceiling:  e.cfg.CeilingThresholdMeters,
	}
	if e.floorCeiling != nil && key.matches(e.floorKey) {
		return e.floorCeiling, nil
	}
	fc, err := segmentation.ComputeFloorCeiling(pose, key.floor, key.ceiling, g)
	if err != nil {
		return nil, err
	}
	e.logger.Debugw("rebuilt floor and ceiling depths", "height", pose.Height())
	e.floorCeiling = fc
	e.floorKey = key
	return fc, nil
}

// Process runs one tick through the pipeline.
func (e *Engine) Process(tick Tick) (*Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := e.clock.Now()
	if err := tick.Frame.CheckValid(); err != nil {
		return nil, err
	}
	cfg := e.cfg

	var frame *rimage.DepthFrame
	if cfg.ColumnStep > 1 || cfg.RowStep > 1 {
		var err error
		if frame, err = tick.Frame.Downsample(cfg.ColumnStep, cfg.RowStep); err != nil {
			return nil, err
		}
	} else {
		frame = tick.Frame.Clone()
	}
	deadZone := cfg.DeadZoneColumns / cfg.ColumnStep
	frameMin, frameMax := frame.MinMax(cfg.NoReadingValue)

	g, err := e.ensureGeometry(frame.Width, frame.Height)
	if err != nil {
		return nil, err
	}
	fc, err := e.ensureFloorCeiling(g, tick.Pose)
	if err != nil {
		return nil, errors.Wrap(err, "cannot compute floor and ceiling depths")
	}

	floorPixels, err := segmentation.FilterGroundAndCeiling(frame, fc, segmentation.FilterOptions{
		PreFilterNoReading:     cfg.NoReadingValue,
		PostFilterNoReading:    cfg.PostFilterNoReadingValue,
		FloorHoleThresholdMm:   cfg.FloorHoleThresholdMm,
		FloorDetectionMarginMm: cfg.FloorDetectionMarginMm,
		MinValidDepthMm:        cfg.MinValidDepthMm,
		MaxValidDepthMm:        cfg.MaxValidDepthMm,
	})
	if err != nil {
		return nil, err
	}

	p, err := profile.Reduce(frame, profile.ReduceOptions{
		NoReadingValue:  cfg.PostFilterNoReadingValue,
		DeadZoneColumns: deadZone,
		MinDepthMm:      cfg.MinValidDepthMm,
		MaxDepthMm:      cfg.MaxValidDepthMm,
		NumberOfBins:    cfg.NumberOfBins,
	})
	if err != nil {
		return nil, err
	}

	fov := cfg.HorizontalFOVRadians
	sonarBins := fusion.FuseSonar(p, cfg.MinValidDepthMm,
		fusion.SonarReading{
			DistanceMeters: tick.LeftSonarMeters,
			CenterBin:      profile.BinForBearing(cfg.LeftSonarBearingRadians, fov, p.Len()),
		},
		fusion.SonarReading{
			DistanceMeters: tick.RightSonarMeters,
			CenterBin:      profile.BinForBearing(cfg.RightSonarBearingRadians, fov, p.Len()),
		},
	)
	fusedInfrared := fusion.FuseInfrared(p, fov, cfg.MinValidDepthMm, tick.Infrared)
	p.Normalize(cfg.MaxValidDepthMm)

	res, err := openspace.FindWidestOpening(p, openspace.Params{
		Geometry:                g,
		DeadZoneColumns:         deadZone,
		HalfScreenHeight:        frame.Height / 2,
		RobotWidthSquaredMeters: cfg.RobotWidthSquared(),
		ObstacleThresholdMm:     cfg.ObstacleThresholdMm,
	})
	if err != nil {
		return nil, err
	}

	duration := e.clock.Now().Sub(start)
	if summary, err := p.Stats(); err == nil {
		e.logger.Debugw("depth tick",
			"frame_min_mm", int(frameMin),
			"frame_max_mm", int(frameMax),
			"floor_pixels", floorPixels,
			"sonar_bins", sonarBins,
			"fused_infrared", fusedInfrared,
			"start_bin", res.StartBin,
			"width_in_bins", res.WidthInBins,
			"nearest_mm", summary.Min,
			"duration", duration,
		)
	}
	if budget := time.Duration(cfg.FrameBudgetMs) * time.Millisecond; budget > 0 && duration > budget {
		e.logger.Warnw("depth tick over budget", "duration", duration, "budget", budget)
	}

	return &Report{
		Profile:       p,
		Result:        res,
		FloorPixels:   floorPixels,
		FusedInfrared: fusedInfrared,
		Timestamp:     start,
		Duration:      duration,
	}, nil
}
