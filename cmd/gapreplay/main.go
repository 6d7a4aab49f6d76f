// Package main replays a recorded depth frame through the perception engine and prints the
// resulting report as JSON.
package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/depthnav/config"
	"go.viam.com/depthnav/logging"
	"go.viam.com/depthnav/perception"
	"go.viam.com/depthnav/rimage"
	"go.viam.com/depthnav/spatialmath"
	"go.viam.com/depthnav/utils"
)

const (
	flagConfig       = "config"
	flagFrame        = "frame"
	flagCameraHeight = "camera-height"
	flagPitchDegrees = "pitch-degrees"
	flagLeftSonar    = "left-sonar"
	flagRightSonar   = "right-sonar"
	flagDebug        = "debug"
)

func main() {
	if err := realMain(os.Args, os.Stdout); err != nil {
		logging.Global().Fatal(err)
	}
}

func realMain(args []string, out io.Writer) error {
	app := &cli.App{
		Name:      "gapreplay",
		Usage:     "find the widest opening in a recorded depth frame",
		UsageText: "gapreplay --frame FILE [--config FILE] [--camera-height m] [--pitch-degrees d]",
		Writer:    out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load engine configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:     flagFrame,
				Aliases:  []string{"f"},
				Required: true,
				Usage:    "depth frame `FILE` (.dat or .dat.gz)",
			},
			&cli.Float64Flag{
				Name:  flagCameraHeight,
				Value: 0.5,
				Usage: "camera height above the floor in meters",
			},
			&cli.Float64Flag{
				Name:  flagPitchDegrees,
				Usage: "camera pitch in degrees, positive tilts toward the floor",
			},
			&cli.Float64Flag{
				Name:  flagLeftSonar,
				Usage: "left sonar distance in meters, 0 when absent",
			},
			&cli.Float64Flag{
				Name:  flagRightSonar,
				Usage: "right sonar distance in meters, 0 when absent",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Action: replay,
	}
	return app.Run(args)
}

func replay(c *cli.Context) error {
	var logger logging.Logger
	if c.Bool(flagDebug) {
		logger = logging.NewDebugLogger("gapreplay")
	} else {
		logger = logging.NewDevelopmentLogger("gapreplay")
	}
	defer func() {
		//nolint:errcheck
		logger.Sync()
	}()

	cfg := config.Default()
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = config.Read(path); err != nil {
			return err
		}
	}

	frame, err := rimage.ParseDepthFrame(c.String(flagFrame))
	if err != nil {
		return errors.Wrap(err, "cannot read depth frame")
	}

	engine, err := perception.NewEngine(cfg, logger.Sublogger("engine"))
	if err != nil {
		return err
	}

	pose := spatialmath.NewPose(
		r3.Vector{Y: c.Float64(flagCameraHeight)},
		spatialmath.NewPitchOrientation(utils.DegToRad(c.Float64(flagPitchDegrees))),
	)
	report, err := engine.Process(perception.Tick{
		Frame:            frame,
		Pose:             pose,
		LeftSonarMeters:  c.Float64(flagLeftSonar),
		RightSonarMeters: c.Float64(flagRightSonar),
	})
	if err != nil {
		return err
	}
	logger.Infow("replayed depth frame",
		"start_bin", report.Result.StartBin,
		"width_in_bins", report.Result.WidthInBins,
		"floor_pixels", report.FloorPixels,
		"duration", report.Duration,
		"found", report.Result.Found(),
	)

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
