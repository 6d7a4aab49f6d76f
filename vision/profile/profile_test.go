package profile

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/depthnav/rimage"
)

func defaultOptions(bins int) ReduceOptions {
	return ReduceOptions{
		NoReadingValue: rimage.NoReading,
		MinDepthMm:     500,
		MaxDepthMm:     4000,
		NumberOfBins:   bins,
	}
}

func TestReduceErrors(t *testing.T) {
	f := rimage.NewEmptyDepthFrame(8, 2)

	_, err := Reduce(f, defaultOptions(0))
	test.That(t, errors.Is(err, ErrInvalidBins), test.ShouldBeTrue)
	_, err = Reduce(f, defaultOptions(-3))
	test.That(t, errors.Is(err, ErrInvalidBins), test.ShouldBeTrue)
	_, err = Reduce(f, defaultOptions(9))
	test.That(t, errors.Is(err, ErrInvalidBins), test.ShouldBeTrue)

	_, err = Reduce(nil, defaultOptions(4))
	test.That(t, errors.Is(err, rimage.ErrInvalidFrame), test.ShouldBeTrue)
	_, err = Reduce(&rimage.DepthFrame{Width: 8, Height: 2}, defaultOptions(4))
	test.That(t, errors.Is(err, rimage.ErrInvalidFrame), test.ShouldBeTrue)

	opts := defaultOptions(4)
	opts.MaxDepthMm = 0
	_, err = Reduce(f, opts)
	test.That(t, err.Error(), test.ShouldContainSubstring, "bad depth range")

	opts = defaultOptions(4)
	opts.DeadZoneColumns = -1
	_, err = Reduce(f, opts)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestReduceMinimum(t *testing.T) {
	samples := []int16{
		3000, 2500, 0, 0, 900, 3500, 1200, 1100,
		2000, 2600, 0, 0, 1000, 800, 1300, 4000,
	}
	f, err := rimage.NewDepthFrame(8, 2, samples)
	test.That(t, err, test.ShouldBeNil)

	p, err := Reduce(f, defaultOptions(4))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Len(), test.ShouldEqual, 4)
	test.That(t, p.Depths, test.ShouldResemble, []int16{2000, NoObstacle, 800, 1100})

	// every bin is no greater than any valid sample mapped into it
	binWidth := BinWidth(f.Width, p.Len())
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			z := f.Get(x, y)
			if z == rimage.NoReading {
				continue
			}
			test.That(t, p.Depths[x/binWidth], test.ShouldBeLessThanOrEqualTo, z)
		}
	}

	test.That(t, p.Normalized, test.ShouldResemble, []byte{127, 255, 51, 70})
}

func TestReduceDeadZone(t *testing.T) {
	f, err := rimage.NewDepthFrame(6, 1, []int16{900, 900, 900, 900, 100, 100})
	test.That(t, err, test.ShouldBeNil)
	opts := defaultOptions(3)
	opts.DeadZoneColumns = 2
	p, err := Reduce(f, opts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Depths, test.ShouldResemble, []int16{900, 900, NoObstacle})
}

func TestReduceUnevenBins(t *testing.T) {
	// 7 columns into 3 bins: the trailing column joins the last bin
	f, err := rimage.NewDepthFrame(7, 1, []int16{10, 20, 30, 40, 50, 60, 5})
	test.That(t, err, test.ShouldBeNil)
	p, err := Reduce(f, defaultOptions(3))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Depths, test.ShouldResemble, []int16{10, 30, 5})
}

func TestReduceCustomNoReading(t *testing.T) {
	f, err := rimage.NewDepthFrame(4, 1, []int16{0, -1, 700, -1})
	test.That(t, err, test.ShouldBeNil)
	opts := defaultOptions(2)
	opts.NoReadingValue = -1
	p, err := Reduce(f, opts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Depths, test.ShouldResemble, []int16{0, 700})
}

func TestBinWidth(t *testing.T) {
	test.That(t, BinWidth(320, 320), test.ShouldEqual, 1)
	test.That(t, BinWidth(320, 80), test.ShouldEqual, 4)
	test.That(t, BinWidth(321, 80), test.ShouldEqual, 4)
	test.That(t, BinWidth(10, 20), test.ShouldEqual, 0)
	test.That(t, BinWidth(10, 0), test.ShouldEqual, 0)
}

func TestBinForBearing(t *testing.T) {
	fov := math.Pi / 2
	test.That(t, BinForBearing(0, fov, 8), test.ShouldEqual, 4)
	test.That(t, BinForBearing(-fov/2, fov, 8), test.ShouldEqual, 0)
	test.That(t, BinForBearing(fov/2, fov, 8), test.ShouldEqual, 7)
	test.That(t, BinForBearing(-math.Pi/6, fov, 100), test.ShouldEqual, 21)
	test.That(t, BinForBearing(math.Pi/6, fov, 100), test.ShouldEqual, 78)
	test.That(t, BinForBearing(1.4, fov, 8), test.ShouldEqual, 7)
	test.That(t, BinForBearing(0, fov, 0), test.ShouldEqual, 0)
	test.That(t, BinForBearing(-0.25, 1.0, 16), test.ShouldEqual, 4)
	test.That(t, BinForBearing(0.25, 1.0, 16), test.ShouldEqual, 11)
}

func TestStatsAndClone(t *testing.T) {
	p := &HorizontalProfile{Depths: []int16{NoObstacle, 1000, 3000, NoObstacle, 2000}}
	s, err := p.Stats()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Measured, test.ShouldEqual, 3)
	test.That(t, s.Min, test.ShouldEqual, 1000.0)
	test.That(t, s.Mean, test.ShouldEqual, 2000.0)
	test.That(t, s.Median, test.ShouldEqual, 2000.0)

	empty := &HorizontalProfile{Depths: []int16{NoObstacle, NoObstacle}}
	s, err = empty.Stats()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s, test.ShouldResemble, Summary{})

	c := p.Clone()
	c.Depths[1] = 5
	test.That(t, p.Depths[1], test.ShouldEqual, int16(1000))
}
