package rimage

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// depthFrameMagic prefixes every serialized frame.
var depthFrameMagic = [8]byte{'D', 'E', 'P', 'T', 'H', 'F', '1', '6'}

// maxFrameSide guards against allocating for a corrupt header.
const maxFrameSide = 100000

// ParseDepthFrame reads a frame from a file, transparently decompressing ".gz" files.
func ParseDepthFrame(fn string) (*DepthFrame, error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, errors.Wrap(err, "error opening depth frame")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	var r io.Reader = f
	if filepath.Ext(fn) == ".gz" {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "error opening gzip stream")
		}
		defer utils.UncheckedErrorFunc(gz.Close)
		r = gz
	}
	return ReadDepthFrame(bufio.NewReader(r))
}

// ReadDepthFrame decodes a frame written by Encode.
func ReadDepthFrame(r io.Reader) (*DepthFrame, error) {
	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, errors.Wrap(err, "error reading depth frame header")
	}
	if magic != depthFrameMagic {
		return nil, errors.Errorf("not a depth frame, bad magic %q", magic[:])
	}
	var dims [2]uint32
	if err := binary.Read(r, binary.LittleEndian, &dims); err != nil {
		return nil, errors.Wrap(err, "error reading depth frame dimensions")
	}
	width, height := int(dims[0]), int(dims[1])
	if width <= 0 || width >= maxFrameSide || height <= 0 || height >= maxFrameSide {
		return nil, errors.Errorf("bad width or height for depth frame %v %v", width, height)
	}
	frame := NewEmptyDepthFrame(width, height)
	if err := binary.Read(r, binary.LittleEndian, frame.Samples); err != nil {
		return nil, errors.Wrapf(err, "error reading %dx%d samples", width, height)
	}
	return frame, nil
}

// Encode writes the frame: magic, little-endian width and height, then the samples.
func (f *DepthFrame) Encode(out io.Writer) error {
	if err := f.CheckValid(); err != nil {
		return err
	}
	if _, err := out.Write(depthFrameMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(out, binary.LittleEndian, [2]uint32{uint32(f.Width), uint32(f.Height)}); err != nil {
		return err
	}
	return binary.Write(out, binary.LittleEndian, f.Samples)
}

// WriteToFile writes the frame to fn, gzipping it when fn ends in ".gz".
func (f *DepthFrame) WriteToFile(fn string) (err error) {
	//nolint:gosec
	file, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, file.Close())
	}()

	var out io.Writer = file
	if filepath.Ext(fn) == ".gz" {
		gout := gzip.NewWriter(file)
		defer func() {
			err = multierr.Combine(err, gout.Close())
		}()
		out = gout
	}
	return f.Encode(out)
}
