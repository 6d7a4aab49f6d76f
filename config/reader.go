package config

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// FromReader reads a JSON config over the defaults and validates it.
func FromReader(originalPath string, r io.Reader) (Config, error) {
	var attrs AttributeMap
	if err := json.NewDecoder(r).Decode(&attrs); err != nil {
		return Config{}, errors.Wrapf(err, "cannot parse config %q", originalPath)
	}
	cfg, err := DecodeAttributes(attrs)
	if err != nil {
		return Config{}, errors.Wrapf(err, "cannot decode config %q", originalPath)
	}
	if err := cfg.Validate("engine"); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Read reads a config from the given file.
func Read(filePath string) (Config, error) {
	//nolint:gosec
	f, err := os.Open(filePath)
	if err != nil {
		return Config{}, errors.Wrap(err, "cannot open config")
	}
	defer utils.UncheckedErrorFunc(f.Close)
	return FromReader(filePath, f)
}
