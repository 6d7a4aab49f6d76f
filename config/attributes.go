package config

import (
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// AttributeMap is a loosely typed set of configuration values, as found in a robot config.
type AttributeMap map[string]interface{}

// DecodeAttributes overlays attributes onto the defaults. Numeric strings are accepted and
// unknown keys are rejected.
func DecodeAttributes(attributes AttributeMap) (Config, error) {
	cfg := Default()
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &cfg,
		Metadata:         &md,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(map[string]interface{}(attributes)); err != nil {
		return Config{}, errors.Wrap(err, "error decoding attributes")
	}
	if len(md.Unused) > 0 {
		sort.Strings(md.Unused)
		return Config{}, errors.Errorf("unknown attributes %q", md.Unused)
	}
	return cfg, nil
}
