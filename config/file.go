package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// ErrNoConfig is returned when a configuration source is empty.
var ErrNoConfig = errors.New("no arm configuration data")

// UnmarshalConfig parses raw JSON into an ArmConfig, applies defaults for
// omitted tuning fields, and validates the result.
func UnmarshalConfig(data []byte) (ArmConfig, error) {
	if len(data) == 0 {
		return ArmConfig{}, ErrNoConfig
	}
	cfg := Default5DOF()
	// The DH table and limits always come from the file; only tolerances and
	// tray geometry fall back to the nominal values.
	cfg.A, cfg.D, cfg.Alpha, cfg.Theta0 = nil, nil, nil, nil
	cfg.QMin, cfg.QMax = nil, nil
	if err := json.Unmarshal(data, &cfg); err != nil {
		return ArmConfig{}, errors.Wrap(err, "failed to unmarshal arm config json")
	}
	if cfg.Theta0 == nil {
		cfg.Theta0 = make([]float64, cfg.DOF())
	}
	if err := cfg.Validate(); err != nil {
		return ArmConfig{}, err
	}
	return cfg, nil
}

// LoadFile reads and parses an arm configuration from a JSON file.
func LoadFile(path string) (ArmConfig, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return ArmConfig{}, errors.Wrapf(err, "failed to read arm config %q", path)
	}
	return UnmarshalConfig(data)
}
