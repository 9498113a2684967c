// Package config defines the on disk configuration of a motor board and how it is read.
package config

import (
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/mecadrive/components/board/pca9685"
	"go.viam.com/mecadrive/components/motorboard"
	"go.viam.com/mecadrive/logging"
)

// Config describes a motor board.
type Config struct {
	ConfigFilePath string `json:"-"`

	// I2CBus names the Linux I2C bus, e.g. "1" for /dev/i2c-1. It is not needed when simulating.
	I2CBus      string   `json:"i2c_bus,omitempty"`
	Address     int      `json:"address,omitempty"`
	FrequencyHz float64  `json:"frequency_hz,omitempty"`
	Reverse     Reversal `json:"reverse"`
	BrakeLevel  *int     `json:"brake_level,omitempty"`
	Strict      bool     `json:"strict,omitempty"`
	Simulate    bool     `json:"simulate,omitempty"`
}

// Reversal holds optional per motor reversal flags; unset motors keep their default.
type Reversal struct {
	M1 *bool `json:"m1,omitempty"`
	M2 *bool `json:"m2,omitempty"`
	M3 *bool `json:"m3,omitempty"`
	M4 *bool `json:"m4,omitempty"`
}

// Flags returns the flags with defaults applied for unset motors.
func (r Reversal) Flags() [4]bool {
	flags := motorboard.DefaultConfig().Reverse
	for i, flag := range []*bool{r.M1, r.M2, r.M3, r.M4} {
		if flag != nil {
			flags[i] = *flag
		}
	}
	return flags
}

// Set overrides the flag of one motor.
func (r *Reversal) Set(m motorboard.MotorID, reversed bool) {
	flag := reversed
	switch m {
	case motorboard.M1:
		r.M1 = &flag
	case motorboard.M2:
		r.M2 = &flag
	case motorboard.M3:
		r.M3 = &flag
	case motorboard.M4:
		r.M4 = &flag
	}
}

// Bounds of the PCA9685 the config is checked against.
const (
	minAddress = 0x03
	maxAddress = 0x77
)

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if !conf.Simulate && conf.I2CBus == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "i2c_bus")
	}
	if conf.Address != 0 && (conf.Address < minAddress || conf.Address > maxAddress) {
		return utils.NewConfigValidationError(path,
			errors.Errorf("address %#x must be between %#x and %#x", conf.Address, minAddress, maxAddress))
	}
	if conf.FrequencyHz != 0 && (conf.FrequencyHz < pca9685.MinFrequencyHz || conf.FrequencyHz > pca9685.MaxFrequencyHz) {
		return utils.NewConfigValidationError(path,
			errors.Errorf("frequency_hz %v must be between %d and %d",
				conf.FrequencyHz, pca9685.MinFrequencyHz, pca9685.MaxFrequencyHz))
	}
	return nil
}

func (conf *Config) populateDefaults() {
	if conf.Address == 0 {
		conf.Address = pca9685.DefaultAddress
	}
	if conf.FrequencyHz == 0 {
		conf.FrequencyHz = pca9685.DefaultFrequencyHz
	}
}

// MotorConfig returns the translation config described by conf. An out of range brake level is
// clamped with a warning.
func (conf *Config) MotorConfig(logger logging.Logger) motorboard.Config {
	mc := motorboard.DefaultConfig()
	mc.Reverse = conf.Reverse.Flags()
	if conf.BrakeLevel != nil {
		if mc.SetBrakeLevel(*conf.BrakeLevel) {
			logger.Warnf("brake_level %d clamped to %d", *conf.BrakeLevel, mc.BrakeLevel)
		}
	}
	return mc
}

// PCA9685Config returns the chip config described by conf.
func (conf *Config) PCA9685Config() pca9685.Config {
	return pca9685.Config{
		Address:     byte(conf.Address),
		FrequencyHz: conf.FrequencyHz,
	}
}

// BoardOptions returns the motorboard options described by conf.
func (conf *Config) BoardOptions(logger logging.Logger) []motorboard.Option {
	opts := []motorboard.Option{motorboard.WithConfig(conf.MotorConfig(logger))}
	if conf.Strict {
		opts = append(opts, motorboard.WithStrictValidation())
	}
	return opts
}
