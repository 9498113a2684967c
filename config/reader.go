package config

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"go.viam.com/mecadrive/logging"
)

const validationPath = "board"

// Read reads a config from the given file after substituting environment variables.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	conf := Config{ConfigFilePath: originalPath}
	if err := json.NewDecoder(r).Decode(&conf); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config from json")
	}
	return processConfig(&conf, logger)
}

// FromAttributes converts a generic attribute map, as found embedded in a larger config, using
// the same field names as the JSON form.
func FromAttributes(attributes map[string]interface{}, logger logging.Logger) (*Config, error) {
	var conf Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &conf,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "failed to decode Config from attributes")
	}
	return processConfig(&conf, logger)
}

func processConfig(conf *Config, logger logging.Logger) (*Config, error) {
	if err := conf.Validate(validationPath); err != nil {
		return nil, err
	}
	conf.populateDefaults()
	logger.Debugw("read config", "path", conf.ConfigFilePath, "i2c_bus", conf.I2CBus,
		"address", conf.Address, "simulate", conf.Simulate)
	return conf, nil
}
