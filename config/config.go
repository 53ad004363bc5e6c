// Package config defines the configuration of a depth to point cloud conversion.
package config

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/depthcloud/logging"
	"go.viam.com/depthcloud/rimage/transform"
)

// Config describes a depth/color camera pair and how its frames are converted.
type Config struct {
	ConfigFilePath string `json:"-"`

	CameraSystem *transform.DepthColorIntrinsicsExtrinsics `json:"camera_system"`
	Conversion   transform.ConversionConfig                `json:"conversion,omitempty"`
	LogLevel     string                                    `json:"log_level,omitempty"`
}

// Validate returns every problem with the config. Conversion defaults must already be applied.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	var err error
	if c.CameraSystem == nil {
		err = multierr.Append(err, errors.New(`"camera_system" is required`))
	} else if cerr := c.CameraSystem.CheckValid(); cerr != nil {
		err = multierr.Append(err, errors.Wrap(cerr, "camera_system"))
	}
	if cerr := c.Conversion.Validate(); cerr != nil {
		err = multierr.Append(err, errors.Wrap(cerr, "conversion"))
	}
	if _, lerr := logging.LevelFromString(c.LogLevel); lerr != nil {
		err = multierr.Append(err, errors.Wrap(lerr, "log_level"))
	}
	return err
}

// Level returns the configured log level. It is INFO when unset.
func (c *Config) Level() logging.Level {
	level, err := logging.LevelFromString(c.LogLevel)
	if err != nil {
		return logging.INFO
	}
	return level
}

// ConversionOptions returns the options that make a converter follow this config.
func (c *Config) ConversionOptions() []transform.ConversionOption {
	return []transform.ConversionOption{transform.WithConversionConfig(c.Conversion)}
}
