package config

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"

	"go.viam.com/depthcloud/logging"
)

// Read reads a config from the given file. ${VAR} references are expanded from the
// environment before decoding.
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
	unprocessedConfig := Config{
		ConfigFilePath: originalPath,
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&unprocessedConfig); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config from json")
	}
	cfg, err := processConfig(&unprocessedConfig, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to process Config")
	}
	return cfg, nil
}

// processConfig returns a copy of the config with defaults applied, validated.
func processConfig(unprocessedConfig *Config, logger logging.Logger) (*Config, error) {
	cfg := *unprocessedConfig
	cfg.Conversion = cfg.Conversion.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if ext := cfg.CameraSystem.Extrinsics(); !ext.IsRotation(0) {
		logger.Warnw("depth to color rotation is not orthonormal; points will be sheared",
			"path", cfg.ConfigFilePath, "rotation_rads", ext.RotationMatrix)
	}
	logger.Debugw("read config",
		"path", cfg.ConfigFilePath,
		"depth_scale", cfg.Conversion.DepthScale,
		"max_depth_m", cfg.Conversion.MaxDepth,
		"out_of_bounds", cfg.Conversion.OutOfBounds,
		"workers", cfg.Conversion.Workers,
	)
	return &cfg, nil
}
