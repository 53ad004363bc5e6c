package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/depthcloud/logging"
	"go.viam.com/depthcloud/rimage/transform"
)

const fullConfig = `{
	"camera_system": {
		"depth_intrinsic_parameters": {"width_px": 1280, "height_px": 720, "fx": 610.737, "fy": 610.621, "ppx": 639.815, "ppy": 363.492},
		"color_intrinsic_parameters": {"width_px": 1280, "height_px": 720, "fx": 610.737, "fy": 610.621, "ppx": 639.815, "ppy": 363.492},
		"depth_to_color_extrinsic_parameters": {"rotation_rads": [1,0,0,0,1,0,0,0,1], "translation_m": [${BASELINE_M},0,0]}
	},
	"conversion": {"max_depth_m": 4.5, "out_of_bounds": "drop", "workers": 3},
	"log_level": "debug"
}`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "depth2pcd.json")
	test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)
	return path
}

func TestRead(t *testing.T) {
	t.Setenv("BASELINE_M", "0.015")
	logger := logging.NewTestLogger(t)
	path := writeConfig(t, fullConfig)

	cfg, err := Read(path, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, path)
	test.That(t, cfg.CameraSystem.DepthCamera.Fx, test.ShouldEqual, 610.737)
	test.That(t, cfg.CameraSystem.Extrinsics().TranslationVector, test.ShouldResemble, []float64{0.015, 0, 0})
	test.That(t, cfg.Conversion, test.ShouldResemble, transform.ConversionConfig{
		DepthScale:  transform.DefaultDepthScale,
		MaxDepth:    4.5,
		OutOfBounds: transform.OutOfBoundsDrop,
		Workers:     3,
	})
	test.That(t, cfg.Level(), test.ShouldEqual, logging.DEBUG)

	c, err := transform.NewConverterFromCameraSystem(cfg.CameraSystem, cfg.ConversionOptions()...)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.Config(), test.ShouldResemble, cfg.Conversion)

	_, err = Read(filepath.Join(t.TempDir(), "missing.json"), logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFromReaderDefaults(t *testing.T) {
	logger := logging.NewTestLogger(t)
	cfg, err := FromReader("", strings.NewReader(`{"camera_system": {
		"depth_intrinsic_parameters": {"fx": 1, "fy": 1},
		"color_intrinsic_parameters": {"fx": 1, "fy": 1}
	}}`), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Conversion, test.ShouldResemble, transform.DefaultConversionConfig())
	test.That(t, cfg.Level(), test.ShouldEqual, logging.INFO)
	test.That(t, cfg.CameraSystem.ExtrinsicD2C, test.ShouldBeNil)
}

func TestFromReaderErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)
	for _, tc := range []struct {
		name   string
		json   string
		errStr []string
	}{
		{"bad json", `{"camera_system": `, []string{"failed to decode"}},
		{"unknown field", `{"camera_sytem": {}}`, []string{"camera_sytem"}},
		{"missing camera system", `{}`, []string{`"camera_system" is required`}},
		{
			"everything wrong",
			`{
				"camera_system": {
					"depth_intrinsic_parameters": {"fx": 0, "fy": 1},
					"color_intrinsic_parameters": {"fx": 1, "fy": 1, "ppx": -2}
				},
				"conversion": {"out_of_bounds": "wrap", "workers": -1},
				"log_level": "loud"
			}`,
			[]string{
				"depth_intrinsic_parameters",
				"color_intrinsic_parameters",
				"unknown out_of_bounds policy",
				"loud",
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromReader("", strings.NewReader(tc.json), logger)
			test.That(t, err, test.ShouldNotBeNil)
			for _, s := range tc.errStr {
				test.That(t, err.Error(), test.ShouldContainSubstring, s)
			}
		})
	}
}

func TestNonRotationWarns(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	_, err := FromReader("skewed.json", strings.NewReader(`{"camera_system": {
		"depth_intrinsic_parameters": {"fx": 1, "fy": 1},
		"color_intrinsic_parameters": {"fx": 1, "fy": 1},
		"depth_to_color_extrinsic_parameters": {"rotation_rads": [1,0.5,0,0,1,0,0,0,1], "translation_m": [0,0,0]}
	}}`), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logs.FilterMessageSnippet("not orthonormal").Len(), test.ShouldEqual, 1)
}

func TestValidateNil(t *testing.T) {
	var cfg *Config
	test.That(t, cfg.Validate(), test.ShouldNotBeNil)
}
