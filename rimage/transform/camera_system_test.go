package transform

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

const cameraSystemJSON = `{
	"color_intrinsic_parameters": {"width_px": 1280, "height_px": 720, "fx": 900.538, "fy": 900.818, "ppx": 648.934, "ppy": 367.736},
	"depth_intrinsic_parameters": {"width_px": 1280, "height_px": 720, "fx": 734.938, "fy": 734.938, "ppx": ${DEPTH_PPX}, "ppy": 529.85},
	"depth_to_color_extrinsic_parameters": {
		"rotation_rads": [0.999958, -0.00838489, 0.00378392, 0.00824708, 0.999351, 0.0350734, -0.00407554, -0.0350407, 0.999378],
		"translation_m": [-0.000828434, 0.0139185, -0.0033418]
	}
}`

func TestCameraSystemFromBytes(t *testing.T) {
	t.Setenv("DEPTH_PPX", "542.8")
	cs, err := NewDepthColorIntrinsicsExtrinsicsFromBytes([]byte(cameraSystemJSON))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cs.CheckValid(), test.ShouldBeNil)
	test.That(t, cs.DepthCamera.Ppx, test.ShouldEqual, 542.8)
	test.That(t, cs.ColorCamera.Fx, test.ShouldEqual, 900.538)
	test.That(t, cs.Extrinsics(), test.ShouldEqual, cs.ExtrinsicD2C)
	test.That(t, cs.Extrinsics().TranslationVector[1], test.ShouldEqual, 0.0139185)

	_, err = NewDepthColorIntrinsicsExtrinsicsFromBytes([]byte(`{"color_intrinsic_parameters": `))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "error parsing byte array")
}

func TestCameraSystemDefaultsToIdentity(t *testing.T) {
	cs, err := NewDepthColorIntrinsicsExtrinsicsFromBytes([]byte(`{
		"color_intrinsic_parameters": {"fx": 1, "fy": 1},
		"depth_intrinsic_parameters": {"fx": 1, "fy": 1}
	}`))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cs.ExtrinsicD2C, test.ShouldBeNil)
	test.That(t, cs.Extrinsics(), test.ShouldResemble, IdentityExtrinsics())
	test.That(t, cs.CheckValid(), test.ShouldBeNil)

	c, err := NewConverterFromCameraSystem(cs)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.Config(), test.ShouldResemble, DefaultConversionConfig())
}

func TestCameraSystemCheckValidReportsAll(t *testing.T) {
	cs := &DepthColorIntrinsicsExtrinsics{
		ColorCamera:  PinholeCameraIntrinsics{Fy: 1},
		DepthCamera:  PinholeCameraIntrinsics{Fx: 1},
		ExtrinsicD2C: &Extrinsics{RotationMatrix: []float64{1}},
	}
	err := cs.CheckValid()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "color_intrinsic_parameters")
	test.That(t, err.Error(), test.ShouldContainSubstring, "depth_intrinsic_parameters")
	test.That(t, err.Error(), test.ShouldContainSubstring, "depth_to_color_extrinsic_parameters")

	var nilSystem *DepthColorIntrinsicsExtrinsics
	test.That(t, nilSystem.CheckValid(), test.ShouldNotBeNil)
}

func TestCameraSystemFromJSONFile(t *testing.T) {
	t.Setenv("DEPTH_PPX", "542.8")
	path := filepath.Join(t.TempDir(), "camera.json")
	err := os.WriteFile(path, []byte(cameraSystemJSON), 0o600)
	test.That(t, err, test.ShouldBeNil)

	cs, err := NewDepthColorIntrinsicsExtrinsicsFromJSONFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cs.DepthCamera.Ppx, test.ShouldEqual, 542.8)
	test.That(t, cs.ExtrinsicD2C.IsRotation(0), test.ShouldBeTrue)

	_, err = NewDepthColorIntrinsicsExtrinsicsFromJSONFile(filepath.Join(t.TempDir(), "nope.json"))
	test.That(t, err, test.ShouldNotBeNil)
}
