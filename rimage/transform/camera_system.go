package transform

import (
	"encoding/json"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// DepthColorIntrinsicsExtrinsics holds the intrinsics of a depth and a color camera and the
// extrinsics that take points from the depth frame to the color frame.
type DepthColorIntrinsicsExtrinsics struct {
	ColorCamera  PinholeCameraIntrinsics `json:"color_intrinsic_parameters"`
	DepthCamera  PinholeCameraIntrinsics `json:"depth_intrinsic_parameters"`
	ExtrinsicD2C *Extrinsics             `json:"depth_to_color_extrinsic_parameters,omitempty"`
}

// Extrinsics returns the depth to color extrinsics, identity if none were given.
func (dcie *DepthColorIntrinsicsExtrinsics) Extrinsics() *Extrinsics {
	if dcie.ExtrinsicD2C == nil {
		return IdentityExtrinsics()
	}
	return dcie.ExtrinsicD2C
}

// CheckValid checks both intrinsics and the extrinsic shape, reporting every problem found.
func (dcie *DepthColorIntrinsicsExtrinsics) CheckValid() error {
	if dcie == nil {
		return errors.New("pointer to DepthColorIntrinsicsExtrinsics is nil")
	}
	var err error
	if cerr := dcie.ColorCamera.CheckValid(); cerr != nil {
		err = multierr.Append(err, errors.Wrap(cerr, "color_intrinsic_parameters"))
	}
	if derr := dcie.DepthCamera.CheckValid(); derr != nil {
		err = multierr.Append(err, errors.Wrap(derr, "depth_intrinsic_parameters"))
	}
	if dcie.ExtrinsicD2C != nil {
		if eerr := dcie.ExtrinsicD2C.CheckValid(); eerr != nil {
			err = multierr.Append(err, errors.Wrap(eerr, "depth_to_color_extrinsic_parameters"))
		}
	}
	return err
}

// NewDepthColorIntrinsicsExtrinsicsFromBytes decodes a camera system from JSON. ${VAR}
// references are expanded from the environment first.
func NewDepthColorIntrinsicsExtrinsicsFromBytes(byteJSON []byte) (*DepthColorIntrinsicsExtrinsics, error) {
	expanded, err := envsubst.Bytes(byteJSON)
	if err != nil {
		return nil, errors.Wrap(err, "error expanding environment variables")
	}
	intrinsics := &DepthColorIntrinsicsExtrinsics{}
	if err := json.Unmarshal(expanded, intrinsics); err != nil {
		return nil, errors.Wrap(err, "error parsing byte array")
	}
	return intrinsics, nil
}

// NewDepthColorIntrinsicsExtrinsicsFromJSONFile reads a camera system from a JSON file.
func NewDepthColorIntrinsicsExtrinsicsFromJSONFile(jsonPath string) (*DepthColorIntrinsicsExtrinsics, error) {
	byteValue, err := envsubst.ReadFile(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error reading JSON file")
	}
	intrinsics := &DepthColorIntrinsicsExtrinsics{}
	if err := json.Unmarshal(byteValue, intrinsics); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	return intrinsics, nil
}
