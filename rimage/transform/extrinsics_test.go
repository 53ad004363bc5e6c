package transform

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestExtrinsicsCheckValid(t *testing.T) {
	test.That(t, IdentityExtrinsics().CheckValid(), test.ShouldBeNil)

	var nilExt *Extrinsics
	test.That(t, nilExt.CheckValid(), test.ShouldNotBeNil)

	err := (&Extrinsics{RotationMatrix: make([]float64, 9), TranslationVector: []float64{1, 2}}).CheckValid()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "3 elements")

	ext := IdentityExtrinsics()
	ext.TranslationVector[1] = math.Inf(-1)
	test.That(t, ext.CheckValid(), test.ShouldNotBeNil)
}

func TestIsRotation(t *testing.T) {
	test.That(t, IdentityExtrinsics().IsRotation(0), test.ShouldBeTrue)

	theta := 0.3
	c, s := math.Cos(theta), math.Sin(theta)
	rotX := &Extrinsics{RotationMatrix: []float64{1, 0, 0, 0, c, -s, 0, s, c}, TranslationVector: []float64{0, 0, 0}}
	test.That(t, rotX.IsRotation(1e-9), test.ShouldBeTrue)

	// a realistic calibration is only orthonormal to a few decimals
	calibrated := &Extrinsics{
		RotationMatrix:    []float64{0.999958, -0.00838489, 0.00378392, 0.00824708, 0.999351, 0.0350734, -0.00407554, -0.0350407, 0.999378},
		TranslationVector: []float64{-0.000828434, 0.0139185, -0.0033418},
	}
	test.That(t, calibrated.IsRotation(0), test.ShouldBeTrue)

	scaled := &Extrinsics{RotationMatrix: []float64{2, 0, 0, 0, 2, 0, 0, 0, 2}, TranslationVector: []float64{0, 0, 0}}
	test.That(t, scaled.IsRotation(0), test.ShouldBeFalse)

	reflection := &Extrinsics{RotationMatrix: []float64{-1, 0, 0, 0, 1, 0, 0, 0, 1}, TranslationVector: []float64{0, 0, 0}}
	test.That(t, reflection.IsRotation(0), test.ShouldBeFalse)

	test.That(t, (&Extrinsics{RotationMatrix: []float64{1}}).IsRotation(0), test.ShouldBeFalse)
}

func TestTransformPointToPoint(t *testing.T) {
	p := IdentityExtrinsics().TransformPointToPoint(1, 2, 3)
	test.That(t, p.X, test.ShouldEqual, 1.0)
	test.That(t, p.Y, test.ShouldEqual, 2.0)
	test.That(t, p.Z, test.ShouldEqual, 3.0)

	ext := &Extrinsics{
		RotationMatrix:    []float64{0, 0, 1, 0, 1, 0, -1, 0, 0},
		TranslationVector: []float64{0.5, -0.5, 1},
	}
	p = ext.TransformPointToPoint(1, 2, 3)
	test.That(t, p.X, test.ShouldAlmostEqual, 3.5)
	test.That(t, p.Y, test.ShouldAlmostEqual, 1.5)
	test.That(t, p.Z, test.ShouldAlmostEqual, 0.0)
}
