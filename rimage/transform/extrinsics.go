package transform

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// DefaultRotationTolerance is the tolerance IsRotation uses when none is given.
const DefaultRotationTolerance = 1e-3

// Extrinsics is the rigid body transform from the depth camera frame to the color camera frame:
// p_color = R * p_depth + T. RotationMatrix is row-major. TranslationVector is in meters.
type Extrinsics struct {
	RotationMatrix    []float64 `json:"rotation_rads"`
	TranslationVector []float64 `json:"translation_m"`
}

// IdentityExtrinsics returns the transform between co-located, aligned cameras.
func IdentityExtrinsics() *Extrinsics {
	return &Extrinsics{
		RotationMatrix:    []float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
		TranslationVector: []float64{0, 0, 0},
	}
}

// CheckValid checks that the rotation has 9 entries and the translation 3. It does not check
// that the rotation is orthonormal; see IsRotation.
func (ext *Extrinsics) CheckValid() error {
	if ext == nil {
		return errors.New("extrinsics do not exist")
	}
	if len(ext.RotationMatrix) != 9 {
		return errors.Errorf("rotation matrix must have 9 elements, got %d", len(ext.RotationMatrix))
	}
	if len(ext.TranslationVector) != 3 {
		return errors.Errorf("translation vector must have 3 elements, got %d", len(ext.TranslationVector))
	}
	for _, v := range append(append([]float64{}, ext.RotationMatrix...), ext.TranslationVector...) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Errorf("extrinsics contain a non-finite value %v", v)
		}
	}
	return nil
}

// RotationDense returns R as a 3x3 gonum matrix.
func (ext *Extrinsics) RotationDense() *mat.Dense {
	return mat.NewDense(3, 3, append([]float64{}, ext.RotationMatrix...))
}

// IsRotation reports whether R is orthonormal with determinant +1, to within tol.
// A tol of zero uses DefaultRotationTolerance.
func (ext *Extrinsics) IsRotation(tol float64) bool {
	if len(ext.RotationMatrix) != 9 {
		return false
	}
	if tol <= 0 {
		tol = DefaultRotationTolerance
	}
	rot := ext.RotationDense()
	var rtr mat.Dense
	rtr.Mul(rot.T(), rot)
	eye := mat.NewDiagDense(3, []float64{1, 1, 1})
	if !mat.EqualApprox(&rtr, eye, tol) {
		return false
	}
	return math.Abs(mat.Det(rot)-1) <= tol
}

// TransformPointToPoint applies the rigid body transform to the point (x, y, z).
func (ext *Extrinsics) TransformPointToPoint(x, y, z float64) r3.Vector {
	r := ext.RotationMatrix
	t := ext.TranslationVector
	return r3.Vector{
		X: r[0]*x + r[1]*y + r[2]*z + t[0],
		Y: r[3]*x + r[4]*y + r[5]*z + t[1],
		Z: r[6]*x + r[7]*y + r[8]*z + t[2],
	}
}
