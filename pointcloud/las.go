package pointcloud

import (
	"github.com/edaniels/lidario"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// lasUnitsPerMeter scales positions on their way into LAS files. LAS stores scaled integers,
// so positions are written in millimeters.
const lasUnitsPerMeter = 1000.

// WriteToLASFile writes the point cloud out to a LAS file using point format 2, which carries
// 16 bit RGB.
func WriteToLASFile(pc *PointCloud, fn string) (err error) {
	lf, err := lidario.NewLasFile(fn, "w")
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, lf.Close())
	}()

	if err = lf.AddHeader(lidario.LasHeader{PointFormatID: 2}); err != nil {
		return err
	}

	var lastErr error
	pc.Iterate(0, 0, func(p Point) bool {
		r, g, b := p.Color.RGB255()
		lp := &lidario.PointRecord2{
			PointRecord0: &lidario.PointRecord0{
				X: p.Position.X * lasUnitsPerMeter,
				Y: p.Position.Y * lasUnitsPerMeter,
				Z: p.Position.Z * lasUnitsPerMeter,
				BitField: lidario.PointBitField{
					Value: (1) | (1 << 3) | (0 << 6) | (0 << 7),
				},
				ClassBitField: lidario.ClassificationBitField{
					Value: 0,
				},
				ScanAngle:     0,
				UserData:      0,
				PointSourceID: 1,
			},
			RGB: &lidario.RgbData{
				Red:   uint16(r) * 256,
				Green: uint16(g) * 256,
				Blue:  uint16(b) * 256,
			},
		}
		if lerr := lf.AddLasPoint(lp); lerr != nil {
			lastErr = lerr
			return false
		}
		return true
	})
	return lastErr
}

// NewFromLASFile returns a point cloud from reading a LAS file written by WriteToLASFile.
// Points without RGB data are black.
func NewFromLASFile(fn string) (*PointCloud, error) {
	lf, err := lidario.NewLasFile(fn, "r")
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(lf.Close)

	pc := newForDeclaredSize(lf.Header.NumberPoints)
	for i := 0; i < lf.Header.NumberPoints; i++ {
		p, err := lf.LasPoint(i)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot read LAS point %d", i)
		}
		data := p.PointData()
		pos := r3.Vector{X: data.X, Y: data.Y, Z: data.Z}.Mul(1 / lasUnitsPerMeter)

		var c RGB
		if rgb := p.RgbData(); rgb != nil {
			c = NewRGB255(uint8(rgb.Red/256), uint8(rgb.Green/256), uint8(rgb.Blue/256))
		}
		pc.Append(Point{Position: pos, Color: c})
	}
	return pc, nil
}
