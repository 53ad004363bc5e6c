package pointcloud

import (
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// DefaultHistogramBins is the bin count WriteDepthHistogram uses when none is given.
const DefaultHistogramBins = 50

// WriteDepthHistogram plots the distribution of point depths and saves it to fn. The image
// format follows the extension (png, svg, pdf, ...).
func WriteDepthHistogram(pc *PointCloud, fn string, bins int) error {
	if pc.Size() == 0 {
		return errors.New("cannot plot the depth histogram of an empty point cloud")
	}
	if bins <= 0 {
		bins = DefaultHistogramBins
	}
	depths := make(plotter.Values, 0, pc.Size())
	pc.Iterate(0, 0, func(p Point) bool {
		depths = append(depths, p.Position.Z)
		return true
	})

	p := plot.New()
	p.Title.Text = "Point depths"
	p.X.Label.Text = "depth (m)"
	p.Y.Label.Text = "points"
	hist, err := plotter.NewHist(depths, bins)
	if err != nil {
		return errors.Wrap(err, "cannot bin depths")
	}
	hist.LineStyle.Width = vg.Points(1)
	p.Add(hist)
	if err := p.Save(8*vg.Inch, 4*vg.Inch, fn); err != nil {
		return errors.Wrapf(err, "cannot save depth histogram to %q", fn)
	}
	return nil
}
