package pointcloud

import (
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// Summary describes a cloud for reporting.
type Summary struct {
	Points      int
	Meta        MetaData
	MeanDepth   float64
	MedianDepth float64
	StdDevDepth float64
	MeanColor   RGB
}

// Summarize computes point count, bounds and depth statistics of the cloud. An empty cloud
// gives a zero Summary.
func Summarize(pc *PointCloud) (Summary, error) {
	if pc.Size() == 0 {
		return Summary{}, nil
	}
	depths := make(stats.Float64Data, 0, pc.Size())
	var reds, greens, blues stats.Float64Data
	pc.Iterate(0, 0, func(p Point) bool {
		depths = append(depths, p.Position.Z)
		reds = append(reds, p.Color.R)
		greens = append(greens, p.Color.G)
		blues = append(blues, p.Color.B)
		return true
	})

	summary := Summary{Points: pc.Size(), Meta: pc.MetaData()}
	var err error
	if summary.MeanDepth, err = depths.Mean(); err != nil {
		return Summary{}, errors.Wrap(err, "mean depth")
	}
	if summary.MedianDepth, err = depths.Median(); err != nil {
		return Summary{}, errors.Wrap(err, "median depth")
	}
	if summary.StdDevDepth, err = depths.StandardDeviation(); err != nil {
		return Summary{}, errors.Wrap(err, "depth standard deviation")
	}
	for _, channel := range []struct {
		data stats.Float64Data
		dst  *float64
	}{{reds, &summary.MeanColor.R}, {greens, &summary.MeanColor.G}, {blues, &summary.MeanColor.B}} {
		if *channel.dst, err = channel.data.Mean(); err != nil {
			return Summary{}, errors.Wrap(err, "mean color")
		}
	}
	return summary, nil
}
