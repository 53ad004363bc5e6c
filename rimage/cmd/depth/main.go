// Package main is a command that takes a depth file and produces visual depth data.
package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/depthcloud/logging"
	"go.viam.com/depthcloud/rimage"
)

func main() {
	logger := logging.NewLogger("depth")
	if err := newApp(logger).RunContext(context.Background(), os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func newApp(logger logging.Logger) *cli.App {
	return &cli.App{
		Name:      "depth",
		Usage:     "render a depth map as a false color image, or convert it to the raw depth format",
		ArgsUsage: "<in> <out>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "min",
				Usage: "min depth",
			},
			&cli.IntFlag{
				Name:  "max",
				Value: int(rimage.MaxDepth),
				Usage: "max depth",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return errors.New("need two args <in> <out>")
			}
			return render(c.Args().Get(0), c.Args().Get(1), c.Int("min"), c.Int("max"), logger)
		},
	}
}

// render writes in to out. A ".dat" or ".dat.gz" out keeps the raw samples; anything else gets
// the false color picture.
func render(in, out string, hardMin, hardMax int, logger logging.Logger) error {
	if hardMin < 0 || hardMax > int(rimage.MaxDepth) || hardMin > hardMax {
		return errors.Errorf("depth range [%d, %d] must be within [0, %d]", hardMin, hardMax, rimage.MaxDepth)
	}
	dm, err := rimage.ReadDepthMapFromFile(in)
	if err != nil {
		return err
	}
	min, max := dm.MinMax()
	logger.Infow("read depth map", "path", in, "size", dm.Bounds().Size(), "min", min, "max", max)

	if rimage.IsRawDepthFile(out) {
		return dm.WriteToFile(out)
	}
	return rimage.WriteImageToFile(out, dm.ToPrettyPicture(rimage.Depth(hardMin), rimage.Depth(hardMax)))
}
