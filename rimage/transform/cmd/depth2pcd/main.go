// Package main is a command that converts a depth image and a color image into a colored
// point cloud file.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	units "github.com/docker/go-units"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/depthcloud/config"
	"go.viam.com/depthcloud/logging"
	"go.viam.com/depthcloud/pointcloud"
	"go.viam.com/depthcloud/rimage"
	"go.viam.com/depthcloud/rimage/transform"
	"go.viam.com/depthcloud/utils"
)

const (
	// Flags.
	flagDepth       = "depth"
	flagColor       = "color"
	flagConfig      = "config"
	flagOut         = "out"
	flagWorkers     = "workers"
	flagOutOfBounds = "out-of-bounds"
	flagMaxDepth    = "max-depth"
	flagDepthScale  = "depth-scale"
	flagDebug       = "debug"
	flagSummary     = "summary"
	flagPreview     = "preview"
	flagHistogram   = "histogram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	logger := logging.NewLogger("depth2pcd")
	logging.ReplaceGlobal(logger)
	err := newApp(logger).RunContext(ctx, os.Args)
	stop()
	if err != nil {
		logger.Error(err)
		//nolint:errcheck
		logger.Sync()
		os.Exit(1)
	}
}

func newApp(logger logging.Logger) *cli.App {
	return &cli.App{
		Name:  "depth2pcd",
		Usage: "project a depth image into a point cloud colored by a second camera",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagDepth,
				Aliases:  []string{"d"},
				Required: true,
				Usage:    "depth image `FILE` (16 bit png/tiff/pgm or .dat[.gz])",
			},
			&cli.StringFlag{
				Name:     flagColor,
				Aliases:  []string{"i"},
				Required: true,
				Usage:    "color image `FILE`",
			},
			&cli.StringFlag{
				Name:     flagConfig,
				Aliases:  []string{"c"},
				Required: true,
				Usage:    "load camera system and conversion configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:     flagOut,
				Aliases:  []string{"o"},
				Required: true,
				Usage:    "point cloud `FILE` to write (.ply, .pcd or .las)",
			},
			&cli.IntFlag{
				Name:  flagWorkers,
				Usage: "number of row groups converted in parallel, 0 for one per CPU",
			},
			&cli.StringFlag{
				Name:  flagOutOfBounds,
				Usage: "what to do with points projecting outside the color image: clamp or drop",
			},
			&cli.Float64Flag{
				Name:  flagMaxDepth,
				Usage: "farthest depth kept, in meters",
			},
			&cli.Float64Flag{
				Name:  flagDepthScale,
				Usage: "meters per raw depth unit",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.BoolFlag{
				Name:  flagSummary,
				Usage: "print a summary table of the point cloud",
			},
			&cli.StringFlag{
				Name:  flagPreview,
				Usage: "also write a false color rendering of the depth image to `FILE`",
			},
			&cli.StringFlag{
				Name:  flagHistogram,
				Usage: "also plot the distribution of point depths to `FILE` (png, svg or pdf)",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger.SetLevel(logging.DEBUG)
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			return convert(c, logger)
		},
	}
}

// conversionOptions layers flags that were given over the config file.
func conversionOptions(c *cli.Context, cfg *config.Config, logger logging.Logger) []transform.ConversionOption {
	opts := cfg.ConversionOptions()
	if c.IsSet(flagWorkers) {
		opts = append(opts, transform.WithWorkers(c.Int(flagWorkers)))
	}
	if c.IsSet(flagOutOfBounds) {
		opts = append(opts, transform.WithOutOfBounds(transform.OutOfBoundsPolicy(c.String(flagOutOfBounds))))
	}
	if c.IsSet(flagMaxDepth) {
		opts = append(opts, transform.WithMaxDepth(c.Float64(flagMaxDepth)))
	}
	if c.IsSet(flagDepthScale) {
		opts = append(opts, transform.WithDepthScale(c.Float64(flagDepthScale)))
	}
	return append(opts, transform.WithLogger(logger.Sublogger("convert")))
}

func convert(c *cli.Context, logger logging.Logger) error {
	cfg, err := config.Read(c.String(flagConfig), logger)
	if err != nil {
		return err
	}
	if !c.Bool(flagDebug) {
		logger.SetLevel(cfg.Level())
	}

	converter, err := transform.NewConverterFromCameraSystem(cfg.CameraSystem, conversionOptions(c, cfg, logger)...)
	if err != nil {
		return err
	}

	dm, err := rimage.ReadDepthMapFromFile(c.String(flagDepth))
	if err != nil {
		return err
	}
	img, err := rimage.ReadImageFromFile(c.String(flagColor))
	if err != nil {
		return err
	}
	warnOnSizeMismatch(logger, "depth", dm.Width(), dm.Height(), cfg.CameraSystem.DepthCamera)
	warnOnSizeMismatch(logger, "color", img.Width(), img.Height(), cfg.CameraSystem.ColorCamera)

	start := time.Now()
	pc, err := converter.Convert(c.Context, dm, img)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	outPath := c.String(flagOut)
	if err := pointcloud.WriteToFile(pc, outPath); err != nil {
		utils.RemoveFileNoError(outPath)
		return errors.Wrapf(err, "cannot write point cloud to %q", outPath)
	}
	info, err := os.Stat(outPath)
	if err != nil {
		return err
	}
	logger.Infow("wrote point cloud",
		"path", outPath,
		"points", pc.Size(),
		"skipped", dm.Width()*dm.Height()-pc.Size(),
		"elapsed", elapsed,
		"size", units.HumanSize(float64(info.Size())),
	)

	if c.Bool(flagSummary) {
		summary, err := pointcloud.Summarize(pc)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, summaryTable(summary))
	}

	if previewPath := c.String(flagPreview); previewPath != "" {
		conv := converter.Config()
		hardMax := rimage.MaxDepth
		if raw := conv.MaxDepth / conv.DepthScale; raw < float64(rimage.MaxDepth) {
			hardMax = rimage.Depth(math.Ceil(raw))
		}
		if err := rimage.WriteImageToFile(previewPath, dm.ToPrettyPicture(0, hardMax)); err != nil {
			return errors.Wrapf(err, "cannot write preview to %q", previewPath)
		}
		logger.Debugw("wrote depth preview", "path", previewPath)
	}

	if histogramPath := c.String(flagHistogram); histogramPath != "" && pc.Size() > 0 {
		if err := pointcloud.WriteDepthHistogram(pc, histogramPath, 0); err != nil {
			return err
		}
		logger.Debugw("wrote depth histogram", "path", histogramPath)
	}
	return nil
}

func warnOnSizeMismatch(logger logging.Logger, name string, width, height int, intrinsics transform.PinholeCameraIntrinsics) {
	if intrinsics.Width == 0 || intrinsics.Height == 0 {
		return
	}
	if width != intrinsics.Width || height != intrinsics.Height {
		logger.Warnw("image size does not match the camera intrinsics",
			"camera", name,
			"image", fmt.Sprintf("%dx%d", width, height),
			"intrinsics", fmt.Sprintf("%dx%d", intrinsics.Width, intrinsics.Height),
		)
	}
}

func summaryTable(summary pointcloud.Summary) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Statistic", "Value"})
	t.AppendRow(table.Row{"points", summary.Points})
	if summary.Points > 0 {
		meta := summary.Meta
		t.AppendRow(table.Row{"x range (m)", fmt.Sprintf("[%.4f, %.4f]", meta.MinX, meta.MaxX)})
		t.AppendRow(table.Row{"y range (m)", fmt.Sprintf("[%.4f, %.4f]", meta.MinY, meta.MaxY)})
		t.AppendRow(table.Row{"z range (m)", fmt.Sprintf("[%.4f, %.4f]", meta.MinZ, meta.MaxZ)})
		t.AppendRow(table.Row{"mean depth (m)", fmt.Sprintf("%.4f", summary.MeanDepth)})
		t.AppendRow(table.Row{"median depth (m)", fmt.Sprintf("%.4f", summary.MedianDepth)})
		t.AppendRow(table.Row{"depth std dev (m)", fmt.Sprintf("%.4f", summary.StdDevDepth)})
		r, g, b := summary.MeanColor.RGB255()
		t.AppendRow(table.Row{"mean color", fmt.Sprintf("rgb(%d, %d, %d)", r, g, b)})
	}
	return t.Render()
}
