package transform

import (
	"context"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/depthcloud/logging"
	"go.viam.com/depthcloud/pointcloud"
	"go.viam.com/depthcloud/rimage"
	"go.viam.com/depthcloud/utils"
)

const (
	// DefaultDepthScale converts raw depth samples to meters; raw samples are millimeters.
	DefaultDepthScale = 0.001
	// DefaultMaxDepth is the farthest depth in meters that is kept.
	DefaultMaxDepth = 10.0
)

var (
	// ErrNilDepthMap is returned when no depth map is given to a conversion.
	ErrNilDepthMap = errors.New("no depth channel, cannot project to point cloud")
	// ErrNilImage is returned when no color image is given to a conversion.
	ErrNilImage = errors.New("no color channel, cannot project to point cloud")
	// ErrEmptyImage is returned when the color image has no pixels to sample.
	ErrEmptyImage = errors.New("color image has no pixels to sample")
)

// OutOfBoundsPolicy decides what happens to a point that projects outside the color image.
type OutOfBoundsPolicy string

const (
	// OutOfBoundsClamp colors the point with the nearest edge pixel.
	OutOfBoundsClamp OutOfBoundsPolicy = "clamp"
	// OutOfBoundsDrop skips the point.
	OutOfBoundsDrop OutOfBoundsPolicy = "drop"
)

// ConversionConfig holds the sensor assumptions of a depth to point cloud conversion.
// Zero values take the defaults.
type ConversionConfig struct {
	// DepthScale is meters per raw depth unit.
	DepthScale float64 `json:"depth_scale,omitempty"`
	// MaxDepth is the sensor range cutoff in meters. Depths above it are skipped.
	MaxDepth    float64           `json:"max_depth_m,omitempty"`
	OutOfBounds OutOfBoundsPolicy `json:"out_of_bounds,omitempty"`
	// Workers is the number of row groups converted in parallel. 0 means utils.ParallelFactor.
	Workers int `json:"workers,omitempty"`
}

// DefaultConversionConfig returns millimeter depth, a 10 meter range and edge clamping.
func DefaultConversionConfig() ConversionConfig {
	return ConversionConfig{
		DepthScale:  DefaultDepthScale,
		MaxDepth:    DefaultMaxDepth,
		OutOfBounds: OutOfBoundsClamp,
	}
}

// WithDefaults fills in zero fields with their defaults.
func (cfg ConversionConfig) WithDefaults() ConversionConfig {
	def := DefaultConversionConfig()
	if cfg.DepthScale == 0 {
		cfg.DepthScale = def.DepthScale
	}
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	if cfg.OutOfBounds == "" {
		cfg.OutOfBounds = def.OutOfBounds
	}
	return cfg
}

// Validate checks the config after defaults have been applied.
func (cfg ConversionConfig) Validate() error {
	if !(cfg.DepthScale > 0) || math.IsInf(cfg.DepthScale, 0) {
		return errors.Errorf("depth_scale must be positive, got %v", cfg.DepthScale)
	}
	if !(cfg.MaxDepth > 0) {
		return errors.Errorf("max_depth_m must be positive, got %v", cfg.MaxDepth)
	}
	switch cfg.OutOfBounds {
	case OutOfBoundsClamp, OutOfBoundsDrop:
	default:
		return errors.Errorf("unknown out_of_bounds policy %q, expected %q or %q",
			cfg.OutOfBounds, OutOfBoundsClamp, OutOfBoundsDrop)
	}
	if cfg.Workers < 0 {
		return errors.Errorf("workers cannot be negative, got %d", cfg.Workers)
	}
	return nil
}

// ConversionOption configures a Converter.
type ConversionOption func(*Converter)

// WithConversionConfig replaces the whole conversion config. Zero fields take defaults.
func WithConversionConfig(cfg ConversionConfig) ConversionOption {
	return func(c *Converter) {
		c.cfg = cfg
	}
}

// WithOutOfBounds sets the out of bounds policy.
func WithOutOfBounds(policy OutOfBoundsPolicy) ConversionOption {
	return func(c *Converter) {
		c.cfg.OutOfBounds = policy
	}
}

// WithWorkers sets the number of row groups converted in parallel.
func WithWorkers(workers int) ConversionOption {
	return func(c *Converter) {
		c.cfg.Workers = workers
	}
}

// WithMaxDepth sets the range cutoff in meters.
func WithMaxDepth(maxDepth float64) ConversionOption {
	return func(c *Converter) {
		c.cfg.MaxDepth = maxDepth
	}
}

// WithDepthScale sets the meters per raw depth unit.
func WithDepthScale(scale float64) ConversionOption {
	return func(c *Converter) {
		c.cfg.DepthScale = scale
	}
}

// WithLogger sets the logger. The converter only logs at debug level. Without this option
// it logs through a sublogger of logging.Global.
func WithLogger(logger logging.Logger) ConversionOption {
	return func(c *Converter) {
		c.logger = logger
	}
}

// Converter turns a depth map and a color image into a colored point cloud. It holds no
// per-conversion state and is safe for concurrent use.
type Converter struct {
	depthIntrinsics PinholeCameraIntrinsics
	colorIntrinsics PinholeCameraIntrinsics
	extrinsics      *Extrinsics
	cfg             ConversionConfig
	logger          logging.Logger
}

// NewConverter returns a Converter for the given depth and color intrinsics. A nil ext means
// the cameras are co-located and aligned. The intrinsics are not validated; zero focal
// lengths give meaningless points rather than an error.
func NewConverter(
	depthIntrinsics, colorIntrinsics PinholeCameraIntrinsics,
	ext *Extrinsics,
	opts ...ConversionOption,
) (*Converter, error) {
	if ext == nil {
		ext = IdentityExtrinsics()
	}
	if err := ext.CheckValid(); err != nil {
		return nil, err
	}
	c := &Converter{
		depthIntrinsics: depthIntrinsics,
		colorIntrinsics: colorIntrinsics,
		extrinsics:      ext,
		cfg:             DefaultConversionConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cfg = c.cfg.WithDefaults()
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	if c.logger == nil {
		c.logger = logging.Global().Sublogger("depth_to_pointcloud")
	}
	return c, nil
}

// NewConverterFromCameraSystem returns a Converter for a depth/color camera pair.
func NewConverterFromCameraSystem(cs *DepthColorIntrinsicsExtrinsics, opts ...ConversionOption) (*Converter, error) {
	if cs == nil {
		return nil, NewNoIntrinsicsError("camera system is nil")
	}
	return NewConverter(cs.DepthCamera, cs.ColorCamera, cs.Extrinsics(), opts...)
}

// Config returns the conversion config in use.
func (c *Converter) Config() ConversionConfig {
	return c.cfg
}

// backProject turns the raw depth at column x, row y into a point in the depth camera frame.
// Depths outside (0, MaxDepth] are rejected.
func (c *Converter) backProject(x, y int, raw rimage.Depth) (r3.Vector, bool) {
	depth := float64(raw) * c.cfg.DepthScale
	if depth <= 0 || depth > c.cfg.MaxDepth {
		return r3.Vector{}, false
	}
	return c.depthIntrinsics.PixelToPoint(float64(x), float64(y), depth), true
}

// pixelIndex rounds a projected coordinate and clamps it into [0, size-1]. The second
// return is whether the rounded coordinate was already inside.
func pixelIndex(f float64, size int) (int, bool) {
	r := math.Round(f)
	switch {
	case !(r >= 0):
		return 0, false
	case r > float64(size-1):
		return size - 1, false
	default:
		return int(r), true
	}
}

// sampleColor projects a point in the color camera frame onto the color image and reads the
// pixel it lands on. Points behind the camera are rejected, as are points landing outside the
// image under OutOfBoundsDrop.
func (c *Converter) sampleColor(p r3.Vector, img *rimage.Image) (pointcloud.RGB, bool) {
	if p.Z <= 0 {
		return pointcloud.RGB{}, false
	}
	u, v := c.colorIntrinsics.PointToPixel(p.X, p.Y, p.Z)
	col, colIn := pixelIndex(u, img.Width())
	row, rowIn := pixelIndex(v, img.Height())
	if c.cfg.OutOfBounds == OutOfBoundsDrop && !(colIn && rowIn) {
		return pointcloud.RGB{}, false
	}
	return pointcloud.NewRGB255(img.GetXY(col, row).RGB255()), true
}

// ProjectPixel runs the whole pipeline for the depth sample raw at column x, row y. The
// second return is false when the pixel produces no point.
func (c *Converter) ProjectPixel(x, y int, raw rimage.Depth, img *rimage.Image) (pointcloud.Point, bool) {
	pDepth, ok := c.backProject(x, y, raw)
	if !ok {
		return pointcloud.Point{}, false
	}
	pColor := c.extrinsics.TransformPointToPoint(pDepth.X, pDepth.Y, pDepth.Z)
	rgb, ok := c.sampleColor(pColor, img)
	if !ok {
		return pointcloud.Point{}, false
	}
	return pointcloud.Point{Position: pColor, Color: rgb}, true
}

func (c *Converter) convertRows(ctx context.Context, dm *rimage.DepthMap, img *rimage.Image, from, to int) ([]pointcloud.Point, error) {
	var pts []pointcloud.Point
	for y := from; y < to; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x, raw := range dm.Row(y) {
			if p, ok := c.ProjectPixel(x, y, raw, img); ok {
				pts = append(pts, p)
			}
		}
	}
	return pts, nil
}

// Convert projects every depth pixel to a colored point in the color camera frame. Points are
// returned in row-major scan order of the depth map, skipping pixels that produce no point.
// Rows are split into contiguous groups converted in parallel; the context is checked once per row.
func (c *Converter) Convert(ctx context.Context, dm *rimage.DepthMap, img *rimage.Image) (*pointcloud.PointCloud, error) {
	if dm == nil {
		return nil, ErrNilDepthMap
	}
	if img == nil {
		return nil, ErrNilImage
	}
	if img.Width() <= 0 || img.Height() <= 0 {
		return nil, ErrEmptyImage
	}

	workers := c.cfg.Workers
	if workers == 0 {
		workers = utils.ParallelFactor
	}
	groupPoints := make([][]pointcloud.Point, workers)
	numGroups, err := utils.GroupWorkParallel(ctx, dm.Height(), workers,
		func(ctx context.Context, groupNum, from, to int) error {
			pts, err := c.convertRows(ctx, dm, img, from, to)
			if err != nil {
				return err
			}
			groupPoints[groupNum] = pts
			return nil
		})
	if err != nil {
		return nil, errors.Wrap(err, "depth to point cloud conversion stopped")
	}

	size := 0
	for _, pts := range groupPoints[:numGroups] {
		size += len(pts)
	}
	pc := pointcloud.NewWithPrealloc(size)
	for _, pts := range groupPoints[:numGroups] {
		pc.Append(pts...)
	}
	c.logger.Debugw("converted depth map to point cloud",
		"depth_size", dm.Bounds().Size(),
		"color_size", img.Bounds().Size(),
		"groups", numGroups,
		"points", pc.Size(),
		"skipped", dm.Width()*dm.Height()-pc.Size(),
	)
	return pc, nil
}

// DepthColorToPointCloud converts a depth map and color image into a colored point cloud in
// the color camera frame. A nil ext means identity rotation and zero translation.
func DepthColorToPointCloud(
	ctx context.Context,
	dm *rimage.DepthMap,
	img *rimage.Image,
	depthIntrinsics, colorIntrinsics PinholeCameraIntrinsics,
	ext *Extrinsics,
	opts ...ConversionOption,
) (*pointcloud.PointCloud, error) {
	c, err := NewConverter(depthIntrinsics, colorIntrinsics, ext, opts...)
	if err != nil {
		return nil, err
	}
	return c.Convert(ctx, dm, img)
}
