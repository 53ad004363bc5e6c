package rimage

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// Depth is the depth sample of a single pixel in raw sensor units.
type Depth uint16

// MaxDepth is the max allowed depth sample.
const MaxDepth = Depth(math.MaxUint16)

// maxDepthMapSide bounds the width and height read from a raw depth file.
const maxDepthMapSide = 100000

// DepthMap fulfills the image.Image interface and represents the depth information of a scene,
// one 16 bit sample per pixel stored row-major.
type DepthMap struct {
	width  int
	height int

	data []Depth
}

// NewEmptyDepthMap returns an unset depth map with the given dimensions.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{
		width:  width,
		height: height,
		data:   make([]Depth, width*height),
	}
}

// NewDepthMapFromSamples wraps row-major depth samples. The slice is used directly, not copied.
func NewDepthMapFromSamples(width, height int, data []Depth) (*DepthMap, error) {
	if width < 0 || height < 0 {
		return nil, errors.Errorf("bad width or height for depth map %d %d", width, height)
	}
	if len(data) != width*height {
		return nil, errors.Errorf("expected %d depth samples for a %dx%d depth map, got %d",
			width*height, width, height, len(data))
	}
	return &DepthMap{width: width, height: height, data: data}, nil
}

// HasData returns whether or not the depth map has any samples.
func (dm *DepthMap) HasData() bool {
	return dm.width > 0 && dm.height > 0 && dm.data != nil
}

// Width returns the width of the depth map.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the height of the depth map.
func (dm *DepthMap) Height() int {
	return dm.height
}

func (dm *DepthMap) kxy(x, y int) int {
	return (y * dm.width) + x
}

// Get returns the depth at point p.
func (dm *DepthMap) Get(p image.Point) Depth {
	return dm.data[dm.kxy(p.X, p.Y)]
}

// GetDepth returns the depth at column x, row y.
func (dm *DepthMap) GetDepth(x, y int) Depth {
	return dm.data[dm.kxy(x, y)]
}

// Row returns the samples of row y. The slice aliases the depth map.
func (dm *DepthMap) Row(y int) []Depth {
	start := dm.kxy(0, y)
	return dm.data[start : start+dm.width]
}

// Set sets the depth at column x, row y.
func (dm *DepthMap) Set(x, y int, val Depth) {
	dm.data[dm.kxy(x, y)] = val
}

// Bounds returns the rectangle dimensions of the image.
func (dm *DepthMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, dm.width, dm.height)
}

// ColorModel for DepthMap so that it fulfills the image.Image interface.
func (dm *DepthMap) ColorModel() color.Model {
	return color.Gray16Model
}

// At returns the depth value as a color.Gray16.
func (dm *DepthMap) At(x, y int) color.Color {
	return color.Gray16{uint16(dm.GetDepth(x, y))}
}

// Clone makes a copy of the depth map.
func (dm *DepthMap) Clone() *DepthMap {
	data := make([]Depth, len(dm.data))
	copy(data, dm.data)
	return &DepthMap{width: dm.width, height: dm.height, data: data}
}

// MinMax returns the min and max depth values in the depth map, ignoring unset samples.
func (dm *DepthMap) MinMax() (Depth, Depth) {
	min := MaxDepth
	max := Depth(0)
	for _, z := range dm.data {
		if z == 0 {
			continue
		}
		if z < min {
			min = z
		}
		if z > max {
			max = z
		}
	}
	return min, max
}

// ToPrettyPicture colors the depth map by hue, near samples red and far samples blue.
// Unset samples stay black.
func (dm *DepthMap) ToPrettyPicture(hardMin, hardMax Depth) *image.NRGBA {
	min, max := dm.MinMax()

	if min < hardMin {
		min = hardMin
	}
	if max > hardMax {
		max = hardMax
	}

	img := image.NewNRGBA(dm.Bounds())
	span := float64(max) - float64(min)
	if span <= 0 {
		span = 1
	}

	for y := 0; y < dm.height; y++ {
		for x := 0; x < dm.width; x++ {
			z := dm.GetDepth(x, y)
			if z == 0 {
				continue
			}
			if z < min {
				z = min
			}
			if z > max {
				z = max
			}
			ratio := (float64(z) - float64(min)) / span
			hue := 30 + (200.0 * ratio)
			img.Set(x, y, colorful.Hsv(hue, 1.0, 1.0))
		}
	}
	return img
}

// ParseDepthMap reads a depth map in the raw format written by WriteToFile. A ".gz" extension
// means the stream is gzip compressed.
func ParseDepthMap(fn string) (dm *DepthMap, err error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)

	var r io.Reader = f
	if filepath.Ext(fn) == ".gz" {
		gr, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot open gzip stream of %q", fn)
		}
		defer func() {
			err = multierr.Combine(err, gr.Close())
		}()
		r = gr
	}
	return ReadDepthMap(bufio.NewReader(r))
}

func readNext(r io.Reader) (int64, error) {
	data := make([]byte, 8)
	if _, err := io.ReadFull(r, data); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(data)), nil
}

// ReadDepthMap reads the raw depth format: little endian int64 width and height followed by
// width*height int64 samples in column-major order.
func ReadDepthMap(r *bufio.Reader) (*DepthMap, error) {
	rawWidth, err := readNext(r)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read depth map width")
	}
	rawHeight, err := readNext(r)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read depth map height")
	}
	if rawWidth <= 0 || rawWidth >= maxDepthMapSide || rawHeight <= 0 || rawHeight >= maxDepthMapSide {
		return nil, errors.Errorf("bad width or height for depth map %v %v", rawWidth, rawHeight)
	}

	dm := NewEmptyDepthMap(int(rawWidth), int(rawHeight))
	for x := 0; x < dm.width; x++ {
		for y := 0; y < dm.height; y++ {
			temp, err := readNext(r)
			if err != nil {
				return nil, errors.Wrapf(err, "cannot read depth sample (%d, %d)", x, y)
			}
			if temp < 0 || temp > int64(MaxDepth) {
				return nil, errors.Errorf("depth sample (%d, %d) out of range: %d", x, y, temp)
			}
			dm.Set(x, y, Depth(temp))
		}
	}
	return dm, nil
}

// WriteToFile writes the depth map in the raw format, gzip compressed if fn ends in ".gz".
func (dm *DepthMap) WriteToFile(fn string) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	var out io.Writer = f
	var gout *gzip.Writer
	if filepath.Ext(fn) == ".gz" {
		gout = gzip.NewWriter(f)
		out = gout
	}

	bout := bufio.NewWriter(out)
	if err := dm.WriteTo(bout); err != nil {
		return err
	}
	if err := bout.Flush(); err != nil {
		return err
	}
	if gout != nil {
		if err := gout.Close(); err != nil {
			return err
		}
	}
	return f.Sync()
}

// WriteTo writes the raw depth format to out.
func (dm *DepthMap) WriteTo(out io.Writer) error {
	buf := make([]byte, 8)

	binary.LittleEndian.PutUint64(buf, uint64(dm.width))
	if _, err := out.Write(buf); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(buf, uint64(dm.height))
	if _, err := out.Write(buf); err != nil {
		return err
	}

	for x := 0; x < dm.width; x++ {
		for y := 0; y < dm.height; y++ {
			binary.LittleEndian.PutUint64(buf, uint64(dm.GetDepth(x, y)))
			if _, err := out.Write(buf); err != nil {
				return err
			}
		}
	}
	return nil
}
