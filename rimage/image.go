package rimage

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// BGR is an 8 bit per channel color stored in blue, green, red order, the layout most
// color sensors and OpenCV style buffers use.
type BGR struct {
	B, G, R uint8
}

// RGBA returns the alpha-premultiplied color, always opaque.
func (c BGR) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

// RGB255 returns the channels reordered to red, green, blue.
func (c BGR) RGB255() (uint8, uint8, uint8) {
	return c.R, c.G, c.B
}

// BGRModel converts any color to BGR, dropping alpha.
var BGRModel = color.ModelFunc(bgrModel)

func bgrModel(c color.Color) color.Color {
	if bgr, ok := c.(BGR); ok {
		return bgr
	}
	nrgba, _ := color.NRGBAModel.Convert(c).(color.NRGBA)
	return BGR{B: nrgba.B, G: nrgba.G, R: nrgba.R}
}

// Image is a three channel, 8 bit color image stored row-major in BGR order.
type Image struct {
	data          []BGR
	width, height int
}

// NewImage returns a black image of the given dimensions.
func NewImage(width, height int) *Image {
	return &Image{
		data:   make([]BGR, width*height),
		width:  width,
		height: height,
	}
}

// NewImageFromBytes builds an image from an interleaved B,G,R byte buffer, row-major.
func NewImageFromBytes(width, height int, bgr []byte) (*Image, error) {
	if width < 0 || height < 0 {
		return nil, errors.Errorf("bad width or height for image %d %d", width, height)
	}
	if len(bgr) != 3*width*height {
		return nil, errors.Errorf("expected %d bytes for a %dx%d BGR image, got %d",
			3*width*height, width, height, len(bgr))
	}
	img := NewImage(width, height)
	for i := range img.data {
		img.data[i] = BGR{B: bgr[3*i], G: bgr[3*i+1], R: bgr[3*i+2]}
	}
	return img, nil
}

// ConvertImage converts a go image into an Image. Alpha is dropped.
func ConvertImage(img image.Image) *Image {
	if ii, ok := img.(*Image); ok {
		return ii
	}
	bounds := img.Bounds()
	out := NewImage(bounds.Dx(), bounds.Dy())
	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < out.height; y++ {
			for x := 0; x < out.width; x++ {
				c := src.NRGBAAt(x+bounds.Min.X, y+bounds.Min.Y)
				out.setXY(x, y, BGR{B: c.B, G: c.G, R: c.R})
			}
		}
	default:
		for y := 0; y < out.height; y++ {
			for x := 0; x < out.width; x++ {
				bgr, _ := bgrModel(img.At(x+bounds.Min.X, y+bounds.Min.Y)).(BGR)
				out.setXY(x, y, bgr)
			}
		}
	}
	return out
}

// ColorModel returns the BGR color model.
func (i *Image) ColorModel() color.Model {
	return BGRModel
}

// Bounds returns the bounds.
func (i *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.width, i.height)
}

// Width returns the width.
func (i *Image) Width() int {
	return i.width
}

// Height returns the height.
func (i *Image) Height() int {
	return i.height
}

// In reports whether (x, y) is inside the image.
func (i *Image) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < i.width && y < i.height
}

func (i *Image) kxy(x, y int) int {
	return (y * i.width) + x
}

// At returns the color at the given point.
func (i *Image) At(x, y int) color.Color {
	return i.GetXY(x, y)
}

// GetXY returns the color at column x, row y.
func (i *Image) GetXY(x, y int) BGR {
	return i.data[i.kxy(x, y)]
}

// Get returns the color at the given point.
func (i *Image) Get(p image.Point) BGR {
	return i.GetXY(p.X, p.Y)
}

func (i *Image) setXY(x, y int, c BGR) {
	i.data[i.kxy(x, y)] = c
}

// SetXY sets the color at column x, row y.
func (i *Image) SetXY(x, y int, c BGR) {
	i.setXY(x, y, c)
}

// Set sets the color at the given point.
func (i *Image) Set(p image.Point, c BGR) {
	i.setXY(p.X, p.Y, c)
}
