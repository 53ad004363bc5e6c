package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// NewVector convenience method for creating a vector.
func NewVector(x, y, z float64) r3.Vector {
	return r3.Vector{x, y, z}
}

// RGB is a color with each channel normalized to [0, 1].
type RGB struct {
	R, G, B float64
}

// NewRGB255 normalizes 8 bit channels to [0, 1].
func NewRGB255(r, g, b uint8) RGB {
	return RGB{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
	}
}

// RGB255 returns the color scaled back to 8 bit channels, rounding and clamping each one.
func (c RGB) RGB255() (uint8, uint8, uint8) {
	return to255(c.R), to255(c.G), to255(c.B)
}

func to255(v float64) uint8 {
	v = math.Round(v * 255)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Point is a colored point. Position is in meters in the frame of the camera that
// colored it.
type Point struct {
	Position r3.Vector
	Color    RGB
}

// NewPoint returns a point at (x, y, z) with color c.
func NewPoint(x, y, z float64, c RGB) Point {
	return Point{Position: NewVector(x, y, z), Color: c}
}
