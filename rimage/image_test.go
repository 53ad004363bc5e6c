package rimage

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestBGRChannelOrder(t *testing.T) {
	c := BGR{B: 10, G: 20, R: 30}
	r, g, b := c.RGB255()
	test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{30, 20, 10})

	r32, g32, b32, a32 := c.RGBA()
	test.That(t, r32, test.ShouldEqual, uint32(30*0x101))
	test.That(t, g32, test.ShouldEqual, uint32(20*0x101))
	test.That(t, b32, test.ShouldEqual, uint32(10*0x101))
	test.That(t, a32, test.ShouldEqual, uint32(0xffff))

	test.That(t, BGRModel.Convert(color.NRGBA{R: 30, G: 20, B: 10, A: 255}), test.ShouldResemble, c)
}

func TestNewImageFromBytes(t *testing.T) {
	img, err := NewImageFromBytes(2, 1, []byte{10, 20, 30, 1, 2, 3})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.GetXY(0, 0), test.ShouldResemble, BGR{B: 10, G: 20, R: 30})
	test.That(t, img.Get(image.Point{1, 0}), test.ShouldResemble, BGR{B: 1, G: 2, R: 3})
	test.That(t, img.In(1, 0), test.ShouldBeTrue)
	test.That(t, img.In(2, 0), test.ShouldBeFalse)
	test.That(t, img.In(-1, 0), test.ShouldBeFalse)

	_, err = NewImageFromBytes(2, 2, []byte{1, 2, 3})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestConvertImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(1, 1, color.NRGBA{R: 30, G: 20, B: 10, A: 255})
	img := ConvertImage(src)
	test.That(t, img.Width(), test.ShouldEqual, 2)
	test.That(t, img.Height(), test.ShouldEqual, 2)
	test.That(t, img.GetXY(1, 1), test.ShouldResemble, BGR{B: 10, G: 20, R: 30})

	rgba := image.NewRGBA(image.Rect(5, 5, 6, 6))
	rgba.SetRGBA(5, 5, color.RGBA{R: 200, G: 100, B: 50, A: 255})
	img = ConvertImage(rgba)
	test.That(t, img.GetXY(0, 0), test.ShouldResemble, BGR{B: 50, G: 100, R: 200})

	test.That(t, ConvertImage(img), test.ShouldEqual, img)
}

func TestImageFileRoundTrip(t *testing.T) {
	img := NewImage(3, 2)
	img.SetXY(2, 1, BGR{B: 10, G: 20, R: 30})
	img.Set(image.Point{0, 0}, BGR{B: 255})

	fn := filepath.Join(t.TempDir(), "color.png")
	test.That(t, WriteImageToFile(fn, img), test.ShouldBeNil)

	read, err := ReadImageFromFile(fn)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, read, test.ShouldResemble, img)

	_, err = ReadImageFromFile(filepath.Join(t.TempDir(), "missing.png"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestIsRawDepthFile(t *testing.T) {
	test.That(t, IsRawDepthFile("board1.dat"), test.ShouldBeTrue)
	test.That(t, IsRawDepthFile("dir/board1.dat.gz"), test.ShouldBeTrue)
	test.That(t, IsRawDepthFile("board1.png"), test.ShouldBeFalse)
	test.That(t, IsRawDepthFile("board1.gz"), test.ShouldBeFalse)
}
