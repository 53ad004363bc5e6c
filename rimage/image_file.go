package rimage

import (
	"image"
	"os"
	"path/filepath"
	"strings"

	// register image decoders for the inputs we accept.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "github.com/lmittmann/ppm" // register ppm
	"github.com/pkg/errors"
	_ "github.com/xfmoulet/qoi" // register qoi
	"go.viam.com/utils"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ReadImageFromFile decodes a color image, applying any EXIF orientation.
func ReadImageFromFile(path string) (*Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read color image %q", path)
	}
	return ConvertImage(img), nil
}

// WriteImageToFile encodes img by the extension of path.
func WriteImageToFile(path string, img image.Image) error {
	return imaging.Save(img, path)
}

// IsRawDepthFile reports whether path names the raw depth format by its ".dat" or ".dat.gz" extension.
func IsRawDepthFile(path string) bool {
	return filepath.Ext(path) == ".dat" || strings.HasSuffix(path, ".dat.gz")
}

// ReadDepthMapFromFile reads a depth map from a 16 bit image (png, tiff, pgm) or from the raw
// ".dat"/".dat.gz" format.
func ReadDepthMapFromFile(path string) (*DepthMap, error) {
	if IsRawDepthFile(path) {
		dm, err := ParseDepthMap(path)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot read depth map %q", path)
		}
		return dm, nil
	}

	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot decode depth image %q", path)
	}
	dm, err := ConvertImageToDepthMap(img)
	if err != nil {
		return nil, errors.Wrapf(err, "depth image %q (%s)", path, format)
	}
	return dm, nil
}

// ConvertImageToDepthMap takes an image and figures out if it's already a DepthMap
// or if it can be converted into one.
func ConvertImageToDepthMap(img image.Image) (*DepthMap, error) {
	switch ii := img.(type) {
	case *DepthMap:
		return ii, nil
	case *image.Gray16:
		bounds := ii.Bounds()
		dm := NewEmptyDepthMap(bounds.Dx(), bounds.Dy())
		for y := 0; y < dm.height; y++ {
			for x := 0; x < dm.width; x++ {
				dm.Set(x, y, Depth(ii.Gray16At(x+bounds.Min.X, y+bounds.Min.Y).Y))
			}
		}
		return dm, nil
	case *image.Gray:
		bounds := ii.Bounds()
		dm := NewEmptyDepthMap(bounds.Dx(), bounds.Dy())
		for y := 0; y < dm.height; y++ {
			for x := 0; x < dm.width; x++ {
				dm.Set(x, y, Depth(ii.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y))
			}
		}
		return dm, nil
	default:
		return nil, errors.Errorf("cannot convert image type %T to a depth map", img)
	}
}
