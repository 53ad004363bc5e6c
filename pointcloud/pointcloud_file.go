package pointcloud

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// WriteToFile writes the cloud to fn in the format named by its extension: ".ply" (ascii),
// ".pcd" (binary) or ".las".
func WriteToFile(pc *PointCloud, fn string) (err error) {
	ext := strings.ToLower(filepath.Ext(fn))
	if ext == ".las" {
		return WriteToLASFile(pc, fn)
	}
	if ext != ".ply" && ext != ".pcd" {
		return errors.Errorf("do not know how to write file %q", fn)
	}

	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	if ext == ".ply" {
		return WriteToPLY(pc, f)
	}
	return ToPCD(pc, f, PCDBinary)
}

// NewFromFile returns a pointcloud read in from the given file.
func NewFromFile(fn string) (*PointCloud, error) {
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".las":
		return NewFromLASFile(fn)
	case ".ply", ".pcd":
	default:
		return nil, errors.Errorf("do not know how to read file %q", fn)
	}

	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)

	if strings.ToLower(filepath.Ext(fn)) == ".ply" {
		return ReadPLY(f)
	}
	return ReadPCD(f)
}
