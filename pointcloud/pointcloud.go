// Package pointcloud defines an ordered, colored point cloud and the file formats it can be
// written to and read from.
//
// Points keep the order they were appended in. Producers that scan an image row by row get
// a cloud in scan order, which makes output reproducible for identical inputs.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// MetaData is data about what's stored in the point cloud.
type MetaData struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// NewMetaData creates an empty MetaData whose bounds widen with the first merged point.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.Inf(1),
		MaxX: math.Inf(-1),
		MinY: math.Inf(1),
		MaxY: math.Inf(-1),
		MinZ: math.Inf(1),
		MaxZ: math.Inf(-1),
	}
}

// Merge updates the bounds to include v.
func (meta *MetaData) Merge(v r3.Vector) {
	meta.MinX = math.Min(meta.MinX, v.X)
	meta.MaxX = math.Max(meta.MaxX, v.X)
	meta.MinY = math.Min(meta.MinY, v.Y)
	meta.MaxY = math.Max(meta.MaxY, v.Y)
	meta.MinZ = math.Min(meta.MinZ, v.Z)
	meta.MaxZ = math.Max(meta.MaxZ, v.Z)
}

// PointCloud is an append-only, ordered sequence of colored points. It is not safe for
// concurrent appends; parallel producers should fill local slices and append them in order.
type PointCloud struct {
	points []Point
	meta   MetaData
}

// New returns an empty PointCloud.
func New() *PointCloud {
	return NewWithPrealloc(0)
}

// NewWithPrealloc returns an empty PointCloud with room for size points.
func NewWithPrealloc(size int) *PointCloud {
	return &PointCloud{
		points: make([]Point, 0, size),
		meta:   NewMetaData(),
	}
}

// maxDeclaredPrealloc bounds how many points a reader reserves up front for the count a file
// header declares; larger clouds grow as points are read.
const maxDeclaredPrealloc = 1 << 20

// newForDeclaredSize returns an empty PointCloud for a file header declaring size points.
func newForDeclaredSize(size int) *PointCloud {
	return NewWithPrealloc(min(max(size, 0), maxDeclaredPrealloc))
}

// NewFromPoints returns a PointCloud holding a copy of pts in order.
func NewFromPoints(pts []Point) *PointCloud {
	pc := NewWithPrealloc(len(pts))
	pc.Append(pts...)
	return pc
}

// Size returns the number of points in the cloud.
func (pc *PointCloud) Size() int {
	return len(pc.points)
}

// MetaData returns the bounds of the cloud.
func (pc *PointCloud) MetaData() MetaData {
	return pc.meta
}

// Append adds points to the end of the cloud.
func (pc *PointCloud) Append(pts ...Point) {
	for _, p := range pts {
		pc.meta.Merge(p.Position)
	}
	pc.points = append(pc.points, pts...)
}

// At returns the i-th point in append order.
func (pc *PointCloud) At(i int) Point {
	return pc.points[i]
}

// Points returns the points in append order. The slice aliases the cloud and must not be
// modified.
func (pc *PointCloud) Points() []Point {
	return pc.points
}

// Iterate calls fn for each point in order. If fn returns false, iteration stops.
// numBatches lets you divide up the work. 0 means don't divide.
// myBatch is used iff numBatches > 0 and is which batch you want.
func (pc *PointCloud) Iterate(numBatches, myBatch int, fn func(p Point) bool) {
	for i, p := range pc.points {
		if numBatches > 0 && i%numBatches != myBatch {
			continue
		}
		if !fn(p) {
			return
		}
	}
}
