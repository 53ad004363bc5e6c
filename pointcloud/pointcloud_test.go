package pointcloud

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.viam.com/test"
)

func testCloud() *PointCloud {
	return NewFromPoints([]Point{
		NewPoint(-0.001, -0.001, 1, NewRGB255(30, 20, 10)),
		NewPoint(0.0005, 0.0005, 0.5, NewRGB255(255, 0, 128)),
		NewPoint(1.25, -2.5, 4, RGB{R: 1, G: 0.5, B: 0}),
	})
}

func TestPointCloudBasic(t *testing.T) {
	pc := New()
	test.That(t, pc.Size(), test.ShouldEqual, 0)
	test.That(t, math.IsInf(pc.MetaData().MinX, 1), test.ShouldBeTrue)

	p0 := NewPoint(1, 2, 3, RGB{R: 1})
	p1 := NewPoint(-1, 0, 0.5, RGB{G: 1})
	pc.Append(p0)
	pc.Append(p1)
	test.That(t, pc.Size(), test.ShouldEqual, 2)
	test.That(t, pc.At(0), test.ShouldResemble, p0)
	test.That(t, pc.At(1), test.ShouldResemble, p1)

	meta := pc.MetaData()
	test.That(t, meta.MinX, test.ShouldEqual, -1)
	test.That(t, meta.MaxX, test.ShouldEqual, 1)
	test.That(t, meta.MinY, test.ShouldEqual, 0)
	test.That(t, meta.MaxY, test.ShouldEqual, 2)
	test.That(t, meta.MinZ, test.ShouldEqual, 0.5)
	test.That(t, meta.MaxZ, test.ShouldEqual, 3)
}

func TestPointCloudIterate(t *testing.T) {
	pc := testCloud()

	var seen []Point
	pc.Iterate(0, 0, func(p Point) bool {
		seen = append(seen, p)
		return true
	})
	if diff := cmp.Diff(pc.Points(), seen); diff != "" {
		t.Errorf("iteration order mismatch (-want +got):\n%s", diff)
	}

	count := 0
	pc.Iterate(0, 0, func(p Point) bool {
		count++
		return false
	})
	test.That(t, count, test.ShouldEqual, 1)

	count = 0
	for batch := 0; batch < 2; batch++ {
		pc.Iterate(2, batch, func(p Point) bool {
			count++
			return true
		})
	}
	test.That(t, count, test.ShouldEqual, pc.Size())
}

func TestRGB255(t *testing.T) {
	c := NewRGB255(30, 20, 10)
	test.That(t, c.R, test.ShouldAlmostEqual, 30./255)
	test.That(t, c.G, test.ShouldAlmostEqual, 20./255)
	test.That(t, c.B, test.ShouldAlmostEqual, 10./255)
	r, g, b := c.RGB255()
	test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{30, 20, 10})

	r, g, b = RGB{R: 1.5, G: -0.2, B: 0.5}.RGB255()
	test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{255, 0, 128})
}

func TestSummarize(t *testing.T) {
	summary, err := Summarize(New())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, summary, test.ShouldResemble, Summary{})

	summary, err = Summarize(testCloud())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, summary.Points, test.ShouldEqual, 3)
	test.That(t, summary.MeanDepth, test.ShouldAlmostEqual, 5.5/3)
	test.That(t, summary.MedianDepth, test.ShouldAlmostEqual, 1.0)
	test.That(t, summary.StdDevDepth, test.ShouldBeGreaterThan, 0)
	test.That(t, summary.Meta.MaxZ, test.ShouldEqual, 4)
	test.That(t, summary.MeanColor.R, test.ShouldAlmostEqual, (30./255+1+1)/3)
}
