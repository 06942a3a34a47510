package mapyrus

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitSquare(ccw bool) *GeometricPath {
	p := NewGeometricPath()
	p.MoveTo(0, 0, 0)
	if ccw {
		p.LineTo(1, 0)
		p.LineTo(1, 1)
		p.LineTo(0, 1)
	} else {
		p.LineTo(0, 1)
		p.LineTo(1, 1)
		p.LineTo(1, 0)
	}
	p.ClosePath()
	return p
}

// samplePoints flattens a sampled path to [x, y, x, y, ...] for
// comparison.
func samplePoints(p *GeometricPath) []float64 {
	var points []float64
	for _, sp := range p.subPaths {
		for _, pt := range sp.points {
			points = append(points, pt.x, pt.y)
		}
	}
	return points
}

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestSquareLengthAndArea(t *testing.T) {
	p := unitSquare(true)
	assert.InDelta(t, 4.0, p.Length(), 1e-9)
	assert.InDelta(t, 1.0, p.Area(), 1e-9)

	// winding the other way flips the sign
	assert.InDelta(t, -1.0, unitSquare(false).Area(), 1e-9)
}

func TestHoleSubtractsFromArea(t *testing.T) {
	p := NewGeometricPath()
	p.MoveTo(0, 0, 0)
	p.LineTo(10, 0)
	p.LineTo(10, 10)
	p.LineTo(0, 10)
	p.ClosePath()
	// clockwise inner ring
	p.MoveTo(2, 2, 0)
	p.LineTo(2, 4)
	p.LineTo(4, 4)
	p.LineTo(4, 2)
	p.ClosePath()

	assert.InDelta(t, 96.0, p.Area(), 1e-9)
}

func TestCentroid(t *testing.T) {
	p := unitSquare(true)
	x, y := p.Centroid()
	assert.InDelta(t, 0.5, x, 1e-9)
	assert.InDelta(t, 0.5, y, 1e-9)

	// a degenerate path has no centroid
	line := NewGeometricPath()
	line.MoveTo(3, 3, 0)
	line.LineTo(8, 3)
	x, y = line.Centroid()
	assert.Zero(t, x)
	assert.Zero(t, y)
}

func TestBounds(t *testing.T) {
	p := NewGeometricPath()
	p.MoveTo(-2, 5, 0)
	p.LineTo(7, -1)
	xMin, yMin, xMax, yMax := p.Bounds()
	assert.Equal(t, []float64{-2, -1, 7, 5}, []float64{xMin, yMin, xMax, yMax})
}

func TestLastPoint(t *testing.T) {
	p := NewGeometricPath()
	_, _, ok := p.LastPoint()
	assert.False(t, ok)

	p.MoveTo(1, 2, 0)
	p.LineTo(3, 4)
	x, y, ok := p.LastPoint()
	require.True(t, ok)
	assert.Equal(t, []float64{3, 4}, []float64{x, y})

	// closing returns to the subpath's start
	p.ClosePath()
	x, y, _ = p.LastPoint()
	assert.Equal(t, []float64{1, 2}, []float64{x, y})
}

func TestSampleEveryUnit(t *testing.T) {
	p := NewGeometricPath()
	p.MoveTo(0, 0, 0)
	p.LineTo(5, 0)

	sampled := p.Sample(1, 0)
	// a point lands exactly on the end, so a length 5 line yields 6
	assert.Equal(t, 6, sampled.MoveToCount())
	want := []float64{0, 0, 1, 0, 2, 0, 3, 0, 4, 0, 5, 0}
	if diff := cmp.Diff(want, samplePoints(sampled), approx); diff != "" {
		t.Errorf("sampled points mismatch (-want +got):\n%s", diff)
	}
}

func TestSampleWithOffset(t *testing.T) {
	p := NewGeometricPath()
	p.MoveTo(0, 0, 0)
	p.LineTo(5, 0)

	sampled := p.Sample(2, 1)
	want := []float64{1, 0, 3, 0, 5, 0}
	if diff := cmp.Diff(want, samplePoints(sampled), approx); diff != "" {
		t.Errorf("sampled points mismatch (-want +got):\n%s", diff)
	}
}

func TestSampleNegativeSpacingWalksBackwards(t *testing.T) {
	p := NewGeometricPath()
	p.MoveTo(0, 0, 0)
	p.LineTo(5, 0)

	sampled := p.Sample(-1, 0)
	want := []float64{5, 0, 4, 0, 3, 0, 2, 0, 1, 0, 0, 0}
	if diff := cmp.Diff(want, samplePoints(sampled), approx); diff != "" {
		t.Errorf("sampled points mismatch (-want +got):\n%s", diff)
	}
}

func TestSampleAcrossCorner(t *testing.T) {
	p := NewGeometricPath()
	p.MoveTo(0, 0, 0)
	p.LineTo(3, 0)
	p.LineTo(3, 3)

	sampled := p.Sample(2, 0)
	want := []float64{0, 0, 2, 0, 3, 1, 3, 3}
	if diff := cmp.Diff(want, samplePoints(sampled), approx); diff != "" {
		t.Errorf("sampled points mismatch (-want +got):\n%s", diff)
	}
}

func TestSampleCarriesSegmentDirection(t *testing.T) {
	p := NewGeometricPath()
	p.MoveTo(0, 0, 0)
	p.LineTo(0, 4)

	sampled := p.Sample(2, 0)
	require.Equal(t, 3, sampled.MoveToCount())
	for _, sp := range sampled.subPaths {
		assert.InDelta(t, math.Pi/2, sp.rotation, 1e-9)
	}
}

func TestSampleZeroSpacingIsEmpty(t *testing.T) {
	p := unitSquare(true)
	assert.True(t, p.Sample(0, 0).IsEmpty())
}

func TestStripeHorizontal(t *testing.T) {
	p := NewGeometricPath()
	p.MoveTo(0, 0, 0)
	p.LineTo(10, 0)
	p.LineTo(10, 10)
	p.LineTo(0, 10)
	p.ClosePath()

	striped := p.Stripe(3, 0)
	// scanlines at y = 0, 3, 6, 9
	require.Equal(t, 4, striped.MoveToCount())
	want := []float64{0, 0, 10, 0, 0, 3, 10, 3, 0, 6, 10, 6, 0, 9, 10, 9}
	if diff := cmp.Diff(want, samplePoints(striped), approx); diff != "" {
		t.Errorf("stripe points mismatch (-want +got):\n%s", diff)
	}
}

func TestStripeEmptyPath(t *testing.T) {
	p := NewGeometricPath()
	assert.True(t, p.Stripe(1, 0).IsEmpty())
}

func TestReverse(t *testing.T) {
	p := NewGeometricPath()
	p.MoveTo(0, 0, 0)
	p.LineTo(1, 0)
	p.LineTo(2, 0)

	want := []float64{2, 0, 1, 0, 0, 0}
	if diff := cmp.Diff(want, samplePoints(p.Reverse()), approx); diff != "" {
		t.Errorf("reversed points mismatch (-want +got):\n%s", diff)
	}
}

func TestShift(t *testing.T) {
	p := NewGeometricPath()
	p.MoveTo(1, 1, 0)
	p.LineTo(2, 2)

	shifted := p.Shift(10, -1)
	want := []float64{11, 0, 12, 1}
	if diff := cmp.Diff(want, samplePoints(shifted), approx); diff != "" {
		t.Errorf("shifted points mismatch (-want +got):\n%s", diff)
	}
	// the original path is untouched
	assert.Equal(t, []float64{1, 1, 2, 2}, samplePoints(p))
}

func TestCopyIsIndependent(t *testing.T) {
	p := NewGeometricPath()
	p.MoveTo(0, 0, 0)
	p.LineTo(1, 0)

	c := p.Copy()
	c.LineTo(2, 0)
	assert.Equal(t, 2, p.VertexCount())
	assert.Equal(t, 3, c.VertexCount())
}

func TestToGeometry(t *testing.T) {
	open := NewGeometricPath()
	open.MoveTo(0, 0, 0)
	open.LineTo(5, 0)
	assert.Equal(t, "MULTILINESTRING ((0 0, 5 0))", open.ToGeometry().StringValue())

	closed := unitSquare(true)
	assert.Equal(t, "MULTIPOLYGON (((0 0, 1 0, 1 1, 0 1)))",
		closed.ToGeometry().StringValue())
}

func TestLineToWithoutMoveStartsSubpath(t *testing.T) {
	p := NewGeometricPath()
	p.LineTo(4, 5)
	assert.Equal(t, 1, p.MoveToCount())
	x, y, _ := p.LastPoint()
	assert.Equal(t, []float64{4, 5}, []float64{x, y})
}
