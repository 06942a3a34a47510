package mapyrus

import "math"

// geometric comparisons tolerate this much floating point error
const geometryTolerance = 1e-10

type pathPoint struct {
	x, y float64
}

// one moveto-started run of vertices within a GeometricPath
type subPath struct {
	points   []pathPoint
	rotation float64
	closed   bool
}

// GeometricPath accumulates the vertices of the shape currently being
// drawn: an ordered list of subpaths, each starting with a moveto
// (carrying a rotation angle for later labelling) followed by linetos
// and optionally closed back to its start.
type GeometricPath struct {
	subPaths []subPath
}

// NewGeometricPath returns a new, empty path.
func NewGeometricPath() *GeometricPath {
	return &GeometricPath{}
}

// Copy returns a deep copy of the path, used when a pushed context
// first modifies the path it inherited.
func (p *GeometricPath) Copy() *GeometricPath {
	c := &GeometricPath{subPaths: make([]subPath, len(p.subPaths))}
	for i, sp := range p.subPaths {
		c.subPaths[i] = subPath{
			points:   append([]pathPoint(nil), sp.points...),
			rotation: sp.rotation,
			closed:   sp.closed,
		}
	}
	return c
}

// MoveTo begins a new subpath at (x, y). The rotation angle, in
// radians, is kept with the point for symbols and labels drawn along
// the path.
func (p *GeometricPath) MoveTo(x, y, rotation float64) {
	p.subPaths = append(p.subPaths, subPath{
		points:   []pathPoint{{x, y}},
		rotation: rotation,
	})
}

// LineTo appends a straight segment to (x, y). With no subpath begun
// it starts one, as if MoveTo had been called.
func (p *GeometricPath) LineTo(x, y float64) {
	if len(p.subPaths) == 0 || p.subPaths[len(p.subPaths)-1].closed {
		p.MoveTo(x, y, 0)
		return
	}
	sp := &p.subPaths[len(p.subPaths)-1]
	sp.points = append(sp.points, pathPoint{x, y})
}

// ClosePath closes the current subpath back to its moveto point.
func (p *GeometricPath) ClosePath() {
	if len(p.subPaths) > 0 {
		p.subPaths[len(p.subPaths)-1].closed = true
	}
}

// Reset discards all subpaths.
func (p *GeometricPath) Reset() {
	p.subPaths = nil
}

// IsEmpty reports whether the path has no vertices.
func (p *GeometricPath) IsEmpty() bool {
	return len(p.subPaths) == 0
}

// VertexCount returns the total number of vertices in the path.
func (p *GeometricPath) VertexCount() int {
	n := 0
	for _, sp := range p.subPaths {
		n += len(sp.points)
	}
	return n
}

// MoveToCount returns the number of subpaths.
func (p *GeometricPath) MoveToCount() int {
	return len(p.subPaths)
}

// LastPoint returns the end point of the path, the point the next
// segment would continue from. ok is false for an empty path.
func (p *GeometricPath) LastPoint() (x, y float64, ok bool) {
	if len(p.subPaths) == 0 {
		return 0, 0, false
	}
	sp := p.subPaths[len(p.subPaths)-1]
	pt := sp.points[len(sp.points)-1]
	if sp.closed {
		pt = sp.points[0]
	}
	return pt.x, pt.y, true
}

// walk visits every segment of every subpath, treating a close as an
// implicit lineto back to the subpath's moveto point. The visitor
// receives the subpath index with each segment.
func (p *GeometricPath) walk(visit func(sub int, x1, y1, x2, y2 float64)) {
	for i, sp := range p.subPaths {
		for j := 1; j < len(sp.points); j++ {
			a, b := sp.points[j-1], sp.points[j]
			visit(i, a.x, a.y, b.x, b.y)
		}
		if sp.closed && len(sp.points) > 1 {
			a, b := sp.points[len(sp.points)-1], sp.points[0]
			visit(i, a.x, a.y, b.x, b.y)
		}
	}
}

// Length returns the total Euclidean length of the path, including
// the closing segment of closed subpaths.
func (p *GeometricPath) Length() float64 {
	total := 0.0
	p.walk(func(_ int, x1, y1, x2, y2 float64) {
		total += math.Hypot(x2-x1, y2-y1)
	})
	return total
}

// Area returns the sum of the shoelace signed areas of the subpaths.
// Counter-clockwise subpaths contribute positive area, clockwise
// negative, so holes wound the opposite way subtract. The result is
// only meaningful when the subpaths are closed.
func (p *GeometricPath) Area() float64 {
	total := 0.0
	p.walk(func(_ int, x1, y1, x2, y2 float64) {
		total += (x1*y2 - x2*y1) / 2
	})
	return total
}

// Centroid returns the area-weighted centroid of the closed subpaths.
// A degenerate (zero area) path yields (0, 0).
func (p *GeometricPath) Centroid() (float64, float64) {
	var sumX, sumY, area float64
	p.walk(func(_ int, x1, y1, x2, y2 float64) {
		cross := x1*y2 - x2*y1
		sumX += (x1 + x2) * cross
		sumY += (y1 + y2) * cross
		area += cross / 2
	})
	if math.Abs(area) < geometryTolerance {
		return 0, 0
	}
	return sumX / (6 * area), sumY / (6 * area)
}

// Bounds returns the bounding box of the path's vertices. An empty
// path yields a zero box.
func (p *GeometricPath) Bounds() (xMin, yMin, xMax, yMax float64) {
	first := true
	for _, sp := range p.subPaths {
		for _, pt := range sp.points {
			if first {
				xMin, yMin, xMax, yMax = pt.x, pt.y, pt.x, pt.y
				first = false
				continue
			}
			xMin = math.Min(xMin, pt.x)
			yMin = math.Min(yMin, pt.y)
			xMax = math.Max(xMax, pt.x)
			yMax = math.Max(yMax, pt.y)
		}
	}
	return
}

// Sample returns a new path containing only moveto points spaced
// spacing apart along each subpath, beginning offset in from its
// start. A point landing exactly on the subpath's end (within
// tolerance) is included. Negative spacing measures backwards from
// the subpath's end instead, yielding the same points a reversed
// path would, in reverse order. Each sampled point carries the
// direction of its segment as its rotation angle.
func (p *GeometricPath) Sample(spacing, offset float64) *GeometricPath {
	result := NewGeometricPath()
	if spacing == 0 {
		return result
	}

	for i := range p.subPaths {
		segs := p.subPathSegments(i)
		subLen := 0.0
		for _, s := range segs {
			subLen += s.length
		}
		if len(segs) == 0 {
			continue
		}

		if spacing > 0 {
			for t := offset; t <= subLen+geometryTolerance; t += spacing {
				result.addSampleAt(segs, t)
			}
		} else {
			for t := subLen - offset; t >= -geometryTolerance; t += spacing {
				result.addSampleAt(segs, t)
			}
		}
	}
	return result
}

type pathSegment struct {
	x1, y1, x2, y2 float64
	start, length  float64
}

// subPathSegments flattens one subpath into segments annotated with
// their cumulative start distance.
func (p *GeometricPath) subPathSegments(index int) []pathSegment {
	var segs []pathSegment
	at := 0.0
	p.walk(func(sub int, x1, y1, x2, y2 float64) {
		if sub != index {
			return
		}
		l := math.Hypot(x2-x1, y2-y1)
		segs = append(segs, pathSegment{x1, y1, x2, y2, at, l})
		at += l
	})
	return segs
}

// addSampleAt appends the point at distance t along the flattened
// segments as a moveto, with the segment's direction as rotation.
func (p *GeometricPath) addSampleAt(segs []pathSegment, t float64) {
	if t < -geometryTolerance {
		return
	}
	if t < 0 {
		t = 0
	}
	for i, s := range segs {
		end := s.start + s.length
		last := i == len(segs)-1
		if t <= end+geometryTolerance || last {
			if t > end {
				t = end
			}
			frac := 0.0
			if s.length > 0 {
				frac = (t - s.start) / s.length
			}
			x := s.x1 + (s.x2-s.x1)*frac
			y := s.y1 + (s.y2-s.y1)*frac
			p.MoveTo(x, y, math.Atan2(s.y2-s.y1, s.x2-s.x1))
			return
		}
	}
}

// Stripe returns a new path of parallel lines crossing the path's
// bounding box, spacing apart, at the given angle in radians. The
// lines cover the bounding box only; clipping them to the polygon
// interior is the output driver's concern.
func (p *GeometricPath) Stripe(spacing, angle float64) *GeometricPath {
	result := NewGeometricPath()
	if p.IsEmpty() || spacing <= 0 {
		return result
	}

	xMin, yMin, xMax, yMax := p.Bounds()
	sin, cos := math.Sincos(-angle)

	// rotate the box corners by -angle and take the covering
	// axis-aligned box
	corners := [4][2]float64{
		{xMin, yMin}, {xMax, yMin}, {xMax, yMax}, {xMin, yMax},
	}
	rxMin, ryMin := math.Inf(1), math.Inf(1)
	rxMax, ryMax := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		rx := c[0]*cos - c[1]*sin
		ry := c[0]*sin + c[1]*cos
		rxMin = math.Min(rxMin, rx)
		ryMin = math.Min(ryMin, ry)
		rxMax = math.Max(rxMax, rx)
		ryMax = math.Max(ryMax, ry)
	}

	// horizontal scanlines across the rotated box, rotated back
	backSin, backCos := math.Sincos(angle)
	for y := ryMin; y <= ryMax+geometryTolerance; y += spacing {
		x1, y1 := rxMin*backCos-y*backSin, rxMin*backSin+y*backCos
		x2, y2 := rxMax*backCos-y*backSin, rxMax*backSin+y*backCos
		result.MoveTo(x1, y1, angle)
		result.LineTo(x2, y2)
	}
	return result
}

// Reverse returns a new path with each subpath's vertices in the
// opposite order.
func (p *GeometricPath) Reverse() *GeometricPath {
	result := NewGeometricPath()
	for _, sp := range p.subPaths {
		rev := subPath{
			points:   make([]pathPoint, len(sp.points)),
			rotation: sp.rotation,
			closed:   sp.closed,
		}
		for i, pt := range sp.points {
			rev.points[len(sp.points)-1-i] = pt
		}
		result.subPaths = append(result.subPaths, rev)
	}
	return result
}

// Shift returns a new path with every vertex translated by (dx, dy).
func (p *GeometricPath) Shift(dx, dy float64) *GeometricPath {
	result := p.Copy()
	for i := range result.subPaths {
		for j := range result.subPaths[i].points {
			result.subPaths[i].points[j].x += dx
			result.subPaths[i].points[j].y += dy
		}
	}
	return result
}

// ToGeometry converts the path to a geometry Argument: a multi-line
// string, or a multi-polygon when every subpath is closed.
func (p *GeometricPath) ToGeometry() *Argument {
	coords := []float64{0}
	pairs := 0
	allClosed := len(p.subPaths) > 0
	for _, sp := range p.subPaths {
		if !sp.closed {
			allClosed = false
		}
		for i, pt := range sp.points {
			flag := SegmentLineTo
			if i == 0 {
				flag = SegmentMoveTo
			}
			coords = append(coords, flag, pt.x, pt.y)
			pairs++
		}
	}
	coords[0] = float64(pairs)

	atype := GeometryMultiLineString
	if allClosed {
		atype = GeometryMultiPolygon
	}
	return NewGeometryArgument(atype, coords)
}
