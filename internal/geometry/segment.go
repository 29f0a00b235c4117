package geometry

import (
	"image"
	"math"
)

// Point is a 2D location in pixel space. Sub-pixel precision is kept so that
// merged segments and line intersections do not accumulate rounding error.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// FromImagePoint converts an integer image.Point.
func FromImagePoint(p image.Point) Point {
	return Pt(float64(p.X), float64(p.Y))
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Scale returns p*k.
func (p Point) Scale(k float64) Point { return Point{X: p.X * k, Y: p.Y * k} }

// Dot returns the dot product of p and q treated as vectors.
func (p Point) Dot(q Point) float64 { return p.X*q.X + p.Y*q.Y }

// Cross returns the z component of the cross product of p and q.
func (p Point) Cross(q Point) float64 { return p.X*q.Y - p.Y*q.X }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Segment is a straight piece of line evidence between two endpoints.
//
// Segments are values: every operation that changes geometry returns a new
// Segment, so a slice of segments handed to another stage can never be
// modified behind the caller's back.
type Segment struct {
	A Point `json:"a"`
	B Point `json:"b"`
}

// Seg builds a segment from raw endpoint coordinates.
func Seg(x1, y1, x2, y2 float64) Segment {
	return Segment{A: Point{X: x1, Y: y1}, B: Point{X: x2, Y: y2}}
}

// Length returns the Euclidean length of the segment.
func (s Segment) Length() float64 {
	return s.A.Dist(s.B)
}

// Midpoint returns the center of the segment.
func (s Segment) Midpoint() Point {
	return Point{X: (s.A.X + s.B.X) / 2, Y: (s.A.Y + s.B.Y) / 2}
}

// Direction returns the unit vector from A to B. A zero-length segment
// yields the zero vector.
func (s Segment) Direction() Point {
	d := s.B.Sub(s.A)
	l := math.Hypot(d.X, d.Y)
	if l == 0 {
		return Point{}
	}
	return d.Scale(1 / l)
}

// Angle returns the direction angle in degrees, normalized to [-90, 90).
// Image Y grows downward, so a segment rising to the right has a negative angle.
func (s Segment) Angle() float64 {
	return NormalizeAngle(math.Atan2(s.B.Y-s.A.Y, s.B.X-s.A.X) * 180 / math.Pi)
}

// DistanceToLine returns the perpendicular distance from p to the infinite
// line through s. For a degenerate segment it is the distance to A.
func (s Segment) DistanceToLine(p Point) float64 {
	d := s.B.Sub(s.A)
	l := math.Hypot(d.X, d.Y)
	if l == 0 {
		return p.Dist(s.A)
	}
	return math.Abs(d.Cross(p.Sub(s.A))) / l
}

// Translate returns s shifted by (dx, dy).
func (s Segment) Translate(dx, dy float64) Segment {
	off := Point{X: dx, Y: dy}
	return Segment{A: s.A.Add(off), B: s.B.Add(off)}
}

// Endpoints returns both endpoints as an array.
func (s Segment) Endpoints() [2]Point {
	return [2]Point{s.A, s.B}
}

// EndpointGap returns the smallest distance between any endpoint of s and any
// endpoint of o.
func (s Segment) EndpointGap(o Segment) float64 {
	best := math.Inf(1)
	for _, p := range s.Endpoints() {
		for _, q := range o.Endpoints() {
			if d := p.Dist(q); d < best {
				best = d
			}
		}
	}
	return best
}

// NormalizeAngle folds an angle in degrees into [-90, 90). Lines are
// undirected, so θ and θ±180 describe the same line.
func NormalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 180)
	if a < -90 {
		a += 180
	} else if a >= 90 {
		a -= 180
	}
	return a
}

// AngleBetween returns the undirected angle between the lines carrying a and
// b, in degrees within [0, 90].
func AngleBetween(a, b Segment) float64 {
	d := math.Abs(a.Angle() - b.Angle())
	if d > 90 {
		d = 180 - d
	}
	return d
}

// Intersect returns the intersection of the infinite lines through a and b.
// ok is false when the lines are parallel (or either segment is degenerate).
func Intersect(a, b Segment) (p Point, ok bool) {
	r := a.B.Sub(a.A)
	q := b.B.Sub(b.A)
	den := r.Cross(q)
	if math.Abs(den) < 1e-9 {
		return Point{}, false
	}
	t := b.A.Sub(a.A).Cross(q) / den
	return a.A.Add(r.Scale(t)), true
}
