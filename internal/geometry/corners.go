package geometry

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// ErrDegenerate reports a corner set that cannot describe a usable
// quadrilateral: near-zero area, collinear or repeated points, or a
// self-intersecting outline.
var ErrDegenerate = errors.New("degenerate geometry")

// Corner indices into a CornerSet.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// CornerSet holds four quadrilateral vertices in TL, TR, BR, BL order.
// Values produced by Canonicalize always describe a simple polygon.
type CornerSet [4]Point

// Area returns the absolute polygon area (shoelace formula).
func (c CornerSet) Area() float64 {
	return PolygonArea(c[:])
}

// Bounds returns the axis-aligned bounding rectangle of the corners.
func (c CornerSet) Bounds() Rect {
	return BoundsOf(c[:])
}

// Edges returns the four edges TL→TR, TR→BR, BR→BL, BL→TL.
func (c CornerSet) Edges() [4]Segment {
	return [4]Segment{
		{A: c[TopLeft], B: c[TopRight]},
		{A: c[TopRight], B: c[BottomRight]},
		{A: c[BottomRight], B: c[BottomLeft]},
		{A: c[BottomLeft], B: c[TopLeft]},
	}
}

// IsSimple reports whether the outline does not cross itself. Only the two
// pairs of opposite edges can intersect in a quadrilateral.
func (c CornerSet) IsSimple() bool {
	e := c.Edges()
	return !segmentsCross(e[0], e[2]) && !segmentsCross(e[1], e[3])
}

// Translate returns the corner set shifted by (dx, dy).
func (c CornerSet) Translate(dx, dy float64) CornerSet {
	var out CornerSet
	for i, p := range c {
		out[i] = Point{X: p.X + dx, Y: p.Y + dy}
	}
	return out
}

// Canonicalize orders four points as TL, TR, BR, BL.
//
// The primary rule is the sum/difference sort: TL has the smallest x+y, BR the
// largest x+y, TR the smallest y-x and BL the largest y-x. Ties are broken on
// the coordinates themselves, so any permutation of the same input yields the
// same assignment. When the rule hands one point two roles (a square rotated
// close to 45°), the points are instead ordered clockwise about their
// centroid, starting from the top-left candidate.
//
// The result is rejected with ErrDegenerate if its area is below minArea or
// its outline self-intersects.
func Canonicalize(pts [4]Point, minArea float64) (CornerSet, error) {
	for _, p := range pts {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return CornerSet{}, errors.Wrap(ErrDegenerate, "corner coordinates are not finite")
		}
	}

	tl := extreme(pts, func(p Point) float64 { return p.X + p.Y }, false)
	br := extreme(pts, func(p Point) float64 { return p.X + p.Y }, true)
	tr := extreme(pts, func(p Point) float64 { return p.Y - p.X }, false)
	bl := extreme(pts, func(p Point) float64 { return p.Y - p.X }, true)

	var c CornerSet
	if distinct(tl, tr, br, bl) {
		c = CornerSet{pts[tl], pts[tr], pts[br], pts[bl]}
	}
	if !distinct(tl, tr, br, bl) || !c.IsSimple() {
		c = clockwise(pts, pts[tl])
	}

	if area := c.Area(); area < minArea || area == 0 {
		return CornerSet{}, errors.Wrapf(ErrDegenerate, "corner area %.2f below minimum %.2f", area, minArea)
	}
	if !c.IsSimple() {
		return CornerSet{}, errors.Wrap(ErrDegenerate, "corner outline self-intersects")
	}
	return c, nil
}

// extreme returns the index of the point minimizing (or maximizing) key.
// Equal keys fall back to comparing X then Y so that the winner does not
// depend on input order.
func extreme(pts [4]Point, key func(Point) float64, max bool) int {
	best := 0
	for i := 1; i < len(pts); i++ {
		ki, kb := key(pts[i]), key(pts[best])
		if max {
			ki, kb = -ki, -kb
		}
		switch {
		case ki < kb:
			best = i
		case ki == kb && lessXY(pts[i], pts[best]):
			best = i
		}
	}
	return best
}

func lessXY(a, b Point) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

func distinct(idx ...int) bool {
	seen := make(map[int]bool, len(idx))
	for _, i := range idx {
		if seen[i] {
			return false
		}
		seen[i] = true
	}
	return true
}

// clockwise orders pts by angle about their centroid. With Y pointing down an
// ascending atan2 sweep runs clockwise on screen.
func clockwise(pts [4]Point, first Point) CornerSet {
	var cx, cy float64
	for _, p := range pts {
		cx += p.X / 4
		cy += p.Y / 4
	}
	sorted := pts
	sort.SliceStable(sorted[:], func(i, j int) bool {
		ai := math.Atan2(sorted[i].Y-cy, sorted[i].X-cx)
		aj := math.Atan2(sorted[j].Y-cy, sorted[j].X-cx)
		if ai != aj {
			return ai < aj
		}
		return lessXY(sorted[i], sorted[j])
	})

	start := 0
	for i, p := range sorted {
		if p == first {
			start = i
			break
		}
	}
	var c CornerSet
	for i := range c {
		c[i] = sorted[(start+i)%4]
	}
	return c
}

// PolygonArea returns the absolute area enclosed by pts taken in order.
func PolygonArea(pts []Point) float64 {
	return math.Abs(signedArea(pts))
}

func signedArea(pts []Point) float64 {
	var sum float64
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].Cross(pts[j])
	}
	return sum / 2
}

// segmentsCross reports a proper crossing of a and b; touching endpoints do
// not count.
func segmentsCross(a, b Segment) bool {
	d1 := orient(b.A, b.B, a.A)
	d2 := orient(b.A, b.B, a.B)
	d3 := orient(a.A, a.B, b.A)
	d4 := orient(a.A, a.B, b.B)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func orient(a, b, c Point) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}
