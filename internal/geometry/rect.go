package geometry

import (
	"image"
	"math"
)

// Rect is an axis-aligned rectangle with float coordinates. Min is inclusive
// and Max is the far corner; an empty Rect has Max <= Min on either axis.
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// BoundsOf returns the tightest Rect around pts. It returns the zero Rect for
// an empty slice.
func BoundsOf(pts []Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	r := Rect{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		r.Min.X = math.Min(r.Min.X, p.X)
		r.Min.Y = math.Min(r.Min.Y, p.Y)
		r.Max.X = math.Max(r.Max.X, p.X)
		r.Max.Y = math.Max(r.Max.Y, p.Y)
	}
	return r
}

// Dx returns the width.
func (r Rect) Dx() float64 { return r.Max.X - r.Min.X }

// Dy returns the height.
func (r Rect) Dy() float64 { return r.Max.Y - r.Min.Y }

// Area returns width*height, or 0 for empty rectangles.
func (r Rect) Area() float64 {
	if r.Empty() {
		return 0
	}
	return r.Dx() * r.Dy()
}

// Empty reports whether r encloses no area.
func (r Rect) Empty() bool {
	return r.Max.X <= r.Min.X || r.Max.Y <= r.Min.Y
}

// Aspect returns width/height, or 0 when the rectangle has no height.
func (r Rect) Aspect() float64 {
	if r.Dy() <= 0 {
		return 0
	}
	return r.Dx() / r.Dy()
}

// Corners returns the four corners of r in TL, TR, BR, BL order.
func (r Rect) Corners() CornerSet {
	return CornerSet{
		Pt(r.Min.X, r.Min.Y),
		Pt(r.Max.X, r.Min.Y),
		Pt(r.Max.X, r.Max.Y),
		Pt(r.Min.X, r.Max.Y),
	}
}

// ImageRect converts r to an integer rectangle covering it (floor of Min,
// ceil of Max).
func (r Rect) ImageRect() image.Rectangle {
	return image.Rect(
		int(math.Floor(r.Min.X)), int(math.Floor(r.Min.Y)),
		int(math.Ceil(r.Max.X)), int(math.Ceil(r.Max.Y)),
	)
}

// RectFromImage converts an integer image rectangle.
func RectFromImage(r image.Rectangle) Rect {
	return Rect{Min: FromImagePoint(r.Min), Max: FromImagePoint(r.Max)}
}
