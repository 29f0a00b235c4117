package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// NewCanvas copies img into a fresh RGBA image that overlays can be drawn on.
func NewCanvas(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, img, bounds.Min, draw.Src)
	return canvas
}

// DrawLine draws a 1-pixel line from (x0,y0) to (x1,y1). Pixels outside the
// canvas are skipped.
func DrawLine(dst *image.RGBA, x0, y0, x1, y1 float64, c color.RGBA) {
	steps := int(math.Ceil(math.Max(math.Abs(x1-x0), math.Abs(y1-y0))))
	bounds := dst.Bounds()
	for i := 0; i <= steps; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}
		px := int(math.Round(x0 + (x1-x0)*t))
		py := int(math.Round(y0 + (y1-y0)*t))
		if image.Pt(px, py).In(bounds) {
			dst.SetRGBA(px, py, c)
		}
	}
}

// DrawMarker draws a filled square of the given radius centered at (x, y).
func DrawMarker(dst *image.RGBA, x, y float64, radius int, c color.RGBA) {
	cx, cy := int(math.Round(x)), int(math.Round(y))
	bounds := dst.Bounds()
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if p := image.Pt(cx+dx, cy+dy); p.In(bounds) {
				dst.SetRGBA(p.X, p.Y, c)
			}
		}
	}
}

// DrawLabel draws text on a filled background box whose top-left corner is
// at (x, y).
func DrawLabel(dst *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	drawLabel(dst, x, y, text, fg, bg)
}

// drawLabel fills a background box sized to text and renders it with the
// 7x13 bitmap face. (x, y) is the top-left corner of the box.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	box := image.Rect(x-1, y-1, x+width+1, y+face.Height+1).Intersect(img.Bounds())
	draw.Draw(img, box, image.NewUniform(bg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(x, y+face.Ascent),
	}
	d.DrawString(text)
}
