package detection

import (
	"image"

	"github.com/ironsheep/plate-rectify/internal/geometry"
	"github.com/ironsheep/plate-rectify/internal/imaging"
)

// Contour is the largest foreground component of a binarized region.
type Contour struct {
	// Bounds is the bounding rectangle in the input's coordinate space.
	Bounds image.Rectangle `json:"bounds"`

	// Corners are the component's extreme points (min x+y, min y-x,
	// max x+y, max y-x), usable as a rough quadrilateral.
	Corners [4]geometry.Point `json:"corners"`

	// Area is the component's pixel count.
	Area int `json:"area"`
}

// LargestContour binarizes img the same way the line extractor does and
// returns its largest connected foreground component.
//
// Components whose bounding box covers at least cfg.MaxContourCoverage of
// the image are ignored: on a blank or saturated region the whole frame
// would otherwise win. Returns false when no component qualifies.
func LargestContour(img image.Image, cfg Config) (*Contour, bool) {
	if img == nil || img.Bounds().Empty() {
		return nil, false
	}
	bounds := img.Bounds()
	regionArea := float64(bounds.Dx() * bounds.Dy())

	binary := BinarizeRegion(img, cfg)
	components := imaging.FindComponents(binary, cfg.MinContourPixels)

	best := -1
	for i, c := range components {
		coverage := float64(c.Bounds.Dx()*c.Bounds.Dy()) / regionArea
		if coverage >= cfg.MaxContourCoverage {
			continue
		}
		if best < 0 || c.Area() > components[best].Area() {
			best = i
		}
	}
	if best < 0 {
		return nil, false
	}

	c := components[best]
	return &Contour{
		Bounds:  c.Bounds.Add(bounds.Min),
		Corners: extremePoints(c.Pixels, bounds.Min),
		Area:    c.Area(),
	}, true
}

func extremePoints(pixels []image.Point, offset image.Point) [4]geometry.Point {
	tl, tr, br, bl := pixels[0], pixels[0], pixels[0], pixels[0]
	for _, p := range pixels[1:] {
		if p.X+p.Y < tl.X+tl.Y {
			tl = p
		}
		if p.Y-p.X < tr.Y-tr.X {
			tr = p
		}
		if p.X+p.Y > br.X+br.Y {
			br = p
		}
		if p.Y-p.X > bl.Y-bl.X {
			bl = p
		}
	}
	var out [4]geometry.Point
	for i, p := range [4]image.Point{tl, tr, br, bl} {
		out[i] = geometry.FromImagePoint(p.Add(offset))
	}
	return out
}
