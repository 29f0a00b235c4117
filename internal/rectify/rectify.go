package rectify

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/ironsheep/plate-rectify/internal/geometry"
)

// Interpolation modes accepted by Config.Interpolation.
const (
	Bilinear = "bilinear"
	Nearest  = "nearest"
)

// Config controls resampling.
type Config struct {
	// Interpolation is bilinear (default) or nearest.
	Interpolation string `yaml:"interpolation"`
}

// DefaultConfig returns bilinear resampling.
func DefaultConfig() Config {
	return Config{Interpolation: Bilinear}
}

// Validate checks the interpolation name.
func (c Config) Validate() error {
	switch c.Interpolation {
	case Bilinear, Nearest:
		return nil
	}
	return errors.Errorf("unknown interpolation %q", c.Interpolation)
}

// OutputSize returns the rectified dimensions for c: the longer of the top
// and bottom edges by the longer of the left and right edges, rounded down
// and never below 1.
func OutputSize(c geometry.CornerSet) (width, height int) {
	top := c[geometry.TopLeft].Dist(c[geometry.TopRight])
	bottom := c[geometry.BottomLeft].Dist(c[geometry.BottomRight])
	left := c[geometry.TopLeft].Dist(c[geometry.BottomLeft])
	right := c[geometry.TopRight].Dist(c[geometry.BottomRight])

	width = int(math.Floor(math.Max(top, bottom)))
	height = int(math.Floor(math.Max(left, right)))
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return width, height
}

// Rectifier warps a quadrilateral onto an axis-aligned rectangle.
type Rectifier struct {
	cfg Config
}

// New creates a rectifier.
func New(cfg Config) *Rectifier {
	return &Rectifier{cfg: cfg}
}

// Rectify maps the quadrilateral c of img (canonical order, img coordinates)
// onto a new OutputSize(c) image. Corner TL lands on (0, 0) and BR on
// (W-1, H-1). Samples falling outside img are black.
func (r *Rectifier) Rectify(img image.Image, c geometry.CornerSet) (*image.NRGBA, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("empty source image")
	}
	width, height := OutputSize(c)

	dw := math.Max(float64(width-1), 1)
	dh := math.Max(float64(height-1), 1)
	dst := [4]geometry.Point{{X: 0, Y: 0}, {X: dw, Y: 0}, {X: dw, Y: dh}, {X: 0, Y: dh}}

	// Solve destination to source directly so no matrix inverse is needed.
	origin := img.Bounds().Min
	h, err := SolveHomography(dst, c.Translate(-float64(origin.X), -float64(origin.Y)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to solve perspective transform")
	}

	src := imaging.Clone(img)
	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	sample := bilinear
	if r.cfg.Interpolation == Nearest {
		sample = nearest
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p, ok := h.Apply(geometry.Point{X: float64(x), Y: float64(y)})
			i := out.PixOffset(x, y)
			if !ok {
				out.Pix[i+3] = 0xff
				continue
			}
			px := sample(src, p.X, p.Y)
			copy(out.Pix[i:i+4], px[:])
		}
	}
	return out, nil
}

var black = [4]uint8{0, 0, 0, 0xff}

// at returns the NRGBA pixel at (x, y), black outside the image.
func at(img *image.NRGBA, x, y int) [4]uint8 {
	b := img.Bounds()
	if x < b.Min.X || y < b.Min.Y || x >= b.Max.X || y >= b.Max.Y {
		return black
	}
	i := img.PixOffset(x, y)
	return [4]uint8{img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]}
}

func nearest(img *image.NRGBA, x, y float64) [4]uint8 {
	return at(img, int(math.Round(x)), int(math.Round(y)))
}

func bilinear(img *image.NRGBA, x, y float64) [4]uint8 {
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)

	p00 := at(img, ix, iy)
	p10 := at(img, ix+1, iy)
	p01 := at(img, ix, iy+1)
	p11 := at(img, ix+1, iy+1)

	var out [4]uint8
	for k := 0; k < 4; k++ {
		top := float64(p00[k])*(1-fx) + float64(p10[k])*fx
		bottom := float64(p01[k])*(1-fx) + float64(p11[k])*fx
		v := top*(1-fy) + bottom*fy
		out[k] = uint8(math.Max(0, math.Min(255, math.Round(v))))
	}
	return out
}
