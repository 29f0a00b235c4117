package rectify

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/plate-rectify/internal/geometry"
)

// rotatedRect returns the corners (TL, TR, BR, BL before rotation) of a w x h
// rectangle scaled by s and rotated by deg degrees about (cx, cy).
func rotatedRect(w, h, s, deg, cx, cy float64) [4]geometry.Point {
	rad := deg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	var out [4]geometry.Point
	for i, p := range [4]geometry.Point{{X: -w / 2, Y: -h / 2}, {X: w / 2, Y: -h / 2}, {X: w / 2, Y: h / 2}, {X: -w / 2, Y: h / 2}} {
		x, y := p.X*s, p.Y*s
		out[i] = geometry.Point{X: cx + x*cos - y*sin, Y: cy + x*sin + y*cos}
	}
	return out
}

// fillQuad paints the convex quadrilateral q white on a black canvas.
func fillQuad(width, height int, q [4]geometry.Point) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := geometry.Point{X: float64(x), Y: float64(y)}
			inside := true
			for i := 0; i < 4; i++ {
				a, b := q[i], q[(i+1)%4]
				if b.Sub(a).Cross(p.Sub(a)) < 0 {
					inside = false
					break
				}
			}
			if inside {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

func TestSolveHomography_MapsCorners(t *testing.T) {
	src := [4]geometry.Point{{X: 12, Y: 30}, {X: 310, Y: 5}, {X: 330, Y: 140}, {X: 2, Y: 120}}
	dst := [4]geometry.Point{{X: 0, Y: 0}, {X: 299, Y: 0}, {X: 299, Y: 99}, {X: 0, Y: 99}}

	h, err := SolveHomography(src, dst)
	require.NoError(t, err)

	for i := range src {
		got, ok := h.Apply(src[i])
		require.True(t, ok)
		assert.InDelta(t, dst[i].X, got.X, 1e-6)
		assert.InDelta(t, dst[i].Y, got.Y, 1e-6)
	}
}

// squareToQuad is the closed-form projective map of the unit square onto q
// (Heckbert, "Fundamentals of Texture Mapping", 1989).
func squareToQuad(q [4]geometry.Point, u, v float64) geometry.Point {
	x0, y0 := q[0].X, q[0].Y
	x1, y1 := q[1].X, q[1].Y
	x2, y2 := q[2].X, q[2].Y
	x3, y3 := q[3].X, q[3].Y

	dx1, dx2, dx3 := x1-x2, x3-x2, x0-x1+x2-x3
	dy1, dy2, dy3 := y1-y2, y3-y2, y0-y1+y2-y3
	den := dx1*dy2 - dx2*dy1
	g := (dx3*dy2 - dx2*dy3) / den
	h := (dx1*dy3 - dx3*dy1) / den

	a, b, c := x1-x0+g*x1, x3-x0+h*x3, x0
	d, e, f := y1-y0+g*y1, y3-y0+h*y3, y0
	w := g*u + h*v + 1
	return geometry.Point{X: (a*u + b*v + c) / w, Y: (d*u + e*v + f) / w}
}

func TestSolveHomography_MatchesClosedForm(t *testing.T) {
	square := [4]geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	quads := [][4]geometry.Point{
		{{X: 10, Y: 10}, {X: 210, Y: 30}, {X: 190, Y: 110}, {X: 20, Y: 90}},
		{{X: 0, Y: 0}, {X: 400, Y: 0}, {X: 400, Y: 150}, {X: 0, Y: 150}},
		rotatedRect(200, 80, 1, 17, 300, 300),
	}

	for _, q := range quads {
		h, err := SolveHomography(square, q)
		require.NoError(t, err)

		for _, uv := range [][2]float64{{0.5, 0.5}, {0.25, 0.75}, {0.9, 0.1}, {0, 1}} {
			want := squareToQuad(q, uv[0], uv[1])
			got, ok := h.Apply(geometry.Point{X: uv[0], Y: uv[1]})
			require.True(t, ok)
			assert.InDelta(t, want.X, got.X, 1e-6)
			assert.InDelta(t, want.Y, got.Y, 1e-6)
		}
	}
}

func TestSolveHomography_Degenerate(t *testing.T) {
	dst := [4]geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}

	collinear := [4]geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}}
	_, err := SolveHomography(collinear, dst)
	assert.ErrorIs(t, err, geometry.ErrDegenerate)

	same := [4]geometry.Point{{X: 5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 5}}
	_, err = SolveHomography(same, dst)
	assert.ErrorIs(t, err, geometry.ErrDegenerate)
}

func TestOutputSize(t *testing.T) {
	c := geometry.CornerSet{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 110, Y: 40.7}, {X: 5, Y: 40}}
	w, h := OutputSize(c)
	assert.Equal(t, 105, w)
	assert.Equal(t, 41, h)

	w, h = OutputSize(geometry.CornerSet{})
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}

func TestRectify_RoundTrip(t *testing.T) {
	const w, h = 200.0, 80.0
	for _, deg := range []float64{0, 10, -15, 25} {
		for _, s := range []float64{0.75, 1, 1.3} {
			q := rotatedRect(w, h, s, deg, 250, 250)
			img := fillQuad(500, 500, q)

			c, err := geometry.Canonicalize(q, 1)
			require.NoError(t, err)

			out, err := New(DefaultConfig()).Rectify(img, c)
			require.NoError(t, err)

			b := out.Bounds()
			ratio := float64(b.Dx()) / float64(b.Dy())
			assert.InDelta(t, w/h, ratio, w/h*0.02, "deg=%v s=%v", deg, s)
			assert.InDelta(t, w*s, float64(b.Dx()), 1.01, "deg=%v s=%v", deg, s)

			center := out.NRGBAAt(b.Dx()/2, b.Dy()/2)
			assert.Equal(t, uint8(255), center.R, "deg=%v s=%v", deg, s)
		}
	}
}

func TestRectify_OutOfBoundsIsBlack(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	c := geometry.CornerSet{{X: 25, Y: 25}, {X: 125, Y: 25}, {X: 125, Y: 75}, {X: 25, Y: 75}}

	for _, mode := range []string{Bilinear, Nearest} {
		out, err := New(Config{Interpolation: mode}).Rectify(img, c)
		require.NoError(t, err)
		assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, out.NRGBAAt(5, 5), mode)
		assert.Equal(t, color.NRGBA{A: 255}, out.NRGBAAt(90, 40), mode)
	}
}

func TestRectify_SubImageCoordinates(t *testing.T) {
	img := fillQuad(300, 200, [4]geometry.Point{{X: 100, Y: 50}, {X: 200, Y: 50}, {X: 200, Y: 100}, {X: 100, Y: 100}})
	sub := img.SubImage(image.Rect(80, 40, 220, 120))
	c := geometry.CornerSet{{X: 110, Y: 60}, {X: 190, Y: 60}, {X: 190, Y: 90}, {X: 110, Y: 90}}

	out, err := New(DefaultConfig()).Rectify(sub, c)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 80, 30), out.Bounds())
	assert.Equal(t, uint8(255), out.NRGBAAt(40, 15).R)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{Interpolation: "cubic"}.Validate())
}
