package rectify

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/plate-rectify/internal/geometry"
)

// Homography is a 3x3 planar projective transform in row-major order,
// scaled so that the last element is 1.
type Homography [9]float64

// Apply maps p through h. ok is false when p maps to infinity.
func (h Homography) Apply(p geometry.Point) (q geometry.Point, ok bool) {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if math.Abs(w) < 1e-12 {
		return geometry.Point{}, false
	}
	return geometry.Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}, true
}

// SolveHomography returns the transform mapping each src point onto the
// dst point with the same index.
//
// Both point sets are first normalized (centroid at the origin, mean
// distance sqrt(2)) so the 8x8 linear system stays well conditioned for
// pixel-scale coordinates. Coincident or collinear configurations return an
// error wrapping geometry.ErrDegenerate.
func SolveHomography(src, dst [4]geometry.Point) (Homography, error) {
	var h Homography

	srcN, tSrc, err := normalize(src)
	if err != nil {
		return h, err
	}
	dstN, tDst, err := normalize(dst)
	if err != nil {
		return h, err
	}

	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := srcN[i].X, srcN[i].Y
		u, v := dstN[i].X, dstN[i].Y
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -x * u, -y * u})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -x * v, -y * v})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}

	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		return h, errors.Wrapf(geometry.ErrDegenerate, "homography system: %v", err)
	}

	hn := mat.NewDense(3, 3, []float64{
		sol.AtVec(0), sol.AtVec(1), sol.AtVec(2),
		sol.AtVec(3), sol.AtVec(4), sol.AtVec(5),
		sol.AtVec(6), sol.AtVec(7), 1,
	})

	// H = inv(tDst) * hn * tSrc
	var tmp, full mat.Dense
	tmp.Mul(hn, tSrc)
	full.Mul(inverseSimilarity(tDst), &tmp)

	scale := full.At(2, 2)
	if math.Abs(scale) < 1e-12 {
		return h, errors.Wrap(geometry.ErrDegenerate, "homography maps the origin to infinity")
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			h[3*r+c] = full.At(r, c) / scale
		}
	}
	for _, v := range h {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return h, errors.Wrap(geometry.ErrDegenerate, "non-finite homography")
		}
	}
	return h, nil
}

// normalize translates pts to their centroid and scales them to a mean
// distance of sqrt(2). It returns the moved points and the 3x3 transform.
func normalize(pts [4]geometry.Point) ([4]geometry.Point, *mat.Dense, error) {
	var c geometry.Point
	for _, p := range pts {
		c = c.Add(p)
	}
	c = c.Scale(0.25)

	var mean float64
	for _, p := range pts {
		mean += p.Dist(c)
	}
	mean /= 4
	if mean < 1e-9 || math.IsNaN(mean) || math.IsInf(mean, 0) {
		return pts, nil, errors.Wrap(geometry.ErrDegenerate, "coincident points")
	}

	s := math.Sqrt2 / mean
	var out [4]geometry.Point
	for i, p := range pts {
		out[i] = p.Sub(c).Scale(s)
	}
	t := mat.NewDense(3, 3, []float64{
		s, 0, -s * c.X,
		0, s, -s * c.Y,
		0, 0, 1,
	})
	return out, t, nil
}

// inverseSimilarity inverts a transform built by normalize.
func inverseSimilarity(t *mat.Dense) *mat.Dense {
	s := t.At(0, 0)
	return mat.NewDense(3, 3, []float64{
		1 / s, 0, -t.At(0, 2) / s,
		0, 1 / s, -t.At(1, 2) / s,
		0, 0, 1,
	})
}
