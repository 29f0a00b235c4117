package detection

import (
	"image"
	"math"
	"math/rand"

	"github.com/ironsheep/plate-rectify/internal/geometry"
)

// houghParams configures the probabilistic transform.
type houghParams struct {
	threshold int
	minLength float64
	maxGap    int
	maxLines  int
}

const houghAngles = 180

// probabilisticHough finds line segments in a binary edge mask using the
// progressive probabilistic Hough transform.
//
// Edge points are visited in random order. Each point votes for every line
// through it; once some line reaches the vote threshold, the line is traced
// in both directions from the point, bridging gaps of up to maxGap pixels.
// Traced pixels are removed from the mask so they cannot seed another line,
// and when the traced segment is long enough their votes are withdrawn.
//
// The mask must be anchored at (0, 0). Returned coordinates are in mask space.
func probabilisticHough(edges *image.Gray, p houghParams, rng *rand.Rand) []geometry.Segment {
	bounds := edges.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	numRho := 2*(width+height) + 1
	offset := (numRho - 1) / 2

	var cosT, sinT [houghAngles]float64
	for n := 0; n < houghAngles; n++ {
		theta := float64(n) * math.Pi / houghAngles
		cosT[n] = math.Cos(theta)
		sinT[n] = math.Sin(theta)
	}

	accum := make([]int, houghAngles*numRho)
	mask := make([]bool, width*height)
	voted := make([]bool, width*height)
	points := make([]image.Point, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if edges.Pix[y*edges.Stride+x] != 0 {
				mask[y*width+x] = true
				points = append(points, image.Point{X: x, Y: y})
			}
		}
	}

	vote := func(x, y, delta int) {
		for n := 0; n < houghAngles; n++ {
			r := int(math.Round(float64(x)*cosT[n]+float64(y)*sinT[n])) + offset
			accum[n*numRho+r] += delta
		}
	}

	segments := make([]geometry.Segment, 0)
	for count := len(points); count > 0; {
		idx := rng.Intn(count)
		pt := points[idx]
		points[idx] = points[count-1]
		count--

		if !mask[pt.Y*width+pt.X] {
			continue
		}

		voted[pt.Y*width+pt.X] = true
		maxVotes, maxN := p.threshold-1, -1
		for n := 0; n < houghAngles; n++ {
			r := int(math.Round(float64(pt.X)*cosT[n]+float64(pt.Y)*sinT[n])) + offset
			accum[n*numRho+r]++
			if v := accum[n*numRho+r]; v > maxVotes {
				maxVotes, maxN = v, n
			}
		}
		if maxN < 0 {
			continue
		}

		// Walk along the line, perpendicular to its normal, advancing one
		// pixel per step on the dominant axis.
		dirX, dirY := -sinT[maxN], cosT[maxN]
		var stepX, stepY float64
		if math.Abs(dirX) > math.Abs(dirY) {
			stepX, stepY = math.Copysign(1, dirX), dirY/math.Abs(dirX)
		} else {
			stepX, stepY = dirX/math.Abs(dirY), math.Copysign(1, dirY)
		}
		at := func(k, i int) (int, int) {
			sign := 1.0
			if k == 1 {
				sign = -1
			}
			return int(math.Round(float64(pt.X) + sign*stepX*float64(i))),
				int(math.Round(float64(pt.Y) + sign*stepY*float64(i)))
		}

		var ends [2]image.Point
		for k := 0; k < 2; k++ {
			ends[k] = pt
			gap := 0
			for i := 1; ; i++ {
				x, y := at(k, i)
				if x < 0 || x >= width || y < 0 || y >= height {
					break
				}
				if mask[y*width+x] {
					gap = 0
					ends[k] = image.Point{X: x, Y: y}
				} else if gap++; gap > p.maxGap {
					break
				}
			}
		}

		length := math.Hypot(float64(ends[0].X-ends[1].X), float64(ends[0].Y-ends[1].Y))
		good := length >= p.minLength

		for k := 0; k < 2; k++ {
			for i := 0; ; i++ {
				x, y := at(k, i)
				if x < 0 || x >= width || y < 0 || y >= height {
					break
				}
				if j := y*width + x; mask[j] {
					if good && voted[j] {
						vote(x, y, -1)
					}
					mask[j] = false
				}
				if x == ends[k].X && y == ends[k].Y {
					break
				}
			}
		}

		if !good {
			continue
		}
		segments = append(segments, geometry.Seg(
			float64(ends[1].X), float64(ends[1].Y),
			float64(ends[0].X), float64(ends[0].Y),
		))
		if p.maxLines > 0 && len(segments) >= p.maxLines {
			break
		}
	}

	return segments
}
