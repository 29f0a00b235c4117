package quad

import (
	"math"

	"github.com/pkg/errors"

	"github.com/ironsheep/plate-rectify/internal/detection"
	"github.com/ironsheep/plate-rectify/internal/geometry"
)

var (
	// ErrNoHypotheses reports that candidate search proposed nothing. It
	// matches detection.ErrNoEvidence.
	ErrNoHypotheses = errors.WithMessage(detection.ErrNoEvidence, "no rectangle hypotheses")

	// ErrNoValidQuadrilateral reports that every hypothesis failed scoring.
	ErrNoValidQuadrilateral = errors.New("no valid quadrilateral")
)

// Selection is the winning hypothesis and its canonical corners.
type Selection struct {
	Hypothesis Hypothesis         `json:"hypothesis"`
	Corners    geometry.CornerSet `json:"corners"`

	// Candidates and Accepted count the hypotheses seen and the ones that
	// passed angle closure.
	Candidates int `json:"candidates"`
	Accepted   int `json:"accepted"`
}

// Selector scores hypotheses and derives corners from the best one.
type Selector struct {
	cfg Config
}

// NewSelector creates a selector.
func NewSelector(cfg Config) *Selector {
	return &Selector{cfg: cfg}
}

// Accept reports whether h closes into a plausible rectangle.
//
// A complete hypothesis needs its four corner angles to sum to 360 degrees
// within the tolerance; a partial one needs its two corners to reach at
// least 180 degrees minus the tolerance.
func (s *Selector) Accept(h Hypothesis) bool {
	if h.Area <= 0 {
		return false
	}
	nh, nv := h.Count()
	if nh == 0 || nv == 0 {
		return false
	}
	switch len(h.Lines) {
	case 4:
		if math.Abs(h.AngleSum-360) > s.cfg.AngleTolerance {
			return false
		}
	case 3:
		if h.AngleSum < 180-s.cfg.AngleTolerance {
			return false
		}
	default:
		return false
	}
	if s.cfg.AspectGate && s.aspectDistance(h) > 0 {
		return false
	}
	return true
}

// Select returns the best accepted hypothesis with canonical corners.
//
// Ranking, first difference wins:
//  1. larger bounds area (areas within AreaTieRatio tie)
//  2. aspect closer to the expected band, when one is configured
//  3. more member lines
//  4. smaller total endpoint gap
//  5. earlier position in hyps
//
// When the corners of the best hypothesis cannot be derived or
// canonicalized, the next one in rank order is tried. The error of the
// best-ranked hypothesis is returned when none succeeds.
func (s *Selector) Select(hyps []Hypothesis) (*Selection, error) {
	if len(hyps) == 0 {
		return nil, ErrNoHypotheses
	}

	var pending []int
	for i, h := range hyps {
		if s.Accept(h) {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return nil, errors.Wrapf(ErrNoValidQuadrilateral, "all %d hypotheses rejected", len(hyps))
	}
	accepted := len(pending)

	var first error
	for len(pending) > 0 {
		top := 0
		for j := 1; j < len(pending); j++ {
			if s.better(hyps[pending[j]], hyps[pending[top]]) {
				top = j
			}
		}
		best := pending[top]
		pending = append(pending[:top], pending[top+1:]...)

		corners, err := s.Corners(hyps[best])
		if err != nil {
			if first == nil {
				first = err
			}
			continue
		}
		return &Selection{
			Hypothesis: hyps[best],
			Corners:    corners,
			Candidates: len(hyps),
			Accepted:   accepted,
		}, nil
	}
	return nil, first
}

func (s *Selector) better(a, b Hypothesis) bool {
	if larger := math.Max(a.Area, b.Area); larger > 0 && math.Abs(a.Area-b.Area)/larger > s.cfg.AreaTieRatio {
		return a.Area > b.Area
	}
	if s.cfg.AspectMax > 0 {
		da, db := s.aspectDistance(a), s.aspectDistance(b)
		if math.Abs(da-db) > 1e-9 {
			return da < db
		}
	}
	if len(a.Lines) != len(b.Lines) {
		return len(a.Lines) > len(b.Lines)
	}
	if math.Abs(a.Gap-b.Gap) > 1e-9 {
		return a.Gap < b.Gap
	}
	return false
}

// aspectDistance is how far h's aspect lies outside [AspectMin, AspectMax].
func (s *Selector) aspectDistance(h Hypothesis) float64 {
	switch {
	case h.Aspect < s.cfg.AspectMin:
		return s.cfg.AspectMin - h.Aspect
	case h.Aspect > s.cfg.AspectMax:
		return h.Aspect - s.cfg.AspectMax
	}
	return 0
}

// Corners derives the canonical corner set of h according to CornerMode.
func (s *Selector) Corners(h Hypothesis) (geometry.CornerSet, error) {
	var pts [4]geometry.Point
	if s.cfg.CornerMode == CornersIntersect {
		var err error
		if pts, err = intersectionCorners(h); err != nil {
			return geometry.CornerSet{}, err
		}
	} else {
		pts = h.Bounds.Corners()
	}

	corners, err := geometry.Canonicalize(pts, s.cfg.MinArea)
	if err != nil {
		return geometry.CornerSet{}, errors.Wrap(err, "failed to canonicalize corners")
	}
	return corners, nil
}

// intersectionCorners intersects every horizontal-vertical member pair. A
// partial hypothesis has two intersections, completed by the far endpoints
// of the two lines that meet the shared line.
func intersectionCorners(h Hypothesis) ([4]geometry.Point, error) {
	var pts [4]geometry.Point
	pairs := cornerPairs(h.Lines)

	meets := make([]geometry.Point, 0, len(pairs))
	for _, p := range pairs {
		x, ok := geometry.Intersect(p[0].Segment, p[1].Segment)
		if !ok {
			return pts, errors.Wrap(geometry.ErrDegenerate, "parallel corner lines")
		}
		meets = append(meets, x)
	}

	switch len(meets) {
	case 4:
		copy(pts[:], meets)
	case 2:
		// The single line of the minority orientation is shared by both
		// corners; the other two lines each contribute their far endpoint.
		nh, _ := h.Count()
		shared := detection.Vertical
		if nh == 1 {
			shared = detection.Horizontal
		}
		i := 0
		for _, l := range h.Lines {
			if l.Orientation == shared {
				continue
			}
			x := meets[i]
			far := l.A
			if l.B.Dist(x) > l.A.Dist(x) {
				far = l.B
			}
			pts[2*i], pts[2*i+1] = x, far
			i++
		}
	default:
		return pts, errors.Wrapf(geometry.ErrDegenerate, "%d corners from %d lines", len(meets), len(h.Lines))
	}
	return pts, nil
}
