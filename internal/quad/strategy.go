package quad

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/ironsheep/plate-rectify/internal/detection"
	"github.com/ironsheep/plate-rectify/internal/geometry"
)

// Strategy proposes rectangle hypotheses from classified lines.
//
// Implementations must not modify the input and must return hypotheses in a
// deterministic order. Fewer than three lines yield no hypotheses.
type Strategy interface {
	Name() string
	Search(c detection.Classified) []Hypothesis
}

// NewStrategy returns the strategy named by cfg.Strategy.
func NewStrategy(cfg Config) (Strategy, error) {
	switch cfg.Strategy {
	case StrategyEnumerate:
		return &Enumerate{ConnectDistance: cfg.ConnectDistance}, nil
	case StrategyNearest:
		return &NearestNeighbor{MaxCornerDistance: cfg.MaxCornerDistance}, nil
	case StrategyAuto, "":
		return &Auto{
			Limit:     cfg.AutoEnumerateLimit,
			Enumerate: &Enumerate{ConnectDistance: cfg.ConnectDistance},
			Nearest:   &NearestNeighbor{MaxCornerDistance: cfg.MaxCornerDistance},
		}, nil
	}
	return nil, errors.Errorf("unknown strategy %q", cfg.Strategy)
}

// Enumerate tests every 4-line and 3-line subset.
//
// A 4-line hypothesis is two horizontals and two verticals where every
// horizontal touches every vertical, which is the h,v,h,v loop with all
// four corners connected. A 3-line hypothesis needs at least two mixed
// orientation pairs and at least two connected pairs among its three
// pairs, so a rectangle with one side missing still qualifies.
//
// The cost grows with the fourth power of the line count; callers bound the
// input (see Auto).
type Enumerate struct {
	// ConnectDistance is the largest endpoint gap between touching lines.
	ConnectDistance float64
}

// Name implements Strategy.
func (e *Enumerate) Name() string { return StrategyEnumerate }

// Search implements Strategy. Complete hypotheses come first.
func (e *Enumerate) Search(c detection.Classified) []Hypothesis {
	if c.Count() < 3 {
		return nil
	}
	connected := func(a, b detection.OrientedLine) bool {
		return a.EndpointGap(b.Segment) <= e.ConnectDistance
	}

	var out []Hypothesis
	hs, vs := c.Horizontal, c.Vertical
	for i := 0; i < len(hs); i++ {
		for j := i + 1; j < len(hs); j++ {
			for k := 0; k < len(vs); k++ {
				if !connected(hs[i], vs[k]) || !connected(hs[j], vs[k]) {
					continue
				}
				for l := k + 1; l < len(vs); l++ {
					if connected(hs[i], vs[l]) && connected(hs[j], vs[l]) {
						out = append(out, newHypothesis([]detection.OrientedLine{hs[i], vs[k], hs[j], vs[l]}))
					}
				}
			}
		}
	}

	all := c.All()
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			for k := j + 1; k < len(all); k++ {
				trio := [3]detection.OrientedLine{all[i], all[j], all[k]}
				mixed, touching := 0, 0
				for _, p := range [3][2]int{{0, 1}, {0, 2}, {1, 2}} {
					a, b := trio[p[0]], trio[p[1]]
					if a.Orientation != b.Orientation {
						mixed++
					}
					if connected(a, b) {
						touching++
					}
				}
				if mixed >= 2 && touching >= 2 {
					out = append(out, newHypothesis(trio[:]))
				}
			}
		}
	}
	return out
}

// NearestNeighbor pairs each horizontal line with its closest vertical
// neighbor on each side in a single pass over distance-sorted candidates.
//
// Each horizontal line offers a left and a right slot; each vertical line
// offers an above and a below slot, one per end. A candidate pairing fills a
// horizontal side slot and a vertical end slot together, and only when both
// are still free, so every slot holds at most one partner. Candidates are
// visited by ascending corner distance with ties broken by line ids.
//
// Every horizontal anchor then yields at most one hypothesis: the anchor,
// its left and right verticals, and the opposite horizontal reached through
// the other end of one of those verticals. Hypotheses with fewer than three
// lines are dropped, and the same member set is reported once.
type NearestNeighbor struct {
	// MaxCornerDistance bounds the distance between the meeting endpoints.
	MaxCornerDistance float64
}

// Name implements Strategy.
func (n *NearestNeighbor) Name() string { return StrategyNearest }

type pairing struct {
	h, side  int // index into horizontals, SideLeft or SideRight
	v, end   int // index into verticals, SideAbove or SideBelow
	distance float64
}

// Search implements Strategy.
func (n *NearestNeighbor) Search(c detection.Classified) []Hypothesis {
	if c.Count() < 3 {
		return nil
	}
	hs := append([]detection.OrientedLine(nil), c.Horizontal...)
	vs := append([]detection.OrientedLine(nil), c.Vertical...)
	for i := range hs {
		hs[i].Neighbors = [2]detection.Slot{}
	}
	for i := range vs {
		vs[i].Neighbors = [2]detection.Slot{}
	}

	n.assign(hs, vs, n.candidates(hs, vs))

	byID := make(map[int]int, len(hs))
	for i, h := range hs {
		byID[h.ID] = i
	}
	vByID := make(map[int]int, len(vs))
	for i, v := range vs {
		vByID[v.ID] = i
	}

	var out []Hypothesis
	seen := make(map[string]bool)
	for _, anchor := range hs {
		members := []detection.OrientedLine{anchor}
		var opposite *detection.OrientedLine
		for _, slot := range anchor.Neighbors {
			if !slot.OK {
				continue
			}
			v := vs[vByID[slot.Line]]
			members = append(members, v)
			if opposite != nil {
				continue
			}
			for _, other := range v.Neighbors {
				if other.OK && other.Line != anchor.ID {
					o := hs[byID[other.Line]]
					opposite = &o
					break
				}
			}
		}
		if opposite != nil {
			members = append(members, *opposite)
		}
		if len(members) < 3 {
			continue
		}
		hyp := newHypothesis(members)
		if k := hyp.key(); !seen[k] {
			seen[k] = true
			out = append(out, hyp)
		}
	}
	return out
}

// candidates lists every admissible (horizontal side, vertical end) pairing
// sorted by distance.
func (n *NearestNeighbor) candidates(hs, vs []detection.OrientedLine) []pairing {
	var out []pairing
	for i, h := range hs {
		hEnds := leftRight(h.Segment)
		hMid := h.Midpoint()
		for j, v := range vs {
			side := detection.SideRight
			if v.Midpoint().X < hMid.X {
				side = detection.SideLeft
			}
			for end, p := range topBottom(v.Segment) {
				d := hEnds[side].Dist(p)
				if d <= n.MaxCornerDistance {
					out = append(out, pairing{h: i, side: side, v: j, end: end, distance: d})
				}
			}
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		pa, pb := out[a], out[b]
		if pa.distance != pb.distance {
			return pa.distance < pb.distance
		}
		if hs[pa.h].ID != hs[pb.h].ID {
			return hs[pa.h].ID < hs[pb.h].ID
		}
		if vs[pa.v].ID != vs[pb.v].ID {
			return vs[pa.v].ID < vs[pb.v].ID
		}
		return pa.end < pb.end
	})
	return out
}

// assign fills slots first-come-first-served.
func (n *NearestNeighbor) assign(hs, vs []detection.OrientedLine, pairs []pairing) {
	for _, p := range pairs {
		hSlot := &hs[p.h].Neighbors[p.side]
		vSlot := &vs[p.v].Neighbors[p.end]
		if hSlot.OK || vSlot.OK {
			continue
		}
		*hSlot = detection.Slot{Line: vs[p.v].ID, Distance: p.distance, OK: true}
		*vSlot = detection.Slot{Line: hs[p.h].ID, Distance: p.distance, OK: true}
	}
}

// leftRight returns the endpoints of s ordered by x.
func leftRight(s geometry.Segment) [2]geometry.Point {
	if s.B.X < s.A.X {
		return [2]geometry.Point{s.B, s.A}
	}
	return [2]geometry.Point{s.A, s.B}
}

// topBottom returns the endpoints of s ordered by y.
func topBottom(s geometry.Segment) [2]geometry.Point {
	if s.B.Y < s.A.Y {
		return [2]geometry.Point{s.B, s.A}
	}
	return [2]geometry.Point{s.A, s.B}
}

// Auto enumerates small line sets exhaustively and switches to nearest
// neighbor pairing above Limit lines.
type Auto struct {
	Limit     int
	Enumerate *Enumerate
	Nearest   *NearestNeighbor
}

// Name implements Strategy.
func (a *Auto) Name() string { return StrategyAuto }

// Search implements Strategy.
func (a *Auto) Search(c detection.Classified) []Hypothesis {
	return a.pick(c).Search(c)
}

func (a *Auto) pick(c detection.Classified) Strategy {
	if c.Count() <= a.Limit {
		return a.Enumerate
	}
	return a.Nearest
}
