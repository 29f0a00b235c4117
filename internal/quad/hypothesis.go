package quad

import (
	"sort"

	"github.com/ironsheep/plate-rectify/internal/detection"
	"github.com/ironsheep/plate-rectify/internal/geometry"
)

// Hypothesis is a group of 3 or 4 lines proposed as a plate boundary.
type Hypothesis struct {
	Lines []detection.OrientedLine `json:"lines"`

	// Bounds encloses every member endpoint.
	Bounds geometry.Rect `json:"bounds"`

	// AngleSum adds the undirected angles (0 to 90 degrees) of every
	// horizontal-vertical member pair, one per corner.
	AngleSum float64 `json:"angle_sum"`

	// Gap is the total endpoint gap over the same pairs.
	Gap float64 `json:"gap"`

	Area   float64 `json:"area"`
	Aspect float64 `json:"aspect"`
}

func newHypothesis(lines []detection.OrientedLine) Hypothesis {
	h := Hypothesis{Lines: lines}

	pts := make([]geometry.Point, 0, 2*len(lines))
	for _, l := range lines {
		pts = append(pts, l.A, l.B)
	}
	h.Bounds = geometry.BoundsOf(pts)
	h.Area = h.Bounds.Area()
	h.Aspect = h.Bounds.Aspect()

	for _, p := range cornerPairs(lines) {
		h.AngleSum += geometry.AngleBetween(p[0].Segment, p[1].Segment)
		h.Gap += p[0].EndpointGap(p[1].Segment)
	}
	return h
}

// cornerPairs returns every (horizontal, vertical) member pair.
func cornerPairs(lines []detection.OrientedLine) [][2]detection.OrientedLine {
	var pairs [][2]detection.OrientedLine
	for _, h := range lines {
		if h.Orientation != detection.Horizontal {
			continue
		}
		for _, v := range lines {
			if v.Orientation == detection.Vertical {
				pairs = append(pairs, [2]detection.OrientedLine{h, v})
			}
		}
	}
	return pairs
}

// key identifies a hypothesis by its member ids.
func (h Hypothesis) key() string {
	ids := h.IDs()
	b := make([]byte, 0, 4*len(ids))
	for _, id := range ids {
		b = append(b, byte(id>>24), byte(id>>16), byte(id>>8), byte(id))
	}
	return string(b)
}

// IDs returns the sorted member line ids.
func (h Hypothesis) IDs() []int {
	ids := make([]int, len(h.Lines))
	for i, l := range h.Lines {
		ids[i] = l.ID
	}
	sort.Ints(ids)
	return ids
}

// Count returns the number of member lines per orientation.
func (h Hypothesis) Count() (horizontal, vertical int) {
	for _, l := range h.Lines {
		if l.Orientation == detection.Horizontal {
			horizontal++
		} else {
			vertical++
		}
	}
	return horizontal, vertical
}
