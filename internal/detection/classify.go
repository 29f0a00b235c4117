package detection

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/plate-rectify/internal/geometry"
)

// Orientation is the binary label assigned to every line.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	if o == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// Neighbor slot indices. Horizontal lines use left/right, vertical lines
// above/below.
const (
	SideLeft  = 0
	SideRight = 1
	SideAbove = 0
	SideBelow = 1
)

// Slot is an optional (neighbor id, distance) pair.
type Slot struct {
	Line     int     `json:"line"`
	Distance float64 `json:"distance"`
	OK       bool    `json:"ok"`
}

// OrientedLine is a segment labelled horizontal or vertical.
type OrientedLine struct {
	geometry.Segment

	// ID is the index of the segment in the classifier input. It is unique
	// across both orientations and identifies neighbors in Slots.
	ID int `json:"id"`

	Orientation Orientation `json:"orientation"`

	// Bucket is the angle rounded to the configured granularity.
	Bucket float64 `json:"bucket"`

	// Neighbors holds the nearest-neighbor pairing filled in by candidate
	// search. Zero values mean unassigned.
	Neighbors [2]Slot `json:"neighbors"`
}

// Classified partitions lines by orientation, each side in input order.
type Classified struct {
	Horizontal []OrientedLine `json:"horizontal"`
	Vertical   []OrientedLine `json:"vertical"`
}

// Count returns the number of lines on both sides.
func (c Classified) Count() int {
	return len(c.Horizontal) + len(c.Vertical)
}

// All returns horizontal lines followed by vertical lines.
func (c Classified) All() []OrientedLine {
	all := make([]OrientedLine, 0, c.Count())
	all = append(all, c.Horizontal...)
	return append(all, c.Vertical...)
}

// Classify labels each segment horizontal when the absolute value of its
// normalized angle is below cfg.AngleThreshold, vertical otherwise.
//
// Segments shorter than cfg.MinLineLength are dropped. With
// cfg.DominantBuckets set, horizontal lines outside the most populated angle
// buckets are dropped too. Each side is then capped at cfg.MaxLinesPerSide.
func Classify(segments []geometry.Segment, cfg Config) Classified {
	var out Classified
	for i, s := range segments {
		if s.Length() < cfg.MinLineLength {
			continue
		}
		angle := s.Angle()
		line := OrientedLine{
			Segment:     s,
			ID:          i,
			Orientation: Vertical,
			Bucket:      math.Round(angle/cfg.AngleBucket) * cfg.AngleBucket,
		}
		if math.Abs(angle) < cfg.AngleThreshold {
			line.Orientation = Horizontal
			out.Horizontal = append(out.Horizontal, line)
		} else {
			out.Vertical = append(out.Vertical, line)
		}
	}

	if cfg.DominantBuckets > 0 {
		out.Horizontal = dominantBuckets(out.Horizontal, cfg.DominantBuckets)
	}
	out.Horizontal = capLines(out.Horizontal, cfg.MaxLinesPerSide)
	out.Vertical = capLines(out.Vertical, cfg.MaxLinesPerSide)
	return out
}

// dominantBuckets keeps lines whose bucket is among the n most populated.
func dominantBuckets(lines []OrientedLine, n int) []OrientedLine {
	counts := make(map[float64]int)
	for _, l := range lines {
		counts[l.Bucket]++
	}
	if len(counts) <= n {
		return lines
	}

	buckets := make([]float64, 0, len(counts))
	for b := range counts {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if counts[buckets[i]] != counts[buckets[j]] {
			return counts[buckets[i]] > counts[buckets[j]]
		}
		return buckets[i] < buckets[j]
	})

	keep := make(map[float64]bool, n)
	for _, b := range buckets[:n] {
		keep[b] = true
	}
	out := make([]OrientedLine, 0, len(lines))
	for _, l := range lines {
		if keep[l.Bucket] {
			out = append(out, l)
		}
	}
	return out
}

// capLines bounds a side to max lines. Lines shorter than the median length
// go first; if that is not enough the longest max survive. Input order is
// preserved.
func capLines(lines []OrientedLine, max int) []OrientedLine {
	if max <= 0 || len(lines) <= max {
		return lines
	}

	lengths := make([]float64, len(lines))
	for i, l := range lines {
		lengths[i] = l.Length()
	}
	sorted := append([]float64(nil), lengths...)
	sort.Float64s(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)

	idx := make([]int, 0, len(lines))
	for i := range lines {
		if lengths[i] >= median {
			idx = append(idx, i)
		}
	}
	if len(idx) > max {
		sort.SliceStable(idx, func(a, b int) bool { return lengths[idx[a]] > lengths[idx[b]] })
		idx = idx[:max]
		sort.Ints(idx)
	}

	out := make([]OrientedLine, len(idx))
	for i, j := range idx {
		out[i] = lines[j]
	}
	return out
}
