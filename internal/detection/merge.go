package detection

import (
	"math"

	"github.com/ironsheep/plate-rectify/internal/geometry"
)

// MergeSegments fuses near-colinear, overlapping segments into single
// spanning segments.
//
// A candidate joins a representative when both of its endpoints lie within
// tolerance pixels of the representative's infinite line and the two
// directions agree to at least minCosine (|cos|). The merged segment runs
// between the two most extreme of the four endpoints along the
// representative's direction, and it keeps absorbing later candidates.
//
// A sweep visits segments in input order. Sweeps repeat until one completes
// without merging anything, so the result is a fixed point: merging it again
// with the same parameters returns it unchanged. The input slice is never
// modified.
func MergeSegments(segments []geometry.Segment, tolerance, minCosine float64) []geometry.Segment {
	current := append([]geometry.Segment(nil), segments...)
	for {
		next, merged := mergeSweep(current, tolerance, minCosine)
		if !merged {
			return next
		}
		current = next
	}
}

func mergeSweep(segs []geometry.Segment, tolerance, minCosine float64) ([]geometry.Segment, bool) {
	out := make([]geometry.Segment, 0, len(segs))
	used := make([]bool, len(segs))
	merged := false

	for i := range segs {
		if used[i] {
			continue
		}
		rep := segs[i]
		for j := i + 1; j < len(segs); j++ {
			if used[j] || !mergeable(rep, segs[j], tolerance, minCosine) {
				continue
			}
			rep = span(rep, segs[j])
			used[j] = true
			merged = true
		}
		out = append(out, rep)
	}
	return out, merged
}

func mergeable(rep, cand geometry.Segment, tolerance, minCosine float64) bool {
	if math.Abs(rep.Direction().Dot(cand.Direction())) < minCosine {
		return false
	}
	return rep.DistanceToLine(cand.A) <= tolerance && rep.DistanceToLine(cand.B) <= tolerance
}

// span returns the segment between the extreme projections of all four
// endpoints onto rep's direction.
func span(rep, cand geometry.Segment) geometry.Segment {
	dir := rep.Direction()
	pts := [4]geometry.Point{rep.A, rep.B, cand.A, cand.B}

	lo, hi := 0, 0
	for i := 1; i < len(pts); i++ {
		proj := pts[i].Dot(dir)
		if proj < pts[lo].Dot(dir) {
			lo = i
		}
		if proj > pts[hi].Dot(dir) {
			hi = i
		}
	}
	return geometry.Segment{A: pts[lo], B: pts[hi]}
}
