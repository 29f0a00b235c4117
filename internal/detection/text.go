package detection

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/plate-rectify/internal/geometry"
	"github.com/ironsheep/plate-rectify/internal/imaging"
)

// TextRegion is a window cluster whose edge texture looks like printed text.
type TextRegion struct {
	Bounds     image.Rectangle `json:"bounds"`
	Confidence float64         `json:"confidence"`
	Area       int             `json:"area"`
}

// EdgeDensityLocator finds text-like regions from edge density alone, with
// no OCR engine. It implements the pipeline's text locator.
type EdgeDensityLocator struct {
	// MinConfidence drops windows scoring below this (0.0 to 1.0).
	MinConfidence float64

	// EdgeThreshold is the gray-level gradient counted as an edge.
	EdgeThreshold float64
}

// NewEdgeDensityLocator returns a locator with the usual thresholds.
func NewEdgeDensityLocator() *EdgeDensityLocator {
	return &EdgeDensityLocator{MinConfidence: 0.3, EdgeThreshold: 30}
}

// LargestTextRegion returns the corner polygon (TL, TR, BR, BL) of the
// largest detected text region, or nil when there is none.
func (l *EdgeDensityLocator) LargestTextRegion(img image.Image) ([]geometry.Point, error) {
	regions := l.Regions(img)
	if len(regions) == 0 {
		return nil, nil
	}
	best := regions[0]
	for _, r := range regions[1:] {
		if r.Area > best.Area {
			best = r
		}
	}
	c := geometry.RectFromImage(best.Bounds).Corners()
	return c[:], nil
}

// Regions scans img with several text-sized windows and merges overlapping
// hits. Results are sorted by confidence, highest first.
//
// # Scoring
//
// Text has medium edge density (neither sparse nor solid) and more
// horizontal than vertical edge runs. A window scores
//
//	horizontalScore * (1 - |density - 0.2| / 0.2)
//
// and only windows with density in [0.05, 0.4] are considered.
func (l *EdgeDensityLocator) Regions(img image.Image) []TextRegion {
	if img == nil || img.Bounds().Empty() {
		return nil
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	edges := gradientEdges(imaging.ToGray(img), l.EdgeThreshold)

	windowSizes := []struct{ w, h int }{
		{100, 30},
		{150, 40},
		{200, 50},
		{80, 25},
	}

	candidates := make([]TextRegion, 0)
	for _, ws := range windowSizes {
		stepX := ws.w / 2
		stepY := ws.h / 2

		for y := 0; y <= height-ws.h; y += stepY {
			for x := 0; x <= width-ws.w; x += stepX {
				edgeCount := 0
				for wy := 0; wy < ws.h; wy++ {
					for wx := 0; wx < ws.w; wx++ {
						if edges[y+wy][x+wx] {
							edgeCount++
						}
					}
				}

				area := ws.w * ws.h
				density := float64(edgeCount) / float64(area)
				if density < 0.05 || density > 0.4 {
					continue
				}

				confidence := horizontalScore(edges, x, y, ws.w, ws.h) * (1.0 - math.Abs(density-0.2)/0.2)
				if confidence < l.MinConfidence {
					continue
				}
				candidates = append(candidates, TextRegion{
					Bounds:     image.Rect(x, y, x+ws.w, y+ws.h).Add(bounds.Min),
					Confidence: math.Round(confidence*1000) / 1000,
					Area:       area,
				})
			}
		}
	}

	merged := mergeOverlappingRegions(candidates)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Confidence > merged[j].Confidence
	})
	return merged
}

// gradientEdges marks pixels whose forward difference to the right or
// downward neighbor exceeds threshold. Border pixels are never edges.
func gradientEdges(gray *image.Gray, threshold float64) [][]bool {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	edges := make([][]bool, height)
	for y := 0; y < height; y++ {
		edges[y] = make([]bool, width)
		if y == 0 || y == height-1 {
			continue
		}
		for x := 1; x < width-1; x++ {
			c := float64(gray.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y)
			cx := float64(gray.GrayAt(x+1+bounds.Min.X, y+bounds.Min.Y).Y)
			cy := float64(gray.GrayAt(x+bounds.Min.X, y+1+bounds.Min.Y).Y)
			if math.Abs(c-cx) > threshold || math.Abs(c-cy) > threshold {
				edges[y][x] = true
			}
		}
	}
	return edges
}

// horizontalScore is the share of horizontal edge runs among all runs.
func horizontalScore(edges [][]bool, x, y, w, h int) float64 {
	horizontalRuns := 0
	verticalRuns := 0

	for row := y; row < y+h; row++ {
		inRun := false
		for col := x; col < x+w; col++ {
			if edges[row][col] {
				if !inRun {
					horizontalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	for col := x; col < x+w; col++ {
		inRun := false
		for row := y; row < y+h; row++ {
			if edges[row][col] {
				if !inRun {
					verticalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	if horizontalRuns+verticalRuns == 0 {
		return 0
	}
	return float64(horizontalRuns) / float64(horizontalRuns+verticalRuns)
}

func mergeOverlappingRegions(regions []TextRegion) []TextRegion {
	merged := make([]TextRegion, 0, len(regions))
	for _, r := range regions {
		found := false
		for i := range merged {
			if r.Bounds.Overlaps(merged[i].Bounds) {
				merged[i].Bounds = merged[i].Bounds.Union(r.Bounds)
				merged[i].Confidence = math.Max(r.Confidence, merged[i].Confidence)
				merged[i].Area = merged[i].Bounds.Dx() * merged[i].Bounds.Dy()
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, r)
		}
	}
	return merged
}
