// Package detection extracts straight-line evidence from plate regions and
// organizes it for corner reconstruction.
//
// The package covers the first stages of reconstruction:
//
//   - Extraction: an Extractor turns pixels into raw segments. LineExtractor
//     is pure Go; OpenCVExtractor is built with -tags gocv. Backends are
//     selected by name through NewExtractor.
//   - Merging: MergeSegments fuses near-colinear, overlapping segments.
//   - Classification: Classify splits segments into horizontal and vertical
//     lines and bounds the count per side.
//
// It also provides two helpers used when line evidence fails: LargestContour,
// the largest foreground component of a region, and EdgeDensityLocator, a
// heuristic text region finder.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// Segments and contours are reported in the coordinate space of the image
// passed in, so a SubImage region yields absolute coordinates.
//
// # Determinism
//
// The probabilistic Hough transform visits edge points in a pseudo-random
// order seeded from Config.Seed. The same image and configuration always
// produce the same segments.
package detection
