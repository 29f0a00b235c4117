// Package geometry provides the planar primitives shared by the plate
// rectification stages: points, line segments, axis-aligned rectangles and
// canonical four-corner sets.
//
// # Coordinate System
//
// All coordinates use the image convention:
//   - Origin (0, 0) at the top-left corner
//   - X increases rightward
//   - Y increases downward
//
// Angles are in degrees. Line angles are undirected and normalized to
// [-90, 90), so 0 is horizontal and -90 is vertical.
//
// # Corner Order
//
// A CornerSet is always TL, TR, BR, BL. Canonicalize is the only constructor
// that guarantees this order together with a non-degenerate, simple outline.
package geometry
