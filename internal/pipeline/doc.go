// Package pipeline decides how a plate image is produced from one detector
// box, falling back through progressively weaker evidence.
//
// A confident detection is cropped directly. Otherwise, in crop mode, the
// largest text region found by a TextLocator is cropped; in rectify mode the
// plate outline is reconstructed from line segments (package detection),
// closed into a quadrilateral (package quad) and warped fronto-parallel
// (package rectify). When reconstruction fails, the largest binarized
// contour of the region is used. If nothing works the result is Missed.
//
// # States
//
//	direct_crop -> done
//	direct_crop -> text_region -> done | missed
//	direct_crop -> line_reconstruction -> done
//	            -> contour_fallback -> done | missed
//
// The chain only moves forward. Every transition is logged at debug level
// and reported to the configured Tracer along with the evidence of the
// state being left.
//
// # Errors
//
// Missed is an ordinary outcome: Rectify returns it with a nil error and
// Result.Reason set. Reason matches ErrMissed and its cause (ErrNoEvidence,
// ErrNoTextRegion, ...) under errors.Is. Rectify returns an error only for
// arguments matching ErrInvalidInput.
package pipeline
