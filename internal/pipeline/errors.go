package pipeline

import (
	"github.com/pkg/errors"

	"github.com/ironsheep/plate-rectify/internal/detection"
	"github.com/ironsheep/plate-rectify/internal/geometry"
	"github.com/ironsheep/plate-rectify/internal/quad"
)

var (
	// ErrNoEvidence reports that a region produced no usable lines or
	// contours.
	ErrNoEvidence = detection.ErrNoEvidence

	// ErrNoValidQuadrilateral reports that every rectangle hypothesis failed
	// scoring, or that the winner missed the detector box.
	ErrNoValidQuadrilateral = quad.ErrNoValidQuadrilateral

	// ErrDegenerateGeometry reports corners with near-zero area or a
	// self-intersecting outline.
	ErrDegenerateGeometry = geometry.ErrDegenerate

	// ErrNoTextRegion reports that the text locator found nothing to crop.
	ErrNoTextRegion = errors.New("no text region")

	// ErrMissed marks a Result that ended without an image.
	ErrMissed = errors.New("plate missed")

	// ErrInvalidInput is returned by Rectify for arguments that can never
	// produce a result.
	ErrInvalidInput = errors.New("invalid input")
)

// missedError carries the cause of a Missed result. It matches both ErrMissed
// and the cause under errors.Is.
type missedError struct {
	cause error
}

func missed(cause error) error {
	return &missedError{cause: cause}
}

func (e *missedError) Error() string {
	return "plate missed: " + e.cause.Error()
}

func (e *missedError) Is(target error) bool {
	return target == ErrMissed
}

func (e *missedError) Unwrap() error {
	return e.cause
}

// Cause implements the pkg/errors causer interface.
func (e *missedError) Cause() error {
	return e.cause
}
