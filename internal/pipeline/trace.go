package pipeline

import (
	"image"

	"github.com/google/uuid"

	"github.com/ironsheep/plate-rectify/internal/detection"
	"github.com/ironsheep/plate-rectify/internal/geometry"
)

// State is a step of the fallback state machine.
type State string

const (
	StateDirectCrop         State = "direct_crop"
	StateTextRegion         State = "text_region"
	StateLineReconstruction State = "line_reconstruction"
	StateContourFallback    State = "contour_fallback"
	StateDone               State = "done"
	StateMissed             State = "missed"
)

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateMissed
}

// Method records which strategy produced a Done result.
type Method string

const (
	MethodDetector   Method = "detector"
	MethodTextRegion Method = "text-region"
	MethodLines      Method = "lines"
	MethodContour    Method = "contour"
)

// Event describes one state transition together with the evidence gathered
// in the state being left. Evidence fields are zero when the state produced
// none.
type Event struct {
	ID     uuid.UUID `json:"id"`
	From   State     `json:"from"`
	To     State     `json:"to"`
	Reason string    `json:"reason,omitempty"`

	// Source is the full input image and Region the rectangle of it the
	// state worked on.
	Source image.Image      `json:"-"`
	Region image.Rectangle `json:"region"`

	Segments []geometry.Segment   `json:"segments,omitempty"`
	Lines    *detection.Classified `json:"lines,omitempty"`
	Corners  *geometry.CornerSet  `json:"corners,omitempty"`
	Contour  *detection.Contour   `json:"contour,omitempty"`
}

// Tracer observes state transitions. Implementations must be safe for
// concurrent use when the engine is shared.
type Tracer interface {
	Trace(ev Event)
}

// NopTracer discards every event.
type NopTracer struct{}

// Trace implements Tracer.
func (NopTracer) Trace(Event) {}

// Tracers fans every event out to each tracer in order.
type Tracers []Tracer

// Trace implements Tracer.
func (ts Tracers) Trace(ev Event) {
	for _, t := range ts {
		t.Trace(ev)
	}
}
