package pipeline

import (
	"image"
	"math"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/plate-rectify/internal/detection"
	"github.com/ironsheep/plate-rectify/internal/geometry"
	"github.com/ironsheep/plate-rectify/internal/imaging"
	"github.com/ironsheep/plate-rectify/internal/quad"
	"github.com/ironsheep/plate-rectify/internal/rectify"
)

// TextLocator finds the most prominent text region of an image. A nil
// polygon means none was found.
type TextLocator interface {
	LargestTextRegion(img image.Image) ([]geometry.Point, error)
}

// Detection is the upstream detector's output for one image.
type Detection struct {
	Box        image.Rectangle `json:"box"`
	Confidence float64         `json:"confidence"`
}

// Result is the outcome of one Rectify call.
type Result struct {
	// ID correlates log lines, trace events and batch report entries.
	ID uuid.UUID `json:"id"`

	State  State   `json:"state"`
	Method Method  `json:"method,omitempty"`
	Trail  []State `json:"trail"`

	// Image is nil when State is StateMissed.
	Image image.Image `json:"-"`

	// Corners is set when the image was produced by a perspective warp.
	Corners *geometry.CornerSet `json:"corners,omitempty"`

	// Crop is the source rectangle the image was cut from, or the bounds of
	// Corners for warped results.
	Crop image.Rectangle `json:"crop"`

	// Reason explains a Missed result. It matches ErrMissed and the
	// underlying cause under errors.Is.
	Reason error `json:"-"`
}

// Engine runs the detection fallback chain. It holds only configuration and
// collaborators, so one Engine may serve many goroutines.
type Engine struct {
	cfg       Config
	extractor detection.Extractor
	strategy  quad.Strategy
	selector  *quad.Selector
	rectifier *rectify.Rectifier
	locator   TextLocator
	tracer    Tracer
	log       logrus.FieldLogger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithTextLocator sets the collaborator used for low-confidence crops.
func WithTextLocator(l TextLocator) Option {
	return func(e *Engine) { e.locator = l }
}

// WithExtractor replaces the backend selected by Config.Backend.
func WithExtractor(x detection.Extractor) Option {
	return func(e *Engine) { e.extractor = x }
}

// WithTracer sets the transition observer.
func WithTracer(t Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithLogger sets the logger. The default is logrus' standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

// New validates cfg and builds an engine.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	strategy, err := quad.NewStrategy(cfg.Quad)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       cfg,
		strategy:  strategy,
		selector:  quad.NewSelector(cfg.Quad),
		rectifier: rectify.New(cfg.Rectify),
		tracer:    NopTracer{},
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.extractor == nil {
		if e.extractor, err = detection.NewExtractor(cfg.Backend, cfg.Detection); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Rectify produces a plate image for det, walking the fallback chain:
//
//	direct_crop -> done                                       (confident box)
//	direct_crop -> text_region -> done | missed               (crop mode)
//	direct_crop -> line_reconstruction -> done                (rectify mode)
//	            -> contour_fallback -> done | missed
//
// Each state is entered at most once. A Missed result is not an error: it
// is returned with a nil error and Result.Reason set. The error return is
// reserved for arguments wrapping ErrInvalidInput.
func (e *Engine) Rectify(img image.Image, det Detection) (*Result, error) {
	if err := validateInput(img, det); err != nil {
		return nil, err
	}

	r := e.newRun(img)
	bounds := img.Bounds()
	box := det.Box.Intersect(bounds)
	expanded := imaging.ExpandBox(box, imaging.MarginFor(bounds.Dx(), e.cfg.DirectMargin), bounds)

	if det.Confidence >= e.cfg.ConfidenceThreshold {
		out, err := imaging.Crop(img, expanded)
		if err != nil {
			return nil, errors.Wrap(err, "failed to crop detector box")
		}
		return r.done(MethodDetector, out, expanded, nil, Event{Region: expanded}), nil
	}

	if e.cfg.Mode == ModeCrop {
		r.to(StateTextRegion, nil, Event{Region: expanded})
		return r.textRegion(), nil
	}

	r.to(StateLineReconstruction, nil, Event{Region: expanded})
	res, ev, err := r.reconstruct(expanded, box)
	if err == nil {
		return res, nil
	}
	r.to(StateContourFallback, err, ev)
	return r.contour(expanded), nil
}

// DetectLines runs extraction, merging and classification on img.
func (e *Engine) DetectLines(img image.Image) ([]geometry.Segment, detection.Classified, error) {
	segments, err := e.extractor.Extract(img)
	if err != nil {
		return nil, detection.Classified{}, errors.Wrap(err, "failed to extract line evidence")
	}
	if len(segments) == 0 {
		return nil, detection.Classified{}, errors.WithMessage(ErrNoEvidence, "extractor returned no segments")
	}
	merged := detection.MergeSegments(segments, e.cfg.Detection.MergeTolerance, e.cfg.Detection.MergeCosine)
	return segments, detection.Classify(merged, e.cfg.Detection), nil
}

// FindCorners reconstructs the plate quadrilateral of img from its lines.
func (e *Engine) FindCorners(img image.Image) (*quad.Selection, error) {
	_, lines, err := e.DetectLines(img)
	if err != nil {
		return nil, err
	}
	return e.selector.Select(e.strategy.Search(lines))
}

func validateInput(img image.Image, det Detection) error {
	if img == nil {
		return errors.WithMessage(ErrInvalidInput, "nil image")
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return errors.WithMessagef(ErrInvalidInput, "empty image bounds %v", bounds)
	}
	if det.Box.Empty() {
		return errors.WithMessagef(ErrInvalidInput, "empty detector box %v", det.Box)
	}
	if !det.Box.Overlaps(bounds) {
		return errors.WithMessagef(ErrInvalidInput, "detector box %v outside image bounds %v", det.Box, bounds)
	}
	if math.IsNaN(det.Confidence) || det.Confidence < 0 || det.Confidence > 1 {
		return errors.WithMessagef(ErrInvalidInput, "confidence %v outside [0, 1]", det.Confidence)
	}
	return nil
}

// run is the per-call state of one Rectify invocation.
type run struct {
	e     *Engine
	img   image.Image
	id    uuid.UUID
	state State
	trail []State
	log   logrus.FieldLogger
}

func (e *Engine) newRun(img image.Image) *run {
	id := uuid.New()
	return &run{
		e:     e,
		img:   img,
		id:    id,
		state: StateDirectCrop,
		trail: []State{StateDirectCrop},
		log:   e.log.WithField("id", id.String()),
	}
}

func (r *run) to(next State, reason error, ev Event) {
	fields := logrus.Fields{"from": r.state, "to": next}
	if reason != nil {
		fields["reason"] = reason.Error()
		ev.Reason = reason.Error()
	}
	r.log.WithFields(fields).Debug("state transition")

	ev.ID = r.id
	ev.From = r.state
	ev.To = next
	ev.Source = r.img
	r.e.tracer.Trace(ev)

	r.state = next
	r.trail = append(r.trail, next)
}

func (r *run) done(method Method, img image.Image, crop image.Rectangle, corners *geometry.CornerSet, ev Event) *Result {
	r.to(StateDone, nil, ev)
	if w := r.e.cfg.OutputWidth; w > 0 {
		img = imaging.ResizeToWidth(img, w)
	}
	return &Result{
		ID:      r.id,
		State:   StateDone,
		Method:  method,
		Trail:   r.trail,
		Image:   img,
		Corners: corners,
		Crop:    crop,
	}
}

func (r *run) miss(cause error, ev Event) *Result {
	reason := missed(cause)
	r.to(StateMissed, reason, ev)
	r.log.WithField("reason", cause.Error()).Info("plate missed")
	return &Result{
		ID:     r.id,
		State:  StateMissed,
		Trail:  r.trail,
		Reason: reason,
	}
}

// textRegion crops around the largest text region of the whole image.
func (r *run) textRegion() *Result {
	bounds := r.img.Bounds()
	ev := Event{Region: bounds}

	if r.e.locator == nil {
		return r.miss(errors.WithMessage(ErrNoTextRegion, "no text locator configured"), ev)
	}
	poly, err := r.e.locator.LargestTextRegion(r.img)
	if err != nil {
		return r.miss(errors.WithMessage(ErrNoTextRegion, "text locator failed: "+err.Error()), ev)
	}
	if len(poly) == 0 && r.e.cfg.TextRetryBinary {
		poly, err = r.binaryTextRegion()
		if err != nil {
			return r.miss(errors.WithMessage(ErrNoTextRegion, "text locator failed on binarized image: "+err.Error()), ev)
		}
	}
	if len(poly) == 0 {
		return r.miss(ErrNoTextRegion, ev)
	}

	region := geometry.BoundsOf(poly).ImageRect()
	region = imaging.ExpandBox(region, imaging.MarginFor(bounds.Dx(), r.e.cfg.TextMargin), bounds)
	if region.Empty() {
		return r.miss(errors.WithMessagef(ErrNoTextRegion, "text region %v outside image", region), ev)
	}
	out, err := imaging.Crop(r.img, region)
	if err != nil {
		return r.miss(errors.WithMessage(ErrNoTextRegion, err.Error()), ev)
	}
	ev.Region = region
	return r.done(MethodTextRegion, out, region, nil, ev)
}

// binaryTextRegion asks the locator again on an Otsu-binarized copy and maps
// the polygon back to image coordinates.
func (r *run) binaryTextRegion() ([]geometry.Point, error) {
	binary := detection.BinarizeRegion(r.img, r.e.cfg.Detection)
	poly, err := r.e.locator.LargestTextRegion(binary)
	if err != nil || len(poly) == 0 {
		return nil, err
	}
	origin := r.img.Bounds().Min
	out := make([]geometry.Point, len(poly))
	for i, p := range poly {
		out[i] = geometry.Point{X: p.X + float64(origin.X), Y: p.Y + float64(origin.Y)}
	}
	return out, nil
}

// reconstruct runs the line pipeline over region and warps the winner.
func (r *run) reconstruct(region, box image.Rectangle) (*Result, Event, error) {
	ev := Event{Region: region}
	segments, lines, err := r.e.DetectLines(imaging.Region(r.img, region))
	ev.Segments = segments
	if err != nil {
		return nil, ev, err
	}
	ev.Lines = &lines

	sel, err := r.e.selector.Select(r.e.strategy.Search(lines))
	if err != nil {
		return nil, ev, err
	}
	corners := sel.Corners
	ev.Corners = &corners

	crop := corners.Bounds().ImageRect()
	if r.e.cfg.RequireOverlap && !crop.Overlaps(box) {
		return nil, ev, errors.Wrapf(ErrNoValidQuadrilateral, "corners %v miss detector box %v", crop, box)
	}

	out, err := r.e.rectifier.Rectify(r.img, corners)
	if err != nil {
		return nil, ev, err
	}
	return r.done(MethodLines, out, crop, &corners, ev), ev, nil
}

// contour crops, or warps, the largest binarized component of region.
func (r *run) contour(region image.Rectangle) *Result {
	ev := Event{Region: region}
	c, ok := detection.LargestContour(imaging.Region(r.img, region), r.e.cfg.Detection)
	if !ok {
		return r.miss(errors.WithMessage(ErrNoEvidence, "no contour in region"), ev)
	}
	ev.Contour = c

	if r.e.cfg.ContourWarp {
		corners, err := geometry.Canonicalize(c.Corners, r.e.cfg.Quad.MinArea)
		if err == nil {
			var out image.Image
			if out, err = r.e.rectifier.Rectify(r.img, corners); err == nil {
				ev.Corners = &corners
				return r.done(MethodContour, out, corners.Bounds().ImageRect(), &corners, ev)
			}
		}
		r.log.WithError(err).Debug("contour warp failed, cropping bounds")
	}

	out, err := imaging.Crop(r.img, c.Bounds)
	if err != nil {
		return r.miss(errors.WithMessage(ErrNoEvidence, err.Error()), ev)
	}
	return r.done(MethodContour, out, c.Bounds, nil, ev)
}
