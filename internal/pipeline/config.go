package pipeline

import (
	"math"

	"github.com/pkg/errors"

	"github.com/ironsheep/plate-rectify/internal/detection"
	"github.com/ironsheep/plate-rectify/internal/quad"
	"github.com/ironsheep/plate-rectify/internal/rectify"
)

// Mode selects what happens to low-confidence detections.
type Mode string

const (
	// ModeCrop crops around the largest text region.
	ModeCrop Mode = "crop"

	// ModeRectify reconstructs the plate outline from line evidence and
	// warps it to a fronto-parallel view.
	ModeRectify Mode = "rectify"
)

// Config holds every tunable of the engine.
type Config struct {
	Mode Mode `yaml:"mode"`

	// ConfidenceThreshold is the detector confidence at or above which the
	// box is trusted and cropped directly.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`

	// DirectMargin and TextMargin expand the detector box and the text
	// region by this fraction of the image width.
	DirectMargin float64 `yaml:"direct_margin"`
	TextMargin   float64 `yaml:"text_margin"`

	// TextRetryBinary runs the text locator a second time on an Otsu
	// binarized copy when the first pass finds nothing.
	TextRetryBinary bool `yaml:"text_retry_binary"`

	// RequireOverlap rejects reconstructed corners whose bounds do not
	// intersect the detector box.
	RequireOverlap bool `yaml:"require_overlap"`

	// ContourWarp rectifies the contour fallback quadrilateral instead of
	// cropping its bounding box.
	ContourWarp bool `yaml:"contour_warp"`

	// OutputWidth resizes every produced image to this width. Zero keeps the
	// natural size.
	OutputWidth int `yaml:"output_width"`

	// Backend names the line extractor; see detection.Backends.
	Backend string `yaml:"backend"`

	Detection detection.Config `yaml:"detection"`
	Quad      quad.Config      `yaml:"quad"`
	Rectify   rectify.Config   `yaml:"rectify"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Mode:                ModeCrop,
		ConfidenceThreshold: 0.7,
		DirectMargin:        0.1,
		TextMargin:          0.2,
		TextRetryBinary:     true,
		Backend:             detection.BackendGo,
		Detection:           detection.DefaultConfig(),
		Quad:                quad.DefaultConfig(),
		Rectify:             rectify.DefaultConfig(),
	}
}

// Validate checks the engine settings and every nested section.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeCrop, ModeRectify:
	default:
		return errors.Errorf("mode must be %q or %q, got %q", ModeCrop, ModeRectify, c.Mode)
	}
	if math.IsNaN(c.ConfidenceThreshold) || c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return errors.Errorf("confidence_threshold must be in [0, 1], got %v", c.ConfidenceThreshold)
	}
	if c.DirectMargin < 0 || c.TextMargin < 0 {
		return errors.Errorf("margins must be >= 0, got %v/%v", c.DirectMargin, c.TextMargin)
	}
	if c.OutputWidth < 0 {
		return errors.Errorf("output_width must be >= 0, got %d", c.OutputWidth)
	}
	if err := c.Detection.Validate(); err != nil {
		return errors.Wrap(err, "detection")
	}
	if err := c.Quad.Validate(); err != nil {
		return errors.Wrap(err, "quad")
	}
	if err := c.Rectify.Validate(); err != nil {
		return errors.Wrap(err, "rectify")
	}
	return nil
}
