package detection

import (
	"image"
	"math/rand"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/ironsheep/plate-rectify/internal/geometry"
	"github.com/ironsheep/plate-rectify/internal/imaging"
)

// ErrNoEvidence reports that a region produced no usable lines or contours.
var ErrNoEvidence = errors.New("no line evidence")

// Extractor turns a pixel region into raw straight-line segments.
//
// Implementations return segments in the coordinate space of the input image
// (its bounds offset included). An image without line evidence yields an
// empty slice and a nil error; errors are reserved for unusable input.
type Extractor interface {
	Extract(img image.Image) ([]geometry.Segment, error)
}

// Evidence holds the intermediate rasters of one extraction, for tracing.
type Evidence struct {
	Binary   *image.Gray
	Mask     *image.Gray
	Edges    *image.Gray
	Segments []geometry.Segment
}

// LineExtractor is the pure-Go Extractor.
type LineExtractor struct {
	cfg Config
}

// NewLineExtractor creates an extractor with the given configuration.
func NewLineExtractor(cfg Config) *LineExtractor {
	return &LineExtractor{cfg: cfg}
}

// Extract implements Extractor.
func (e *LineExtractor) Extract(img image.Image) ([]geometry.Segment, error) {
	ev, err := e.Analyze(img)
	if err != nil {
		return nil, err
	}
	return ev.Segments, nil
}

// Analyze runs the extraction pipeline and keeps every intermediate raster.
//
// # Pipeline
//
//  1. Lightness quantization into coarse bands (also converts to grayscale)
//  2. Dilation of bright strokes
//  3. Median smoothing
//  4. Otsu binarization, falling back to the base threshold on flat input
//  5. Connected components of the binary mask, small ones dropped, redrawn
//     into a clean mask
//  6. Canny edges of the clean mask
//  7. Probabilistic Hough transform over the edges
//
// Rasters are anchored at (0, 0); Segments are shifted back into the input's
// coordinate space.
func (e *LineExtractor) Analyze(img image.Image) (*Evidence, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, errors.Errorf("empty image bounds %v", bounds)
	}

	binary := BinarizeRegion(img, e.cfg)
	components := imaging.FindComponents(binary, e.cfg.MinContourPixels)
	mask := imaging.DrawComponents(binary.Bounds(), components)
	edges := imaging.Canny(mask, e.cfg.CannyLow, e.cfg.CannyHigh)

	rng := rand.New(rand.NewSource(e.cfg.Seed))
	raw := probabilisticHough(edges, houghParams{
		threshold: e.cfg.HoughThreshold,
		minLength: e.cfg.MinLineLength,
		maxGap:    e.cfg.MaxLineGap,
		maxLines:  e.cfg.MaxSegments,
	}, rng)

	segments := make([]geometry.Segment, len(raw))
	for i, s := range raw {
		segments[i] = s.Translate(float64(bounds.Min.X), float64(bounds.Min.Y))
	}

	return &Evidence{
		Binary:   binary,
		Mask:     mask,
		Edges:    edges,
		Segments: segments,
	}, nil
}

// BinarizeRegion applies quantization, dilation, median smoothing and Otsu
// thresholding. The mask is anchored at (0, 0).
func BinarizeRegion(img image.Image, cfg Config) *image.Gray {
	quantized := imaging.QuantizeLightness(img, cfg.QuantizeBands)
	dilated := imaging.Dilate(quantized, cfg.DilateRadius)
	smoothed := imaging.MedianBlur(dilated, cfg.MedianRadius)
	binary, _ := imaging.OtsuBinarize(smoothed, cfg.BaseThreshold)
	return binary
}

// BackendGo is the name of the built-in pure-Go extractor.
const BackendGo = "go"

var (
	backendsMu sync.RWMutex
	backends   = map[string]func(Config) Extractor{
		BackendGo: func(cfg Config) Extractor { return NewLineExtractor(cfg) },
	}
)

// RegisterBackend makes an extractor implementation available by name.
// Registering the same name twice replaces the earlier factory.
func RegisterBackend(name string, factory func(Config) Extractor) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[name] = factory
}

// Backends lists the registered extractor names in sorted order.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewExtractor returns the extractor registered under name. An empty name
// selects the pure-Go backend.
func NewExtractor(name string, cfg Config) (Extractor, error) {
	if name == "" {
		name = BackendGo
	}
	backendsMu.RLock()
	factory, ok := backends[name]
	backendsMu.RUnlock()
	if !ok {
		return nil, errors.Errorf("extractor backend %q not available (have %v)", name, Backends())
	}
	return factory(cfg), nil
}
