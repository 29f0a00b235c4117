package detection

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/ironsheep/plate-rectify/internal/geometry"
)

// nearLine reports whether some line in lines has its midpoint within tol of
// the given coordinate on the axis perpendicular to it.
func nearLine(lines []OrientedLine, coord, tol float64) bool {
	for _, l := range lines {
		mid := l.Midpoint()
		v := mid.Y
		if l.Orientation == Vertical {
			v = mid.X
		}
		if math.Abs(v-coord) <= tol {
			return true
		}
	}
	return false
}

func TestLineExtractor_Outline(t *testing.T) {
	img := outlineImage(400, 300, 100, 100, 300, 200, 4)
	cfg := DefaultConfig()

	segs, err := NewLineExtractor(cfg).Extract(img)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(segs) == 0 {
		t.Fatal("expected segments along the outline")
	}

	c := Classify(MergeSegments(segs, cfg.MergeTolerance, cfg.MergeCosine), cfg)

	if !nearLine(c.Horizontal, 100, 8) || !nearLine(c.Horizontal, 200, 8) {
		t.Errorf("missing top or bottom edge in %d horizontal lines", len(c.Horizontal))
	}
	if !nearLine(c.Vertical, 100, 8) || !nearLine(c.Vertical, 300, 8) {
		t.Errorf("missing left or right edge in %d vertical lines", len(c.Vertical))
	}
}

func TestLineExtractor_ThinBrightOutline(t *testing.T) {
	img := createTestImage(500, 250, color.Black)
	for _, r := range []image.Rectangle{
		image.Rect(50, 50, 450, 51), image.Rect(50, 199, 450, 200),
		image.Rect(50, 50, 51, 200), image.Rect(449, 50, 450, 200),
	} {
		fillRect(img, r, color.White)
	}
	cfg := DefaultConfig()

	segs, err := NewLineExtractor(cfg).Extract(img)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	c := Classify(MergeSegments(segs, cfg.MergeTolerance, cfg.MergeCosine), cfg)
	if !nearLine(c.Horizontal, 50, 4) || !nearLine(c.Horizontal, 199, 4) {
		t.Errorf("missing top or bottom edge in %d horizontal lines", len(c.Horizontal))
	}
	if !nearLine(c.Vertical, 50, 4) || !nearLine(c.Vertical, 449, 4) {
		t.Errorf("missing left or right edge in %d vertical lines", len(c.Vertical))
	}
}

func TestLineExtractor_Deterministic(t *testing.T) {
	img := outlineImage(300, 200, 50, 50, 250, 150, 6)
	ext := NewLineExtractor(DefaultConfig())

	first, err := ext.Extract(img)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	second, _ := ext.Extract(img)

	if len(first) != len(second) {
		t.Fatalf("segment count differs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("segment %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestLineExtractor_SubImageOffset(t *testing.T) {
	img := outlineImage(400, 300, 100, 100, 300, 200, 4)
	region := img.SubImage(image.Rect(80, 80, 320, 220))

	segs, err := NewLineExtractor(DefaultConfig()).Extract(region)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(segs) == 0 {
		t.Fatal("expected segments")
	}

	bounds := geometry.RectFromImage(image.Rect(78, 78, 322, 222))
	for _, s := range segs {
		for _, p := range s.Endpoints() {
			if p.X < bounds.Min.X || p.X > bounds.Max.X || p.Y < bounds.Min.Y || p.Y > bounds.Max.Y {
				t.Errorf("endpoint %v outside the source region", p)
			}
		}
	}
}

func TestLineExtractor_UniformImages(t *testing.T) {
	for _, c := range []color.Color{color.Black, color.White} {
		segs, err := NewLineExtractor(DefaultConfig()).Extract(createTestImage(120, 80, c))
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if len(segs) != 0 {
			t.Errorf("expected no segments on a uniform image, got %d", len(segs))
		}
	}
}

func TestLineExtractor_InvalidInput(t *testing.T) {
	ext := NewLineExtractor(DefaultConfig())

	if _, err := ext.Extract(nil); err == nil {
		t.Error("expected error for nil image")
	}
	if _, err := ext.Extract(image.NewRGBA(image.Rect(0, 0, 0, 0))); err == nil {
		t.Error("expected error for empty image")
	}
}

func TestNewExtractor(t *testing.T) {
	ext, err := NewExtractor("", DefaultConfig())
	if err != nil {
		t.Fatalf("default backend: %v", err)
	}
	if _, ok := ext.(*LineExtractor); !ok {
		t.Errorf("expected *LineExtractor, got %T", ext)
	}

	if _, err := NewExtractor("no-such-backend", DefaultConfig()); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	bad := DefaultConfig()
	bad.AngleThreshold = 90
	if err := bad.Validate(); err == nil {
		t.Error("expected error for angle_threshold 90")
	}

	bad = DefaultConfig()
	bad.DilateRadius = -1
	if err := bad.Validate(); err == nil {
		t.Error("expected error for negative dilate_radius")
	}

	bad = DefaultConfig()
	bad.MergeCosine = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for merge_cosine 0")
	}
}
