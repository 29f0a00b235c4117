package detection

import (
	"image"
	"image/color"
	"testing"
)

func TestLargestContour_BrightBlock(t *testing.T) {
	img := createTestImage(200, 120, color.Black)
	fillRect(img, image.Rect(50, 40, 150, 90), color.White)
	fillRect(img, image.Rect(10, 10, 20, 20), color.White)

	cfg := DefaultConfig()
	cfg.DilateRadius = 0
	cfg.MedianRadius = 0

	c, ok := LargestContour(img, cfg)
	if !ok {
		t.Fatal("expected a contour")
	}
	if c.Bounds != image.Rect(50, 40, 150, 90) {
		t.Errorf("bounds = %v, want (50,40)-(150,90)", c.Bounds)
	}
	if c.Area != 100*50 {
		t.Errorf("area = %d, want %d", c.Area, 100*50)
	}
	if c.Corners[0].X != 50 || c.Corners[0].Y != 40 {
		t.Errorf("top-left corner = %v", c.Corners[0])
	}
	if c.Corners[2].X != 149 || c.Corners[2].Y != 89 {
		t.Errorf("bottom-right corner = %v", c.Corners[2])
	}
}

func TestLargestContour_OutlineInterior(t *testing.T) {
	img := outlineImage(400, 300, 100, 100, 300, 200, 4)

	c, ok := LargestContour(img, DefaultConfig())
	if !ok {
		t.Fatal("expected a contour")
	}
	want := image.Rect(104, 104, 296, 196)
	if abs(c.Bounds.Min.X-want.Min.X) > 3 || abs(c.Bounds.Min.Y-want.Min.Y) > 3 ||
		abs(c.Bounds.Max.X-want.Max.X) > 3 || abs(c.Bounds.Max.Y-want.Max.Y) > 3 {
		t.Errorf("bounds = %v, want about %v", c.Bounds, want)
	}
}

func TestLargestContour_ThinBrightOutline(t *testing.T) {
	img := createTestImage(500, 250, color.Black)
	for _, r := range []image.Rectangle{
		image.Rect(50, 50, 450, 51), image.Rect(50, 199, 450, 200),
		image.Rect(50, 50, 51, 200), image.Rect(449, 50, 450, 200),
	} {
		fillRect(img, r, color.White)
	}

	c, ok := LargestContour(img, DefaultConfig())
	if !ok {
		t.Fatal("expected the 1px outline to survive preprocessing")
	}
	want := image.Rect(50, 50, 450, 200)
	if abs(c.Bounds.Min.X-want.Min.X) > 2 || abs(c.Bounds.Min.Y-want.Min.Y) > 2 ||
		abs(c.Bounds.Max.X-want.Max.X) > 2 || abs(c.Bounds.Max.Y-want.Max.Y) > 2 {
		t.Errorf("bounds = %v, want about %v", c.Bounds, want)
	}

	cfg := DefaultConfig()
	cfg.DilateRadius = 0
	if _, ok := LargestContour(img, cfg); ok {
		t.Error("without dilation the median filter should erase a 1px outline")
	}
}

func TestLargestContour_Offset(t *testing.T) {
	img := createTestImage(200, 120, color.Black)
	fillRect(img, image.Rect(50, 40, 150, 90), color.White)

	cfg := DefaultConfig()
	cfg.DilateRadius = 0
	cfg.MedianRadius = 0

	c, ok := LargestContour(img.SubImage(image.Rect(30, 20, 180, 110)), cfg)
	if !ok {
		t.Fatal("expected a contour")
	}
	if c.Bounds != image.Rect(50, 40, 150, 90) {
		t.Errorf("bounds = %v, want source coordinates", c.Bounds)
	}
}

func TestLargestContour_Uniform(t *testing.T) {
	for _, col := range []color.Color{color.Black, color.White} {
		if _, ok := LargestContour(createTestImage(100, 60, col), DefaultConfig()); ok {
			t.Errorf("expected no contour on uniform %v image", col)
		}
	}
	if _, ok := LargestContour(nil, DefaultConfig()); ok {
		t.Error("expected no contour for nil image")
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
