package imaging

import (
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Crop extracts a rectangular region from an image. The region must lie
// inside the image bounds and be non-empty. The result is anchored at (0, 0).
func Crop(img image.Image, region image.Rectangle) (*image.NRGBA, error) {
	bounds := img.Bounds()

	if !region.In(bounds) {
		return nil, errors.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			region.Min.X, region.Min.Y, region.Max.X, region.Max.Y,
			bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if region.Empty() {
		return nil, errors.New("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	return imaging.Crop(img, region), nil
}

// ExpandBox grows box by margin pixels on every side and clips the result to
// limit. A negative margin shrinks the box.
func ExpandBox(box image.Rectangle, margin int, limit image.Rectangle) image.Rectangle {
	return image.Rect(
		box.Min.X-margin, box.Min.Y-margin,
		box.Max.X+margin, box.Max.Y+margin,
	).Intersect(limit)
}

// MarginFor returns fraction of width rounded to whole pixels.
func MarginFor(width int, fraction float64) int {
	return int(math.Round(float64(width) * fraction))
}

// ResizeToWidth scales img to the given width keeping its aspect ratio, using
// Lanczos resampling. A non-positive width returns an unscaled copy.
func ResizeToWidth(img image.Image, width int) *image.NRGBA {
	if width <= 0 || width == img.Bounds().Dx() {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, width, 0, imaging.Lanczos)
}

// Region returns the part of img inside r, keeping img's coordinates. Images
// that support SubImage share pixels with the result; others are copied.
func Region(img image.Image, r image.Rectangle) image.Image {
	r = r.Intersect(img.Bounds())
	if s, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return s.SubImage(r)
	}
	out := image.NewNRGBA(r)
	draw.Draw(out, r, img, r.Min, draw.Src)
	return out
}
