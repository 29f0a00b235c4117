package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/lucasb-eyer/go-colorful"
)

// ToGray converts any image to an 8-bit grayscale image anchored at (0, 0).
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	return grayFromRGBA(effect.Grayscale(img))
}

// QuantizeLightness maps every pixel to its perceptual lightness (CIE L*)
// and reduces it to the given number of evenly spaced gray bands.
//
// Collapsing the tonal range into a handful of levels removes the fine
// texture and JPEG ringing that would otherwise survive thresholding as
// speckle. A bands value below 2 keeps the full 8-bit lightness.
//
// The returned image is anchored at (0, 0) regardless of the source bounds.
func QuantizeLightness(img image.Image, bands int) *image.Gray {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := image.NewGray(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c, ok := colorful.MakeColor(img.At(x+bounds.Min.X, y+bounds.Min.Y))
			if !ok {
				// Fully transparent pixels carry no color.
				continue
			}
			l, _, _ := c.Lab()
			out.SetGray(x, y, color.Gray{Y: quantizeLevel(l, bands)})
		}
	}
	return out
}

func quantizeLevel(lightness float64, bands int) uint8 {
	lightness = math.Max(0, math.Min(1, lightness))
	if bands < 2 {
		return uint8(math.Round(lightness * 255))
	}
	level := math.Floor(lightness * float64(bands))
	if level > float64(bands-1) {
		level = float64(bands - 1)
	}
	return uint8(math.Round(level * 255 / float64(bands-1)))
}

// MedianBlur applies a median filter of the given radius. A radius of 2
// corresponds to a 5x5 window. Non-positive radii return the input.
func MedianBlur(gray *image.Gray, radius float64) *image.Gray {
	if radius <= 0 {
		return gray
	}
	return grayFromRGBA(effect.Median(gray, radius))
}

// Dilate replaces every pixel with the brightest value in its
// (2*radius+1)-wide window, thickening bright strokes. Non-positive radii
// return the input.
func Dilate(gray *image.Gray, radius float64) *image.Gray {
	if radius <= 0 {
		return gray
	}
	return grayFromRGBA(effect.Dilate(gray, radius))
}

// Histogram counts the pixels of each gray level.
func Histogram(gray *image.Gray) [256]int {
	var hist [256]int
	bounds := gray.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[gray.GrayAt(x, y).Y]++
		}
	}
	return hist
}

// OtsuLevel returns the global threshold that maximizes the between-class
// variance of the histogram. Pixels strictly above the level belong to the
// foreground. ok is false when fewer than two gray levels are populated,
// in which case no threshold can separate anything.
func OtsuLevel(hist [256]int) (level uint8, ok bool) {
	var total, populated int
	var sumAll float64
	for v, n := range hist {
		total += n
		sumAll += float64(v * n)
		if n > 0 {
			populated++
		}
	}
	if populated < 2 {
		return 0, false
	}

	var weightB int
	var sumB, best float64
	for t := 0; t < 256; t++ {
		weightB += hist[t]
		if weightB == 0 {
			continue
		}
		weightF := total - weightB
		if weightF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		meanB := sumB / float64(weightB)
		meanF := (sumAll - sumB) / float64(weightF)
		between := float64(weightB) * float64(weightF) * (meanB - meanF) * (meanB - meanF)
		if between > best {
			best = between
			level = uint8(t)
		}
	}
	return level, true
}

// Binarize returns a mask where pixels strictly brighter than threshold are
// white (255) and all others black.
func Binarize(gray *image.Gray, threshold uint8) *image.Gray {
	if threshold == 255 {
		return image.NewGray(image.Rect(0, 0, gray.Bounds().Dx(), gray.Bounds().Dy()))
	}
	return rebase(segment.Threshold(gray, threshold+1))
}

// OtsuBinarize thresholds gray at its Otsu level, or at base when the image
// is flat. It returns the mask and the threshold that was applied.
func OtsuBinarize(gray *image.Gray, base uint8) (*image.Gray, uint8) {
	level, ok := OtsuLevel(Histogram(gray))
	if !ok {
		level = base
	}
	return Binarize(gray, level), level
}

// grayFromRGBA takes the red channel of an image whose channels are equal.
func grayFromRGBA(rgba *image.RGBA) *image.Gray {
	bounds := rgba.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			out.Pix[y*out.Stride+x] = rgba.Pix[rgba.PixOffset(x+bounds.Min.X, y+bounds.Min.Y)]
		}
	}
	return out
}

// rebase moves a grayscale image to origin (0, 0) when it is not already
// there.
func rebase(g *image.Gray) *image.Gray {
	bounds := g.Bounds()
	if bounds.Min == (image.Point{}) {
		return g
	}
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		copy(out.Pix[y*out.Stride:y*out.Stride+bounds.Dx()], g.Pix[g.PixOffset(bounds.Min.X, bounds.Min.Y+y):])
	}
	return out
}
