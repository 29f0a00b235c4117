package detection

import (
	"image"
	"image/color"
)

// createTestImage creates a solid color test image
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// fillRect paints r with c.
func fillRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}

// outlineImage draws a black rectangle outline of the given thickness on
// white. The outline's outer edge runs along (x1, y1)-(x2, y2).
func outlineImage(width, height, x1, y1, x2, y2, thickness int) *image.RGBA {
	img := createTestImage(width, height, color.White)
	fillRect(img, image.Rect(x1, y1, x2, y1+thickness), color.Black)
	fillRect(img, image.Rect(x1, y2-thickness, x2, y2), color.Black)
	fillRect(img, image.Rect(x1, y1, x1+thickness, y2), color.Black)
	fillRect(img, image.Rect(x2-thickness, y1, x2, y2), color.Black)
	return img
}
