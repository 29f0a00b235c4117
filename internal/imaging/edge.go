package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/blur"
)

// Canny performs Canny edge detection on a grayscale image.
//
// Parameters:
//   - gray: Source image. For line extraction this is the cleaned binary mask,
//     so the gradients come from mask boundaries rather than raw texture.
//   - thresholdLow: Low hysteresis threshold (0-255). Typical value: 50.
//   - thresholdHigh: High hysteresis threshold (0-255). Typical value: 150.
//
// Returns a mask with the same bounds as gray where edge pixels are 255 and
// everything else is 0.
//
// # Algorithm
//
//  1. Gaussian blur: bild's 5-tap separable kernel to reduce noise
//
//  2. Gradient computation: Sobel operators for X and Y gradients
//     magnitude = sqrt(Gx² + Gy²)
//     direction = atan2(Gy, Gx)
//
//  3. Non-maximum suppression: Thin edges to 1-pixel width by keeping only
//     local maxima in the gradient direction
//
//  4. Hysteresis thresholding:
//     - Pixels above thresholdHigh are strong edges (always kept)
//     - Pixels between the thresholds are kept only when 8-connected, directly
//     or through other weak pixels, to a strong edge
//     - Pixels below thresholdLow are discarded
func Canny(gray *image.Gray, thresholdLow, thresholdHigh int) *image.Gray {
	bounds := gray.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	result := image.NewGray(bounds)
	if width < 3 || height < 3 {
		return result
	}

	blurred := gaussianBlur(gray, width, height)
	magnitude, direction := sobel(blurred, width, height)
	suppressed := nonMaxSuppress(magnitude, direction, width, height)

	lowThresh := float64(thresholdLow) / 255.0
	highThresh := float64(thresholdHigh) / 255.0

	// Seed from strong pixels and grow through weak ones.
	stack := make([]image.Point, 0, 256)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if suppressed[y][x] >= highThresh {
				result.SetGray(x+bounds.Min.X, y+bounds.Min.Y, color.Gray{Y: 255})
				stack = append(stack, image.Point{X: x, Y: y})
			}
		}
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for ky := -1; ky <= 1; ky++ {
			for kx := -1; kx <= 1; kx++ {
				px, py := p.X+kx, p.Y+ky
				if px < 0 || px >= width || py < 0 || py >= height {
					continue
				}
				if suppressed[py][px] < lowThresh {
					continue
				}
				if result.GrayAt(px+bounds.Min.X, py+bounds.Min.Y).Y != 0 {
					continue
				}
				result.SetGray(px+bounds.Min.X, py+bounds.Min.Y, color.Gray{Y: 255})
				stack = append(stack, image.Point{X: px, Y: py})
			}
		}
	}

	return result
}

func sobel(blurred [][]float64, width, height int) (magnitude, direction [][]float64) {
	sobelX := [][]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [][]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	magnitude = make([][]float64, height)
	direction = make([][]float64, height)
	for y := 0; y < height; y++ {
		magnitude[y] = make([]float64, width)
		direction[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					gx += blurred[py][px] * sobelX[ky+1][kx+1]
					gy += blurred[py][px] * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y][x] = math.Sqrt(gx*gx + gy*gy)
			direction[y][x] = math.Atan2(gy, gx)
		}
	}
	return magnitude, direction
}

// nonMaxSuppress keeps a pixel only when it is a local maximum along its
// gradient direction. Border pixels are always dropped.
func nonMaxSuppress(magnitude, direction [][]float64, width, height int) [][]float64 {
	suppressed := make([][]float64, height)
	for y := 0; y < height; y++ {
		suppressed[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			if y == 0 || y == height-1 || x == 0 || x == width-1 {
				continue
			}

			angle := direction[y][x]
			mag := magnitude[y][x]
			if mag == 0 {
				continue
			}

			var n1, n2 float64
			if (angle >= -math.Pi/8 && angle < math.Pi/8) || (angle >= 7*math.Pi/8 || angle < -7*math.Pi/8) {
				n1 = magnitude[y][x-1]
				n2 = magnitude[y][x+1]
			} else if (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8) {
				n1 = magnitude[y-1][x-1]
				n2 = magnitude[y+1][x+1]
			} else if (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8) {
				n1 = magnitude[y-1][x]
				n2 = magnitude[y+1][x]
			} else {
				n1 = magnitude[y-1][x+1]
				n2 = magnitude[y+1][x-1]
			}

			// Ties on a flat ridge keep only the first pixel, so thick
			// plateaus still thin to one pixel.
			if mag > n1 && mag >= n2 {
				suppressed[y][x] = mag
			}
		}
	}
	return suppressed
}

// gaussianBlur smooths gray with bild's separable Gaussian (radius 2, a
// 5-tap kernel, replicated borders) and returns intensities in [0, 1].
func gaussianBlur(gray *image.Gray, width, height int) [][]float64 {
	blurred := blur.Gaussian(gray, 2)
	b := blurred.Bounds()

	result := make([][]float64, height)
	for y := 0; y < height; y++ {
		result[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			result[y][x] = float64(blurred.Pix[blurred.PixOffset(b.Min.X+x, b.Min.Y+y)]) / 255.0
		}
	}
	return result
}

func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
