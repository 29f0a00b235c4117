package imaging

import (
	"image"
	"image/color"
)

// Component is an 8-connected group of foreground pixels in a mask.
type Component struct {
	// Pixels lists every member pixel in the mask's coordinate space.
	Pixels []image.Point

	// Bounds is the tightest rectangle around Pixels (Max exclusive).
	Bounds image.Rectangle
}

// Area returns the pixel count of the component.
func (c Component) Area() int {
	return len(c.Pixels)
}

// FindComponents groups the white pixels of a binary mask into 8-connected
// components.
//
// Uses flood-fill to group connected pixels. Components smaller than
// minPixels are discarded as noise. Components are returned in raster order
// of their first pixel.
func FindComponents(mask *image.Gray, minPixels int) []Component {
	bounds := mask.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	fg := make([][]bool, height)
	visited := make([][]bool, height)
	for y := 0; y < height; y++ {
		fg[y] = make([]bool, width)
		visited[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			fg[y][x] = mask.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y != 0
		}
	}

	components := make([]Component, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !fg[y][x] || visited[y][x] {
				continue
			}
			pixels := make([]image.Point, 0)
			floodFill(fg, visited, x, y, width, height, &pixels)
			if len(pixels) < minPixels {
				continue
			}
			comp := Component{Pixels: pixels}
			for i := range comp.Pixels {
				comp.Pixels[i] = comp.Pixels[i].Add(bounds.Min)
				p := comp.Pixels[i]
				comp.Bounds = comp.Bounds.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))
			}
			components = append(components, comp)
		}
	}

	return components
}

// floodFill performs iterative flood-fill from a starting point.
//
// Uses a stack-based approach (not recursive) to avoid stack overflow on
// large regions. Marks visited pixels and appends them to pixels.
func floodFill(fg, visited [][]bool, startX, startY, width, height int, pixels *[]image.Point) {
	stack := []image.Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if visited[p.Y][p.X] || !fg[p.Y][p.X] {
			continue
		}

		visited[p.Y][p.X] = true
		*pixels = append(*pixels, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, image.Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
}

// DrawComponents renders components as white pixels on a fresh black mask
// with the given bounds.
func DrawComponents(bounds image.Rectangle, components []Component) *image.Gray {
	mask := image.NewGray(bounds)
	for _, c := range components {
		for _, p := range c.Pixels {
			mask.SetGray(p.X, p.Y, color.Gray{Y: 255})
		}
	}
	return mask
}
