package display

import (
	"image"
	"image/color"
	"math"
)

type screenPoint struct {
	x, y, z float64
}

// fillTriangle scan-converts a projected triangle, keeping only pixels
// closer than what the depth buffer already holds.
func fillTriangle(img *image.RGBA, zbuffer []float64, a, b, c screenPoint, col color.RGBA) {
	// Sort vertices by Y coordinate (top to bottom)
	if a.y > b.y {
		a, b = b, a
	}
	if b.y > c.y {
		b, c = c, b
	}
	if a.y > b.y {
		a, b = b, a
	}

	bounds := img.Bounds()
	width := bounds.Dx()

	yStart := int(math.Max(0, math.Ceil(a.y)))
	yEnd := int(math.Min(float64(bounds.Max.Y-1), c.y))
	for y := yStart; y <= yEnd; y++ {
		fy := float64(y)

		// long edge a-c always spans this scanline
		left, ok := edgeAt(a, c, fy)
		if !ok {
			continue
		}
		var right screenPoint
		if fy <= b.y {
			right, ok = edgeAt(a, b, fy)
		} else {
			right, ok = edgeAt(b, c, fy)
		}
		if !ok {
			right = b
		}
		if left.x > right.x {
			left, right = right, left
		}

		xStart := int(math.Max(0, math.Ceil(left.x)))
		xEnd := int(math.Min(float64(bounds.Max.X-1), right.x))
		for x := xStart; x <= xEnd; x++ {
			t := 0.0
			if right.x != left.x {
				t = (float64(x) - left.x) / (right.x - left.x)
			}
			z := left.z + t*(right.z-left.z)

			// Depth test - draw if closer (smaller z)
			idx := y*width + x
			if z < zbuffer[idx] {
				zbuffer[idx] = z
				img.SetRGBA(x, y, col)
			}
		}
	}
}

func edgeAt(p, q screenPoint, y float64) (screenPoint, bool) {
	if p.y == q.y {
		return screenPoint{}, false
	}
	t := (y - p.y) / (q.y - p.y)
	return screenPoint{x: p.x + t*(q.x-p.x), y: y, z: p.z + t*(q.z-p.z)}, true
}

// drawLine draws a line on an image using Bresenham's algorithm
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, col color.RGBA) {
	bounds := img.Bounds()

	dx := abs(x2 - x1)
	dy := abs(y2 - y1)

	sx, sy := -1, -1
	if x1 < x2 {
		sx = 1
	}
	if y1 < y2 {
		sy = 1
	}

	err := dx - dy
	for {
		if x1 >= 0 && x1 < bounds.Max.X && y1 >= 0 && y1 < bounds.Max.Y {
			img.SetRGBA(x1, y1, col)
		}
		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
