package display

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

var (
	background = color.RGBA{30, 30, 36, 255}
	baseColor  = color.RGBA{90, 160, 230, 255}
	edgeColor  = color.RGBA{20, 20, 20, 255}
)

// View selects how a snapshot is rendered.
type View struct {
	Width, Height int
	// RotationX and RotationY orbit the camera around the model center.
	RotationX, RotationY float64
	// Zoom scales the camera distance, 1 keeps the default framing.
	Zoom float64
	// Edges draws facet outlines on top of the shaded surface.
	Edges bool
}

// DefaultView is a slightly raised three-quarter view.
func DefaultView(width, height int) View {
	return View{Width: width, Height: height, RotationX: 0.45, RotationY: 0.6, Zoom: 1}
}

// Render draws the snapshot with flat shading from the default view.
func Render(snap Snapshot, width, height int) *image.RGBA {
	return RenderView(snap, DefaultView(width, height))
}

// RenderView draws the snapshot with flat shading and a depth buffer.
func RenderView(snap Snapshot, v View) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, v.Width, v.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)
	if v.Width <= 0 || v.Height <= 0 {
		return img
	}

	cam := NewCamera(snap.BoundingBox())
	if v.Zoom > 0 {
		cam.Distance *= v.Zoom
	}
	cam.Rotate(v.RotationX, v.RotationY)

	zbuffer := make([]float64, v.Width*v.Height)
	for i := range zbuffer {
		zbuffer[i] = math.Inf(1)
	}

	w, h := float64(v.Width), float64(v.Height)
	light := cam.Forward().Neg()
	for _, t := range snap.Triangles() {
		var pts [3]screenPoint
		for i, p := range t.Vertices() {
			x, y, z := cam.Project(p, w, h)
			pts[i] = screenPoint{x, y, z}
		}
		fillTriangle(img, zbuffer, pts[0], pts[1], pts[2], shade(t.CalculateNormal().Dot(light)))

		if v.Edges {
			for i := 0; i < 3; i++ {
				a, b := pts[i], pts[(i+1)%3]
				drawLine(img, int(a.x), int(a.y), int(b.x), int(b.y), edgeColor)
			}
		}
	}
	return img
}

// shade darkens the base color for facets turned away from the viewer.
// Back faces are lit by their absolute angle so open meshes stay visible.
func shade(cos float64) color.RGBA {
	k := 0.25 + 0.75*math.Abs(cos)
	return color.RGBA{
		R: uint8(float64(baseColor.R) * k),
		G: uint8(float64(baseColor.G) * k),
		B: uint8(float64(baseColor.B) * k),
		A: 255,
	}
}
