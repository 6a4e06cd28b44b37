package display

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/philipparndt/stlmark/pkg/geometry"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var projections = [3]struct {
	name string
	u, v int
}{
	{"XY", 0, 1},
	{"XZ", 0, 2},
	{"YZ", 1, 2},
}

// Plot writes three orthographic projections of the snapshot side by
// side as a PNG image: vertices as points, facet centroids as crosses.
func Plot(snap Snapshot, path string) error {
	axes := [3]string{"x", "y", "z"}
	if snap.PCA() {
		axes = [3]string{"pc1", "pc2", "pc3"}
	}

	tris := snap.Triangles()
	row := make([]*plot.Plot, len(projections))
	for i, proj := range projections {
		p, err := projectionPlot(tris, proj.u, proj.v)
		if err != nil {
			return fmt.Errorf("failed to plot %s projection: %w", proj.name, err)
		}
		p.Title.Text = fmt.Sprintf("%s (%s)", snap.Name(), proj.name)
		p.X.Label.Text = axes[proj.u]
		p.Y.Label.Text = axes[proj.v]
		row[i] = p
	}

	img := vgimg.New(36*vg.Centimeter, 12*vg.Centimeter)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 1, Cols: len(row),
		PadX: vg.Millimeter, PadY: vg.Millimeter,
		PadTop: vg.Millimeter, PadBottom: vg.Millimeter,
		PadLeft: vg.Millimeter, PadRight: vg.Millimeter,
	}
	canvases := plot.Align([][]*plot.Plot{row}, tiles, dc)
	for j, p := range row {
		p.Draw(canvases[0][j])
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func projectionPlot(tris []geometry.Triangle, u, v int) (*plot.Plot, error) {
	var vertices, centers plotter.XYs
	for _, t := range tris {
		for _, p := range t.Vertices() {
			vertices = append(vertices, plotter.XY{X: p.Component(u), Y: p.Component(v)})
		}
		c := t.Center()
		centers = append(centers, plotter.XY{X: c.Component(u), Y: c.Component(v)})
	}

	p := plot.New()
	p.Add(plotter.NewGrid())

	vs, err := plotter.NewScatter(vertices)
	if err != nil {
		return nil, err
	}
	vs.GlyphStyle.Color = color.RGBA{R: 40, G: 90, B: 200, A: 255}
	vs.GlyphStyle.Radius = vg.Points(1.5)

	cs, err := plotter.NewScatter(centers)
	if err != nil {
		return nil, err
	}
	cs.GlyphStyle.Color = color.RGBA{R: 200, G: 60, B: 40, A: 255}
	cs.GlyphStyle.Shape = draw.CrossGlyph{}
	cs.GlyphStyle.Radius = vg.Points(2)

	p.Add(vs, cs)
	p.Legend.Add("vertices", vs)
	p.Legend.Add("facet centers", cs)
	p.Legend.Top = true
	return p, nil
}
