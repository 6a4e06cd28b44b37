package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/philipparndt/stlmark/internal/config"
	"github.com/philipparndt/stlmark/internal/logger"
	"github.com/philipparndt/stlmark/pkg/analysis"
	"github.com/philipparndt/stlmark/pkg/canon"
	"github.com/philipparndt/stlmark/pkg/display"
	"github.com/philipparndt/stlmark/pkg/openscad"
	"github.com/philipparndt/stlmark/pkg/stl"
	"github.com/philipparndt/stlmark/pkg/watermark"
	"go.uber.org/zap"
)

const (
	renderWidth  = 800
	renderHeight = 600
)

type App struct {
	window fyne.Window
	canon  *canon.Canonicalizer

	model *stl.Solid
	frame *canon.Frame
	view  display.View

	image     *canvas.Image
	infoLabel *widget.Label
	refLabel  *widget.Label
	markLabel *widget.Label
	pcaCheck  *widget.Check
}

func main() {
	cfg, err := config.Load(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	a := app.New()
	w := a.NewWindow("stlmark - Facet Order Watermarks")

	appInstance := &App{
		window: w,
		canon:  canon.New(cfg.CanonOptions(), logger.Log),
		view:   display.DefaultView(renderWidth, renderHeight),
	}

	// Check if file was provided as argument
	if len(os.Args) > 1 {
		appInstance.loadFile(os.Args[1])
	} else {
		appInstance.showWelcomeScreen()
	}

	w.Resize(fyne.NewSize(1200, 800))
	w.ShowAndRun()
}

func (a *App) showWelcomeScreen() {
	welcomeLabel := widget.NewLabel("Welcome to stlmark")
	welcomeLabel.TextStyle = fyne.TextStyle{Bold: true}

	instructionLabel := widget.NewLabel("Open an STL or OpenSCAD file to inspect its watermark")

	openButton := widget.NewButton("Open File", func() {
		a.showFileDialog()
	})

	content := container.NewVBox(
		layout.NewSpacer(),
		container.NewCenter(welcomeLabel),
		container.NewCenter(instructionLabel),
		layout.NewSpacer(),
		container.NewCenter(openButton),
		layout.NewSpacer(),
	)

	a.window.SetContent(content)
}

func (a *App) showFileDialog() {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		a.loadFile(reader.URI().Path())
	}, a.window)
}

func (a *App) loadFile(filename string) {
	var (
		model *stl.Solid
		err   error
	)
	if openscad.IsSource(filename) {
		if filename, err = filepath.Abs(filename); err == nil {
			model, err = openscad.NewRenderer(filepath.Dir(filename), logger.Log).Load(context.Background(), filename)
		}
	} else {
		model, err = stl.Parse(filename)
	}
	if err != nil {
		dialog.ShowError(fmt.Errorf("failed to load %s: %w", filename, err), a.window)
		return
	}
	logger.Info("model loaded", zap.String("file", filename), zap.Int("facets", model.Len()))

	a.model = model
	a.frame = nil
	if frame, err := a.canon.Frame(model); err == nil {
		a.frame = &frame
	}
	a.setupMainUI()
}

func (a *App) setupMainUI() {
	a.image = canvas.NewImageFromImage(nil)
	a.image.FillMode = canvas.ImageFillContain
	a.image.SetMinSize(fyne.NewSize(renderWidth/2, renderHeight/2))

	a.infoLabel = widget.NewLabel(a.modelInfo())
	a.refLabel = widget.NewLabel(a.referenceInfo())
	a.refLabel.Wrapping = fyne.TextWrapWord
	a.markLabel = widget.NewLabel(a.payloadInfo())
	a.markLabel.TextStyle = fyne.TextStyle{Bold: true}
	a.markLabel.Wrapping = fyne.TextWrapWord

	a.pcaCheck = widget.NewCheck("Principal frame", func(bool) {
		a.render()
	})
	if a.frame == nil {
		a.pcaCheck.Disable()
	}
	edgesCheck := widget.NewCheck("Show edges", func(checked bool) {
		a.view.Edges = checked
		a.render()
	})

	yaw := widget.NewSlider(-180, 180)
	yaw.SetValue(a.view.RotationY * 180 / math.Pi)
	yaw.OnChanged = func(v float64) {
		a.view.RotationY = v * math.Pi / 180
		a.render()
	}
	pitch := widget.NewSlider(-89, 89)
	pitch.SetValue(a.view.RotationX * 180 / math.Pi)
	pitch.OnChanged = func(v float64) {
		a.view.RotationX = v * math.Pi / 180
		a.render()
	}
	zoom := widget.NewSlider(0.2, 5)
	zoom.Step = 0.1
	zoom.SetValue(a.view.Zoom)
	zoom.OnChanged = func(v float64) {
		a.view.Zoom = v
		a.render()
	}

	openButton := widget.NewButton("Open File", func() {
		a.showFileDialog()
	})
	embedButton := widget.NewButton("Embed Payload...", func() {
		a.showEmbedDialog()
	})
	if a.frame == nil {
		embedButton.Disable()
	}

	infoPanel := container.NewVBox(
		widget.NewLabel("Model Information:"),
		widget.NewSeparator(),
		a.infoLabel,
		widget.NewSeparator(),
		widget.NewLabel("Reference Order:"),
		a.refLabel,
		widget.NewSeparator(),
		widget.NewLabel("Payload:"),
		a.markLabel,
		widget.NewSeparator(),
		widget.NewLabel("Display Options:"),
		a.pcaCheck,
		edgesCheck,
		widget.NewLabel("Yaw"), yaw,
		widget.NewLabel("Pitch"), pitch,
		widget.NewLabel("Zoom"), zoom,
		widget.NewSeparator(),
		openButton,
		embedButton,
	)

	infoScroll := container.NewVScroll(infoPanel)
	infoScroll.SetMinSize(fyne.NewSize(300, 0))

	content := container.NewBorder(nil, nil, nil, infoScroll, a.image)
	a.window.SetContent(content)
	a.render()
}

func (a *App) render() {
	var frame *canon.Frame
	if a.pcaCheck != nil && a.pcaCheck.Checked {
		frame = a.frame
	}
	a.image.Image = display.RenderView(display.NewSnapshot(a.model, frame), a.view)
	a.image.Refresh()
}

func (a *App) modelInfo() string {
	sum := analysis.Summarize(a.model, a.canon)
	return fmt.Sprintf(
		"Model: %s\nFacets: %d\nVertices: %d\nSurface Area: %.2f\n\nDimensions:\n  X: %.2f\n  Y: %.2f\n  Z: %.2f\n\nCapacity: %.1f bits, %d bytes",
		sum.Name,
		sum.FacetCount,
		sum.DistinctVertices,
		sum.SurfaceArea,
		sum.Dimensions.X,
		sum.Dimensions.Y,
		sum.Dimensions.Z,
		sum.CapacityBits,
		sum.CapacityBytes,
	)
}

func (a *App) referenceInfo() string {
	ref, err := a.canon.Reference(a.model)
	if err != nil {
		return err.Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Axis 1: %s\nAxis 2: %s\nAxis 3: %s\n", ref.Frame.Axes[0], ref.Frame.Axes[1], ref.Frame.Axes[2])
	if ref.Ambiguous {
		b.WriteString("Ties broken by facet identity\n")
	}
	b.WriteString("First facets:")
	for pos, idx := range ref.Order[:min(5, len(ref.Order))] {
		fmt.Fprintf(&b, "\n  %d: #%d %s", pos, idx, a.model.ID(idx).Short())
	}
	return b.String()
}

func (a *App) payloadInfo() string {
	payload, err := watermark.NewExtractor(a.canon, logger.Log).Extract(a.model)
	switch {
	case err != nil:
		return "No payload: " + err.Error()
	case len(payload) == 0:
		return "Empty (reference order)"
	default:
		return fmt.Sprintf("%q\n%x", payload, payload)
	}
}

func (a *App) showEmbedDialog() {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("Payload text")
	binary := widget.NewCheck("Binary STL", nil)

	items := []*widget.FormItem{
		widget.NewFormItem("Payload", entry),
		widget.NewFormItem("Format", binary),
	}
	dialog.ShowForm("Embed Payload", "Embed", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		format := stl.FormatASCII
		if binary.Checked {
			format = stl.FormatBinary
		}
		var marked *stl.Solid
		err := errors.New("model has no source file")
		if a.model.File != "" {
			emb := watermark.NewEmbedder(a.canon, format, logger.Log)
			marked, err = emb.EmbedSolid(a.model, "", []byte(entry.Text))
		}
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		dialog.ShowInformation("Embedded", "Written to "+marked.File, a.window)
		a.loadFile(marked.File)
	}, a.window)
}
