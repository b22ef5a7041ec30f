package bankview

import (
	"image/color"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"github.com/jfbarahonag/midi-fader/pkg/fader"
	"github.com/jfbarahonag/midi-fader/pkg/monitor"
)

// bankRenderer renders the bank view widget.
type bankRenderer struct {
	view *BankView

	// Background
	background *canvas.Rectangle

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *bankRenderer) MinSize() fyne.Size {
	r.view.mu.RLock()
	n := len(r.view.values)
	r.view.mu.RUnlock()
	return fyne.NewSize(float32(90*max(n, 1)), 300)
}

// Layout arranges the widget components.
func (r *bankRenderer) Layout(size fyne.Size) {
	// Background fills the entire widget
	r.background.Resize(size)

	if r.lastSize.Width != size.Width || r.lastSize.Height != size.Height {
		r.lastSize = size
		// Size changed, trigger widget refresh to redraw with new dimensions
		r.view.BaseWidget.Refresh()
	}
}

// Refresh updates the widget display.
func (r *bankRenderer) Refresh() {
	r.view.mu.RLock()
	values := r.view.values
	trails := r.view.displayTrails
	moving := r.view.moving
	controllers := r.view.controllers
	r.view.mu.RUnlock()

	size := r.view.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	// Clear old objects (but keep the background)
	r.objects = []fyne.CanvasObject{r.background}

	n := len(values)
	if n == 0 {
		return
	}

	marginSide := float32(10.0)
	marginTop := float32(30.0)
	marginBottom := float32(34.0)

	colWidth := (size.Width - 2*marginSide) / float32(n)
	trackHeight := size.Height - marginTop - marginBottom
	if colWidth <= 0 || trackHeight <= 0 {
		return
	}

	for ch := 0; ch < n; ch++ {
		colX := marginSide + float32(ch)*colWidth
		centerX := colX + colWidth/2

		r.drawTrack(centerX, marginTop, trackHeight)
		if ch < len(trails) {
			r.drawTrail(colX, marginTop, colWidth, trackHeight, trails[ch])
		}
		r.drawHandle(centerX, marginTop, trackHeight, values[ch], ch < len(moving) && moving[ch])
		r.drawLabels(centerX, marginTop, trackHeight, ch, values[ch], controllers, ch < len(moving) && moving[ch])
	}
}

// drawTrack draws the vertical running surface of one fader.
func (r *bankRenderer) drawTrack(centerX, top, height float32) {
	line := canvas.NewLine(color.RGBA{R: 60, G: 60, B: 60, A: 255})
	line.Position1 = fyne.NewPos(centerX, top)
	line.Position2 = fyne.NewPos(centerX, top+height)
	line.StrokeWidth = 3
	r.objects = append(r.objects, line)

	// End stops
	for _, y := range []float32{top, top + height} {
		stop := canvas.NewLine(color.RGBA{R: 60, G: 60, B: 60, A: 255})
		stop.Position1 = fyne.NewPos(centerX-8, y)
		stop.Position2 = fyne.NewPos(centerX+8, y)
		stop.StrokeWidth = 2
		r.objects = append(r.objects, stop)
	}
}

// drawTrail draws the recent positions of one fader as a thin curve, time
// running left to right across the column.
func (r *bankRenderer) drawTrail(colX, top, width, height float32, trail []monitor.Position) {
	if len(trail) < 2 {
		return
	}

	first := trail[0].Timestamp
	span := trail[len(trail)-1].Timestamp.Sub(first)
	if span <= 0 {
		return
	}

	pad := float32(6.0)
	points := make([]fyne.Position, 0, len(trail))
	for _, p := range trail {
		x := colX + pad + float32(p.Timestamp.Sub(first).Seconds()/span.Seconds())*(width-2*pad)
		points = append(points, fyne.NewPos(x, valueToY(top, height, p.Value)))
	}

	for i := 0; i < len(points)-1; i++ {
		line := canvas.NewLine(color.RGBA{R: 100, G: 200, B: 255, A: 255}) // Light blue
		line.Position1 = points[i]
		line.Position2 = points[i+1]
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)
	}
}

// drawHandle draws the fader handle at its current position.
func (r *bankRenderer) drawHandle(centerX, top, height float32, value uint16, moving bool) {
	c := color.RGBA{R: 150, G: 150, B: 150, A: 255} // Gray at rest
	if moving {
		c = color.RGBA{R: 255, G: 165, B: 0, A: 255} // Orange while moving
	}

	y := valueToY(top, height, value)
	handle := canvas.NewRectangle(c)
	handle.Move(fyne.NewPos(centerX-18, y-5))
	handle.Resize(fyne.NewSize(36, 10))
	r.objects = append(r.objects, handle)
}

// drawLabels draws the Control Change caption above and the current value
// below one fader column.
func (r *bankRenderer) drawLabels(centerX, top, height float32, ch int, value uint16, controllers []uint8, moving bool) {
	caption := "CC -"
	if ch < len(controllers) {
		caption = "CC " + strconv.Itoa(int(controllers[ch]))
	}
	ccText := canvas.NewText(caption, color.RGBA{R: 150, G: 150, B: 150, A: 255})
	ccText.TextSize = 12
	ccText.Alignment = fyne.TextAlignCenter
	ccText.Move(fyne.NewPos(centerX-24, top-22))
	r.objects = append(r.objects, ccText)

	c := color.RGBA{R: 220, G: 220, B: 220, A: 255}
	if moving {
		c = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	}
	valueText := canvas.NewText(strconv.Itoa(int(value)), c)
	valueText.TextSize = 12
	valueText.Alignment = fyne.TextAlignCenter
	valueText.Move(fyne.NewPos(centerX-20, top+height+8))
	r.objects = append(r.objects, valueText)
}

// valueToY maps a published value onto the track, Max at the top.
func valueToY(top, height float32, value uint16) float32 {
	return top + height - float32(value)/float32(fader.Max)*height
}

// Objects returns all canvas objects for rendering.
func (r *bankRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *bankRenderer) Destroy() {
	// Cleanup handled by Fyne
}
