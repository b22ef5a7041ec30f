// Package bankview draws the fader bank as a custom Fyne widget: one
// vertical track per channel with the live handle position, a movement
// trail and the assigned Control Change number.
package bankview

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/jfbarahonag/midi-fader/pkg/config"
	"github.com/jfbarahonag/midi-fader/pkg/monitor"
)

// BankView is a custom Fyne widget that displays the state of every fader.
type BankView struct {
	widget.BaseWidget

	// Data (protected by mu)
	mu          sync.RWMutex
	values      []uint16
	trails      [][]monitor.Position
	moving      []bool
	controllers []uint8

	// Display buffers (reused for downsampling)
	displayTrails [][]monitor.Position

	// Display settings
	maxTrailPoints int
}

// New creates a BankView sized for the configured fader bank.
func New(cfg *config.Config) *BankView {
	n := cfg.Faders.Channels
	v := &BankView{
		values:         make([]uint16, n),
		trails:         make([][]monitor.Position, n),
		moving:         make([]bool, n),
		controllers:    append([]uint8(nil), cfg.MIDI.Controllers...),
		displayTrails:  make([][]monitor.Position, n),
		maxTrailPoints: 200, // Limit points per channel for efficient rendering
	}
	v.ExtendBaseWidget(v)
	// Trigger initial refresh to display the idle bank
	v.Refresh()
	return v
}

// UpdateData updates the widget with new monitor data.
// This should be called from the monitor callback using fyne.Do().
func (v *BankView) UpdateData(values []uint16, trails [][]monitor.Position, moving []bool) {
	v.mu.Lock()

	v.values = values
	v.trails = trails
	v.moving = moving

	// Downsample the trails for display (reuse buffers)
	for len(v.displayTrails) < len(trails) {
		v.displayTrails = append(v.displayTrails, nil)
	}
	for ch, trail := range trails {
		v.displayTrails[ch] = monitor.DownsampleTrail(v.displayTrails[ch], trail, v.maxTrailPoints)
	}

	v.mu.Unlock()

	// Refresh the widget (must be outside lock to avoid potential deadlock)
	v.Refresh()
}

// SetControllers updates the Control Change captions after a settings
// change.
func (v *BankView) SetControllers(controllers []uint8) {
	v.mu.Lock()
	v.controllers = append(v.controllers[:0], controllers...)
	v.mu.Unlock()

	v.Refresh()
}

// CreateRenderer creates the widget renderer.
func (v *BankView) CreateRenderer() fyne.WidgetRenderer {
	background := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &bankRenderer{
		view:       v,
		background: background,
		objects:    []fyne.CanvasObject{background},
		lastSize:   fyne.Size{Width: 0, Height: 0},
	}
}
