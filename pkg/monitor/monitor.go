// Package monitor consumes fader frames and maintains the per-channel
// state the UI and MIDI layers feed on: current values, movement trails
// and motion flags.
package monitor

import (
	"log"
	"sync"
	"time"

	"github.com/jfbarahonag/midi-fader/pkg/config"
	"github.com/jfbarahonag/midi-fader/pkg/device"
)

var _ FrameMonitor = (*Monitor)(nil)

// Position is one point of a channel's movement trail.
type Position struct {
	Timestamp time.Time
	Value     uint16 // published 12-bit value (0-4095)
}

// FrameMonitor processes frames and maintains per-channel display state.
type FrameMonitor interface {
	ProcessFrames(input <-chan device.Frame)
	Values() []uint16                                                      // Latest value per channel
	Trails() [][]Position                                                  // Per-channel position history within the window (oldest first)
	Moving() []bool                                                        // Per-channel motion flag
	OnUpdate(func(values []uint16, trails [][]Position, moving []bool))    // Register callback for updates
}

// Monitor implements FrameMonitor.
// Trails are FIFO buffers ordered oldest first, newest last; removal is
// based on the frame timestamp (time window), not point count. All time
// arithmetic uses frame timestamps, so replayed or simulated streams
// behave the same as live ones.
type Monitor struct {
	channels int

	mu         sync.RWMutex
	values     []uint16
	trails     [][]Position
	moving     []bool
	anchor     []uint16    // rest position motion is measured against
	lastMotion []time.Time // frame time of the last threshold crossing
	seeded     bool

	callbacks []func(values []uint16, trails [][]Position, moving []bool)
	cbMu      sync.RWMutex

	window    time.Duration
	threshold uint16
	hold      time.Duration

	// Shutdown control
	shutdown bool // Set when the input channel closes, prevents further callbacks
}

// New creates a Monitor sized for the configured fader bank.
func New(cfg *config.Config) *Monitor {
	n := cfg.Faders.Channels
	return &Monitor{
		channels:   n,
		values:     make([]uint16, n),
		trails:     make([][]Position, n),
		moving:     make([]bool, n),
		anchor:     make([]uint16, n),
		lastMotion: make([]time.Time, n),
		window:     time.Duration(cfg.Monitor.WindowSeconds * float64(time.Second)),
		threshold:  cfg.Monitor.MotionThreshold,
		hold:       cfg.Monitor.MotionHold,
	}
}

// Channels returns the number of monitored channels.
func (m *Monitor) Channels() int { return m.channels }

// ProcessFrames processes frames from the input channel until it closes,
// then sets the shutdown flag to prevent further callbacks.
func (m *Monitor) ProcessFrames(input <-chan device.Frame) {
	for f := range input {
		m.processFrame(f)
	}
	m.mu.Lock()
	m.shutdown = true
	m.mu.Unlock()
}

// processFrame folds one frame into the per-channel state.
func (m *Monitor) processFrame(f device.Frame) {
	m.mu.Lock()

	if len(f.Values) != m.channels {
		m.mu.Unlock()
		log.Printf("Dropping frame with %d channels, expected %d", len(f.Values), m.channels)
		return
	}

	// The first frame seeds the rest positions; motion starts from there.
	seeding := !m.seeded
	cutoff := f.Timestamp.Add(-m.window)
	for ch, v := range f.Values {
		m.values[ch] = v
		m.trails[ch] = append(m.trails[ch], Position{Timestamp: f.Timestamp, Value: v})
		m.trails[ch] = evict(m.trails[ch], cutoff)
		if seeding {
			m.anchor[ch] = v
		} else {
			m.updateMotion(ch, v, f.Timestamp)
		}
	}
	m.seeded = true

	shouldNotify := !m.shutdown
	m.mu.Unlock()

	if shouldNotify {
		m.notifyCallbacks()
	}
}

// updateMotion flags a channel as moving once it travels beyond the
// threshold from its rest position, and settles it after a quiet hold.
// Call with the write lock held.
func (m *Monitor) updateMotion(ch int, v uint16, ts time.Time) {
	if absDiff(v, m.anchor[ch]) > m.threshold {
		m.moving[ch] = true
		m.anchor[ch] = v
		m.lastMotion[ch] = ts
		return
	}
	if m.moving[ch] && ts.Sub(m.lastMotion[ch]) >= m.hold {
		m.moving[ch] = false
		m.anchor[ch] = v
	}
}

// evict drops trail points at or before cutoff, keeping order.
func evict(trail []Position, cutoff time.Time) []Position {
	i := 0
	for i < len(trail) && !trail[i].Timestamp.After(cutoff) {
		i++
	}
	if i == 0 {
		return trail
	}
	return trail[i:]
}

func absDiff(a, b uint16) uint16 {
	if a > b {
		return a - b
	}
	return b - a
}

// Values returns a copy of the latest value per channel.
func (m *Monitor) Values() []uint16 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]uint16, len(m.values))
	copy(result, m.values)
	return result
}

// Trails returns a copy of every channel's position history.
func (m *Monitor) Trails() [][]Position {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return copyTrails(m.trails)
}

// Moving returns a copy of the per-channel motion flags.
func (m *Monitor) Moving() []bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]bool, len(m.moving))
	copy(result, m.moving)
	return result
}

// OnUpdate registers a callback invoked after every processed frame.
// The callback receives its own copies of the data and must not block for
// long; it runs on the frame processing goroutine.
func (m *Monitor) OnUpdate(callback func(values []uint16, trails [][]Position, moving []bool)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// ResetShutdown resets the shutdown flag, allowing callbacks to fire
// again. Call it before attaching the monitor to a new frame stream.
func (m *Monitor) ResetShutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdown = false
}

// notifyCallbacks invokes all registered callbacks with the current data.
// Data is copied once while holding the read lock, then the callbacks run
// without any lock held and share the copies.
func (m *Monitor) notifyCallbacks() {
	m.mu.RLock()
	valuesCopy := make([]uint16, len(m.values))
	copy(valuesCopy, m.values)
	trailsCopy := copyTrails(m.trails)
	movingCopy := make([]bool, len(m.moving))
	copy(movingCopy, m.moving)
	m.mu.RUnlock()

	m.cbMu.RLock()
	callbacks := make([]func(values []uint16, trails [][]Position, moving []bool), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(valuesCopy, trailsCopy, movingCopy)
		}
	}
}

func copyTrails(trails [][]Position) [][]Position {
	result := make([][]Position, len(trails))
	for ch, trail := range trails {
		result[ch] = make([]Position, len(trail))
		copy(result[ch], trail)
	}
	return result
}
