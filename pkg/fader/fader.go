// Package fader implements the continuous sampling engine behind a bank of
// linear potentiometers. A hardware Converter produces one raw 12-bit sample
// at a time; the engine sequences the channels in round-robin order, filters
// every sample and publishes the result so foreground code can read any
// channel at any moment without locks.
package fader

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/jfbarahonag/midi-fader/pkg/filter"
)

// Published values span the full travel of a fader in the converter's
// native 12-bit resolution.
const (
	Min uint16 = 0
	Max uint16 = 4095
)

// MaxChannels bounds the bank size; channels are addressed by uint8.
const MaxChannels = 256

var (
	// ErrBadChannel is returned by Read for a channel outside [0, Channels).
	ErrBadChannel = errors.New("fader: channel out of range")
	// ErrNoChannels is returned by New when no filters are supplied.
	ErrNoChannels = errors.New("fader: at least one channel required")
	// ErrStarted is returned by Start once the bank is already running.
	ErrStarted = errors.New("fader: already started")
	// ErrStalled reports that a whole lap of hardware triggers failed and
	// the sampling cycle stopped.
	ErrStalled = errors.New("fader: sampling stalled, hardware trigger failing")
)

// Converter abstracts the sampling hardware: conversions are triggered one
// channel at a time and complete asynchronously. Implementations deliver
// each completed conversion to the registered handler exactly once, from a
// single completion context (an interrupt or a dedicated goroutine), and
// never invoke the handler concurrently with itself.
type Converter interface {
	// Configure prepares the hardware to sample the given number of channels.
	Configure(channels int) error
	// SetHandler registers the conversion-complete callback. The handler
	// runs in the completion context and must not block.
	SetHandler(handler func(raw uint16))
	// Trigger starts a single conversion on one channel.
	Trigger(channel uint8) error
}

// Bank sequences conversions round-robin across all channels and holds the
// latest filtered value of each one. A slot is written only by the
// completion handler and read by any number of foreground callers; the
// 12-bit payload travels in a single atomic word, so a read during an
// in-progress publish observes either the old or the new value, never a
// mixture. Everything is allocated by New and lives for the life of the
// device; nothing is created or freed while sampling runs.
type Bank struct {
	conv    Converter
	filters []filter.Filter

	values []atomic.Uint32

	// cursor names the channel owned by the in-flight conversion. Written
	// only by Start and the completion path.
	cursor atomic.Uint32

	conversions atomic.Uint64
	cycles      atomic.Uint64
	retriggers  atomic.Uint64
	stalled     atomic.Bool

	started bool
}

// New builds a bank with one register slot and one filter per channel. The
// bank owns the filters from here on; they must not be shared or touched by
// the caller again. No hardware is configured until Start.
func New(conv Converter, filters []filter.Filter) (*Bank, error) {
	if conv == nil {
		return nil, errors.New("fader: nil converter")
	}
	if len(filters) == 0 {
		return nil, ErrNoChannels
	}
	if len(filters) > MaxChannels {
		return nil, fmt.Errorf("fader: %d channels exceed the maximum of %d", len(filters), MaxChannels)
	}
	for i, f := range filters {
		if f == nil {
			return nil, fmt.Errorf("fader: nil filter for channel %d", i)
		}
	}
	return &Bank{
		conv:    conv,
		filters: filters,
		values:  make([]atomic.Uint32, len(filters)),
	}, nil
}

// Channels returns the number of configured channels.
func (b *Bank) Channels() int { return len(b.filters) }

// Start configures the hardware, registers the completion handler and
// triggers the first conversion on channel 0. From then on the cycle is
// self-sustaining: every completed conversion publishes its value and
// triggers the next channel. A failure here is fatal and returned to the
// caller with no background sampling running, so baseline zeros are never
// mistaken for readings. Call it once at startup, before Value or Read.
func (b *Bank) Start() error {
	if b.started {
		return ErrStarted
	}
	if err := b.conv.Configure(len(b.filters)); err != nil {
		return fmt.Errorf("fader: configure converter: %w", err)
	}
	b.conv.SetHandler(b.complete)
	b.cursor.Store(0)
	if err := b.conv.Trigger(0); err != nil {
		return fmt.Errorf("fader: first trigger: %w", err)
	}
	b.started = true
	return nil
}

// complete runs in the converter's completion context once per conversion.
// It stays short and allocation-free: filter, one atomic store, counter
// bumps and the next trigger.
func (b *Bank) complete(raw uint16) {
	if raw > Max {
		raw = Max
	}
	ch := b.cursor.Load()
	v := b.filters[ch].Apply(raw)
	b.values[ch].Store(uint32(v))
	b.conversions.Add(1)
	if int(ch) == len(b.filters)-1 {
		b.cycles.Add(1)
	}
	b.advance(ch)
}

// advance moves the cursor to the channel after from and triggers its
// conversion. A failed trigger is recovered by skipping to the channel
// after it, for at most one full lap; after a lap of failures the bank
// stalls instead of retrying without bound.
func (b *Bank) advance(from uint32) {
	n := uint32(len(b.filters))
	for step := uint32(1); step <= n; step++ {
		next := (from + step) % n
		b.cursor.Store(next)
		if b.conv.Trigger(uint8(next)) == nil {
			return
		}
		b.retriggers.Add(1)
	}
	b.stalled.Store(true)
}

// Value returns the latest published value for channel, in [Min, Max].
// Reads are wait-free and may run at any frequency from any goroutine. An
// out-of-range channel reads as Min; use Read when that case must be
// distinguished. Before the first conversion of a channel completes the
// register holds the Min baseline.
func (b *Bank) Value(channel uint8) uint16 {
	if int(channel) >= len(b.filters) {
		return Min
	}
	return uint16(b.values[channel].Load())
}

// Read is the strict accessor: it returns ErrBadChannel instead of clamping
// when channel is outside [0, Channels).
func (b *Bank) Read(channel uint8) (uint16, error) {
	if int(channel) >= len(b.filters) {
		return 0, fmt.Errorf("%w: %d of %d", ErrBadChannel, channel, len(b.filters))
	}
	return uint16(b.values[channel].Load()), nil
}

// Snapshot copies the current value of every channel into dst, reusing it
// when it has the capacity and allocating otherwise. Slots are read
// atomically one by one, so values may belong to different conversion
// cycles but are never torn.
func (b *Bank) Snapshot(dst []uint16) []uint16 {
	if cap(dst) >= len(b.values) {
		dst = dst[:len(b.values)]
	} else {
		dst = make([]uint16, len(b.values))
	}
	for i := range b.values {
		dst[i] = uint16(b.values[i].Load())
	}
	return dst
}

// Err reports a persistent sampling failure: ErrStalled after a whole lap
// of hardware triggers failed, nil while the cycle is healthy. Transient
// trigger failures the sequencer recovered from show up in Retriggers
// instead.
func (b *Bank) Err() error {
	if b.stalled.Load() {
		return ErrStalled
	}
	return nil
}

// Conversions returns the number of completed conversions.
func (b *Bank) Conversions() uint64 { return b.conversions.Load() }

// Cycles returns the number of times the sequencer wrapped past the last
// channel, i.e. completed laps.
func (b *Bank) Cycles() uint64 { return b.cycles.Load() }

// Retriggers returns the number of failed hardware triggers that were
// recovered by skipping to the next channel.
func (b *Bank) Retriggers() uint64 { return b.retriggers.Load() }
