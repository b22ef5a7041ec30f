// Package midimap translates published fader values into MIDI Control
// Change events. It is pure computation with no transport attached, so the
// firmware's USB endpoint and the host's portmidi output share it.
package midimap

import (
	"errors"
	"fmt"

	"github.com/jfbarahonag/midi-fader/pkg/fader"
)

const (
	// StatusControlChange is the MIDI Control Change status nibble.
	StatusControlChange uint8 = 0xB0
	// MaxChannel is the highest MIDI channel.
	MaxChannel uint8 = 15
	// MaxData is the largest 7-bit MIDI data value.
	MaxData uint8 = 127

	// valueUninitialized marks a fader whose value was never sent. It sits
	// outside the 7-bit range so any real value counts as a change.
	valueUninitialized uint8 = MaxData + 1
)

var (
	ErrBadMIDIChannel = errors.New("midimap: midi channel out of range")
	ErrBadController  = errors.New("midimap: controller number out of range")
	ErrNoControllers  = errors.New("midimap: at least one controller required")
)

// Event is one Control Change ready for any MIDI transport.
type Event struct {
	Controller uint8
	Value      uint8
}

// Data compresses a published 12-bit value into 7-bit MIDI data.
func Data(value uint16) uint8 {
	if value > fader.Max {
		value = fader.Max
	}
	return uint8(value >> 5)
}

// Mapper assigns one Control Change number per fader and tracks the last
// value sent, so repeated Translate calls only emit audible changes.
type Mapper struct {
	channel     uint8
	controllers []uint8
	last        []uint8
}

// New builds a mapper for the given MIDI channel and per-fader controller
// numbers.
func New(channel uint8, controllers []uint8) (*Mapper, error) {
	if channel > MaxChannel {
		return nil, fmt.Errorf("%w: %d", ErrBadMIDIChannel, channel)
	}
	if len(controllers) == 0 {
		return nil, ErrNoControllers
	}
	for i, cc := range controllers {
		if cc > MaxData {
			return nil, fmt.Errorf("%w: %d for fader %d", ErrBadController, cc, i)
		}
	}
	m := &Mapper{
		channel:     channel,
		controllers: append([]uint8(nil), controllers...),
		last:        make([]uint8, len(controllers)),
	}
	m.Reset()
	return m, nil
}

// Faders returns the number of mapped faders.
func (m *Mapper) Faders() int { return len(m.controllers) }

// Status returns the Control Change status byte for the mapper's channel.
func (m *Mapper) Status() uint8 { return StatusControlChange | m.channel }

// Reset forgets every last-sent value, so the next Translate emits the
// whole bank. Use it after (re)connecting a MIDI output to bring the
// receiver in sync.
func (m *Mapper) Reset() {
	for i := range m.last {
		m.last[i] = valueUninitialized
	}
}

// Translate appends one event per fader whose 7-bit value changed since
// the previous call, reusing dst's capacity. values beyond the mapped
// faders are ignored; a short values slice leaves the tail untouched.
func (m *Mapper) Translate(dst []Event, values []uint16) []Event {
	dst = dst[:0]
	for i, v := range values {
		if i >= len(m.controllers) {
			break
		}
		d := Data(v)
		if d == m.last[i] {
			continue
		}
		m.last[i] = d
		dst = append(dst, Event{Controller: m.controllers[i], Value: d})
	}
	return dst
}
