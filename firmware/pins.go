//go:build tinygo

package main

import "machine"

const (
	// Sampling configuration
	SAMPLE_INTERVAL_MS = 1   // Settling delay before each conversion in milliseconds
	FRAME_INTERVAL_MS  = 10  // Serial frame output interval in milliseconds
	FILTER_ALPHA       = 0.5 // EMA coefficient for fader smoothing

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12   // ADC resolution in bits (12-bit = 0-4095)

	// MIDI configuration
	MIDI_CABLE   = 0 // USB MIDI virtual cable number
	MIDI_CHANNEL = 0 // MIDI channel the faders transmit on (0-15)

	// Number of fader channels. FADER_PINS and MIDI_CONTROLLERS below
	// must have exactly this many entries.
	NUM_FADERS = 4

	// Serial output budget
	// Frame format: "unix_micros,v0,v1,v2,v3\n"
	// Example: "1234567890123456,4095,4095,4095,4095\n" = ~38 bytes max per line
	// 100 frames/sec * 38 bytes/line = 3,800 bytes/sec, well within USB CDC bandwidth
)

// Fader wiper pins, one per channel, sampled round-robin.
var FADER_PINS = [NUM_FADERS]machine.Pin{
	machine.A0,
	machine.A1,
	machine.A2,
	machine.A3,
}

// MIDI CC number each fader transmits on.
var MIDI_CONTROLLERS = [NUM_FADERS]uint8{20, 21, 22, 23}
