//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine/usb/adc/midi"
	"time"

	"github.com/jfbarahonag/midi-fader/pkg/fader"
	"github.com/jfbarahonag/midi-fader/pkg/filter"
	"github.com/jfbarahonag/midi-fader/pkg/midimap"
)

func main() {
	filters := make([]filter.Filter, NUM_FADERS)
	for i := range filters {
		f, err := filter.NewEMA(FILTER_ALPHA)
		if err != nil {
			fatal(err)
		}
		filters[i] = f
	}

	conv := newADCConverter(FADER_PINS[:])
	bank, err := fader.New(conv, filters)
	if err != nil {
		fatal(err)
	}
	if err := bank.Start(); err != nil {
		fatal(err)
	}

	mapper, err := midimap.New(MIDI_CHANNEL, MIDI_CONTROLLERS[:])
	if err != nil {
		fatal(err)
	}

	port := midi.Port()

	var (
		values        []uint16
		events        []midimap.Event
		stallReported bool
	)

	frameInterval := FRAME_INTERVAL_MS * time.Millisecond
	lastFrame := time.Now()

	// Main loop: sampling runs in the background through the bank, the
	// foreground only publishes snapshots.
	for {
		now := time.Now()

		if now.Sub(lastFrame) >= frameInterval {
			lastFrame = now

			values = bank.Snapshot(values)
			writeFrame(now, values)

			// Only changed faders produce events, so idle banks are
			// silent on the MIDI side.
			events = mapper.Translate(events, values)
			for _, e := range events {
				port.Write(controlChange(MIDI_CABLE, MIDI_CHANNEL, e.Controller, e.Value))
			}
		}

		if err := bank.Err(); err != nil && !stallReported {
			stallReported = true
			print("# sampling stalled\n")
		}

		// Small delay to prevent tight loop (but still allow precise timing)
		time.Sleep(time.Millisecond)
	}
}

// writeFrame prints one frame to the USB serial console.
// Format: "unix_micros,v0,v1,...,vN-1\n". Lines starting with '#' are
// diagnostics, not frames.
func writeFrame(now time.Time, values []uint16) {
	print(now.UnixNano() / 1000) // Convert nanoseconds to microseconds
	for _, v := range values {
		print(",")
		print(v)
	}
	print("\n")
}

var ccPacket [4]byte

// controlChange packs a USB MIDI control change event packet.
func controlChange(cable, channel, controller, value uint8) []byte {
	ccPacket[0], ccPacket[1], ccPacket[2], ccPacket[3] = ((cable&0xf)<<4)|midi.CINControlChange, midi.MsgControlChange|(channel&0xf), controller&0x7f, value&0x7f
	return ccPacket[:4]
}

// fatal reports a startup error forever; there is nowhere to exit to.
func fatal(err error) {
	for {
		println("# fatal:", err.Error())
		time.Sleep(time.Second)
	}
}
