package main

import (
	"fmt"
	"log"

	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/jfbarahonag/midi-fader/pkg/midimap"
	"github.com/jfbarahonag/midi-fader/pkg/midiout"
)

// handleMIDIToggle enables or disables the MIDI output.
func handleMIDIToggle(state *appState) {
	state.midiMu.Lock()
	enabled := state.midiOut != nil
	state.midiMu.Unlock()

	if enabled {
		disableMIDIOutput(state)
		fmt.Println("MIDI output disabled")
		return
	}

	// A fresh mapper starts with every fader marked unsent, so the first
	// update after enabling pushes the full bank to the receiver.
	mapper, err := midimap.New(state.cfg.MIDI.Channel, state.cfg.MIDI.Controllers)
	if err != nil {
		dialog.ShowError(fmt.Errorf("invalid MIDI mapping: %w", err), state.window)
		return
	}

	out, err := midiout.Open(state.cfg.MIDI.Device)
	if err != nil {
		if names, lerr := midiout.Outputs(); lerr == nil {
			log.Printf("Available MIDI outputs: %v", names)
		}
		dialog.ShowError(fmt.Errorf("failed to open MIDI output: %w", err), state.window)
		return
	}

	state.midiMu.Lock()
	state.mapper = mapper
	state.midiOut = out
	state.midiMu.Unlock()

	state.midiBtn.Importance = widget.HighImportance
	state.midiBtn.Refresh()
	fmt.Printf("MIDI output enabled: %s\n", out.Name())
}

// disableMIDIOutput closes the MIDI output if it is open and resets the
// toggle button state.
func disableMIDIOutput(state *appState) {
	state.midiMu.Lock()
	out := state.midiOut
	state.midiOut = nil
	state.mapper = nil
	state.midiMu.Unlock()

	if out != nil {
		if err := out.Close(); err != nil {
			log.Printf("Error closing MIDI output: %v", err)
		}
	}

	state.midiBtn.Importance = widget.MediumImportance
	state.midiBtn.Refresh()
}
