// Package midiout sends fader Control Change events to a system MIDI
// output through portmidi, so the host app can drive a DAW directly from
// monitored frames.
package midiout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rakyll/portmidi"

	"github.com/jfbarahonag/midi-fader/pkg/midimap"
)

// eventBufferSize is the portmidi output stream buffer.
const eventBufferSize = 64

// ErrNoOutput is returned when no MIDI output matches the requested name.
var ErrNoOutput = errors.New("midiout: no matching midi output")

// Out is an open MIDI output stream.
type Out struct {
	name   string
	stream *portmidi.Stream
}

// Open initializes portmidi and opens the first output whose name contains
// name, ignoring case. An empty name picks the system default output.
func Open(name string) (*Out, error) {
	if err := portmidi.Initialize(); err != nil {
		return nil, fmt.Errorf("midiout: initialize: %w", err)
	}

	id, info, err := discover(name)
	if err != nil {
		portmidi.Terminate()
		return nil, err
	}

	stream, err := portmidi.NewOutputStream(id, eventBufferSize, 0)
	if err != nil {
		portmidi.Terminate()
		return nil, fmt.Errorf("midiout: open %q: %w", info.Name, err)
	}

	return &Out{name: info.Name, stream: stream}, nil
}

// Name returns the name of the connected output.
func (o *Out) Name() string { return o.name }

// Send writes one Control Change message per event using the given status
// byte.
func (o *Out) Send(status uint8, events []midimap.Event) error {
	for _, e := range events {
		if err := o.stream.WriteShort(int64(status), int64(e.Controller), int64(e.Value)); err != nil {
			return fmt.Errorf("midiout: write control change %d: %w", e.Controller, err)
		}
	}
	return nil
}

// Close closes the stream and releases portmidi.
func (o *Out) Close() error {
	err := o.stream.Close()
	portmidi.Terminate()
	if err != nil {
		return fmt.Errorf("midiout: close stream: %w", err)
	}
	return nil
}

// Outputs lists the names of the available MIDI outputs.
func Outputs() ([]string, error) {
	if err := portmidi.Initialize(); err != nil {
		return nil, fmt.Errorf("midiout: initialize: %w", err)
	}
	defer portmidi.Terminate()

	var names []string
	for i := 0; i < portmidi.CountDevices(); i++ {
		info := portmidi.Info(portmidi.DeviceID(i))
		if info != nil && info.IsOutputAvailable {
			names = append(names, info.Name)
		}
	}
	return names, nil
}

// discover finds the output device matching name.
func discover(name string) (portmidi.DeviceID, *portmidi.DeviceInfo, error) {
	if name == "" {
		id := portmidi.DefaultOutputDeviceID()
		if id < 0 {
			return 0, nil, ErrNoOutput
		}
		info := portmidi.Info(id)
		if info == nil {
			return 0, nil, ErrNoOutput
		}
		return id, info, nil
	}

	for i := 0; i < portmidi.CountDevices(); i++ {
		id := portmidi.DeviceID(i)
		info := portmidi.Info(id)
		if info == nil || !info.IsOutputAvailable {
			continue
		}
		if matchOutput(info.Name, name) {
			return id, info, nil
		}
	}
	return 0, nil, fmt.Errorf("%w: %q", ErrNoOutput, name)
}

// matchOutput reports whether an output name matches the configured device
// substring, ignoring case.
func matchOutput(name, want string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(want))
}
