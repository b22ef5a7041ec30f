package midimap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestData(t *testing.T) {
	tests := []struct {
		name  string
		value uint16
		want  uint8
	}{
		{"bottom", 0, 0},
		{"top of first step", 31, 0},
		{"second step", 32, 1},
		{"midpoint", 2048, 64},
		{"two thirds", 2730, 85},
		{"top", 4095, 127},
		{"clamped above range", 5000, 127},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Data(tt.value))
		})
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(16, []uint8{20})
	assert.ErrorIs(t, err, ErrBadMIDIChannel)

	_, err = New(0, nil)
	assert.ErrorIs(t, err, ErrNoControllers)

	_, err = New(0, []uint8{20, 128})
	assert.ErrorIs(t, err, ErrBadController)

	m, err := New(15, []uint8{20, 21})
	require.NoError(t, err)
	assert.Equal(t, 2, m.Faders())
}

func TestStatus_EncodesChannel(t *testing.T) {
	m, err := New(0, []uint8{20})
	require.NoError(t, err)
	assert.Equal(t, uint8(0xB0), m.Status())

	m, err = New(9, []uint8{20})
	require.NoError(t, err)
	assert.Equal(t, uint8(0xB9), m.Status())
}

func TestTranslate_FirstCallEmitsEverything(t *testing.T) {
	m, err := New(0, []uint8{20, 21, 22, 23})
	require.NoError(t, err)

	events := m.Translate(nil, []uint16{0, 1365, 2730, 4095})
	assert.Equal(t, []Event{
		{Controller: 20, Value: 0},
		{Controller: 21, Value: 42},
		{Controller: 22, Value: 85},
		{Controller: 23, Value: 127},
	}, events)
}

func TestTranslate_SuppressesUnchangedValues(t *testing.T) {
	m, err := New(0, []uint8{20, 21})
	require.NoError(t, err)

	events := m.Translate(nil, []uint16{1000, 2000})
	require.Len(t, events, 2)

	// Identical 12-bit values, nothing to send.
	events = m.Translate(events, []uint16{1000, 2000})
	assert.Empty(t, events)

	// Sub-step jitter stays below the 7-bit resolution.
	events = m.Translate(events, []uint16{1001, 2001})
	assert.Empty(t, events)

	// A real move on one fader emits one event.
	events = m.Translate(events, []uint16{1000 + 64, 2000})
	require.Len(t, events, 1)
	assert.Equal(t, uint8(20), events[0].Controller)
}

func TestTranslate_ReusesDestination(t *testing.T) {
	m, err := New(0, []uint8{20, 21})
	require.NoError(t, err)

	dst := make([]Event, 0, 4)
	events := m.Translate(dst, []uint16{100, 200})
	assert.Equal(t, 4, cap(events), "keeps the destination's capacity")
}

func TestTranslate_IgnoresExtraValues(t *testing.T) {
	m, err := New(0, []uint8{20})
	require.NoError(t, err)

	events := m.Translate(nil, []uint16{4095, 4095, 4095})
	require.Len(t, events, 1)
	assert.Equal(t, uint8(20), events[0].Controller)
}

func TestReset_ResendsFullBank(t *testing.T) {
	m, err := New(0, []uint8{20, 21})
	require.NoError(t, err)

	events := m.Translate(nil, []uint16{1000, 2000})
	require.Len(t, events, 2)

	events = m.Translate(events, []uint16{1000, 2000})
	require.Empty(t, events)

	m.Reset()
	events = m.Translate(events, []uint16{1000, 2000})
	assert.Len(t, events, 2, "reset forgets the last sent values")
}
