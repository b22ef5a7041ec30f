package midiout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchOutput(t *testing.T) {
	tests := []struct {
		name   string
		device string
		want   string
		match  bool
	}{
		{"exact", "IAC Driver Bus 1", "IAC Driver Bus 1", true},
		{"substring", "IAC Driver Bus 1", "IAC", true},
		{"case insensitive", "IAC Driver Bus 1", "iac driver", true},
		{"middle of the name", "Midi Through Port-0", "through", true},
		{"no match", "Midi Through Port-0", "IAC", false},
		{"empty matches anything", "anything", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.match, matchOutput(tt.device, tt.want))
		})
	}
}
