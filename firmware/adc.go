//go:build tinygo

package main

import (
	"errors"
	"machine"
	"time"

	"github.com/jfbarahonag/midi-fader/pkg/fader"
)

var _ fader.Converter = (*adcConverter)(nil)

// adcConverter adapts the on-chip ADC to the fader.Converter interface.
// Conversions run on a dedicated goroutine; Trigger posts the channel
// number and returns immediately, like a conversion-start register write.
type adcConverter struct {
	adcs    []machine.ADC
	handler func(raw uint16)
	pending chan uint8
}

func newADCConverter(pins []machine.Pin) *adcConverter {
	adcs := make([]machine.ADC, len(pins))
	for i, pin := range pins {
		adcs[i] = machine.ADC{Pin: pin}
	}
	return &adcConverter{
		adcs:    adcs,
		pending: make(chan uint8, 1),
	}
}

func (c *adcConverter) Configure(channels int) error {
	if channels != len(c.adcs) {
		return errors.New("adc: channel count does not match wired pins")
	}

	machine.InitADC()
	for _, adc := range c.adcs {
		adc.Configure(machine.ADCConfig{
			Reference:  ADC_REFERENCE_MV,
			Resolution: ADC_RESOLUTION,
		})
	}

	go c.run()
	return nil
}

func (c *adcConverter) SetHandler(handler func(raw uint16)) {
	c.handler = handler
}

func (c *adcConverter) Trigger(channel uint8) error {
	if int(channel) >= len(c.adcs) {
		return errors.New("adc: channel out of range")
	}
	select {
	case c.pending <- channel:
		return nil
	default:
		return errors.New("adc: conversion already in flight")
	}
}

func (c *adcConverter) run() {
	for ch := range c.pending {
		// Let the wiper voltage settle on the shared sample capacitor
		// after the mux switches channels.
		time.Sleep(SAMPLE_INTERVAL_MS * time.Millisecond)

		// Get returns a 16-bit value regardless of the configured
		// resolution, so scale back down to 12 bits.
		raw := c.adcs[ch].Get() >> 4
		c.handler(raw)
	}
}
