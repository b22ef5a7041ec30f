package fader

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chewxy/math32"
)

// ErrSimClosed is returned by SimConverter operations after Close.
var ErrSimClosed = errors.New("fader: sim converter closed")

// Source produces the raw samples of one simulated channel.
type Source interface {
	// Next returns the raw sample the in-flight conversion reads.
	Next() uint16
}

// Constant returns a source that always reads the same raw value.
func Constant(v uint16) Source { return constantSource(v) }

type constantSource uint16

func (c constantSource) Next() uint16 { return uint16(c) }

// Script returns a source that plays values in order and then holds the
// last one, as a fader left in place would.
func Script(values ...uint16) Source {
	return &scriptSource{values: values}
}

type scriptSource struct {
	values []uint16
	pos    int
}

func (s *scriptSource) Next() uint16 {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.pos]
	if s.pos < len(s.values)-1 {
		s.pos++
	}
	return v
}

// Sweep returns a source that rides a full-scale triangle wave with the
// given period, plus a little pseudo-noise so the filters have real work.
func Sweep(period time.Duration, noise uint16) Source {
	return &sweepSource{period: period, noise: noise}
}

type sweepSource struct {
	period time.Duration
	noise  uint16
	start  time.Time
}

func (s *sweepSource) Next() uint16 {
	if s.start.IsZero() {
		s.start = time.Now()
	}
	elapsed := time.Since(s.start)
	v := int32(triangle(elapsed, s.period))
	if s.noise > 0 {
		ns := float32(elapsed.Nanoseconds())
		n := (math32.Sin(ns*1e-3) + math32.Cos(ns*1.3e-3)) * float32(s.noise) * 0.5
		v += int32(n)
	}
	if v < int32(Min) {
		v = int32(Min)
	}
	if v > int32(Max) {
		v = int32(Max)
	}
	return uint16(v)
}

// triangle maps elapsed time onto a [Min, Max] triangle wave.
func triangle(elapsed, period time.Duration) uint16 {
	if period <= 0 {
		return Min
	}
	phase := float32(elapsed%period) / float32(period)
	p := 2 * phase
	if phase >= 0.5 {
		p = 2 * (1 - phase)
	}
	return uint16(p*float32(Max) + 0.5)
}

// SimConverter is a Converter backed by scripted Sources instead of real
// hardware. Completions are delivered one at a time from a dedicated
// goroutine, mirroring the single completion context of a hardware
// converter. It backs the host Sim device and the engine tests.
type SimConverter struct {
	sources  []Source
	interval time.Duration

	handler func(raw uint16)

	pending chan uint8
	quit    chan struct{}
	done    chan struct{}

	mu         sync.Mutex
	configured bool
	closed     bool
}

// NewSimConverter builds a converter over the given per-channel sources.
// interval is the simulated conversion time; zero completes conversions as
// fast as the engine can trigger them.
func NewSimConverter(interval time.Duration, sources ...Source) *SimConverter {
	return &SimConverter{
		sources:  sources,
		interval: interval,
		pending:  make(chan uint8, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Configure checks the channel count against the wired sources and starts
// the completion goroutine.
func (s *SimConverter) Configure(channels int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSimClosed
	}
	if channels != len(s.sources) {
		return fmt.Errorf("fader: %d sources wired for %d channels", len(s.sources), channels)
	}
	if !s.configured {
		s.configured = true
		go s.run()
	}
	return nil
}

// SetHandler registers the completion callback. Call it before the first
// Trigger.
func (s *SimConverter) SetHandler(handler func(raw uint16)) {
	s.handler = handler
}

// Trigger queues a conversion of one channel. Only one conversion may be
// in flight at a time.
func (s *SimConverter) Trigger(channel uint8) error {
	if int(channel) >= len(s.sources) {
		return fmt.Errorf("fader: trigger for channel %d of %d", channel, len(s.sources))
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSimClosed
	}
	if !s.configured {
		s.mu.Unlock()
		return errors.New("fader: sim converter not configured")
	}
	s.mu.Unlock()
	select {
	case s.pending <- channel:
		return nil
	default:
		return errors.New("fader: conversion already in flight")
	}
}

// Close stops the completion goroutine and fails all further triggers, so
// a bank running on this converter winds down on its next advance. Close
// is idempotent and waits for an in-flight delivery to finish.
func (s *SimConverter) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	configured := s.configured
	s.mu.Unlock()
	close(s.quit)
	if configured {
		<-s.done
	}
	return nil
}

func (s *SimConverter) run() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case ch := <-s.pending:
			if s.interval > 0 {
				select {
				case <-s.quit:
					return
				case <-time.After(s.interval):
				}
			}
			raw := s.sources[ch].Next()
			if h := s.handler; h != nil {
				h(raw)
			}
		}
	}
}
