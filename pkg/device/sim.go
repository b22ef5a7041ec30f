package device

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jfbarahonag/midi-fader/pkg/config"
	"github.com/jfbarahonag/midi-fader/pkg/fader"
	"github.com/jfbarahonag/midi-fader/pkg/filter"
)

// Sim simulates the fader controller for development without hardware. It
// runs the same sampling engine the firmware runs, fed by sweeping sources
// instead of real ADC conversions, and streams frames at the configured
// interval.
type Sim struct {
	cfg *config.Config

	bank *fader.Bank
	conv *fader.SimConverter

	frames     chan Frame
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
	tickerDone chan struct{}
	connected  bool
}

// NewSim creates a simulated device from the faders, filter and sim
// sections of cfg.
func NewSim(cfg *config.Config) *Sim {
	ctx, cancel := context.WithCancel(context.Background())

	return &Sim{
		cfg:        cfg,
		frames:     make(chan Frame, DefaultBufferSize),
		ctx:        ctx,
		cancel:     cancel,
		tickerDone: make(chan struct{}),
	}
}

// Connect builds the sampling engine and starts frame generation.
func (s *Sim) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return fmt.Errorf("already connected")
	}

	channels := s.cfg.Faders.Channels
	if channels <= 0 {
		return fmt.Errorf("no fader channels configured")
	}
	if s.cfg.Sim.SampleInterval <= 0 {
		return fmt.Errorf("sample interval must be positive")
	}

	sources := make([]fader.Source, channels)
	for i := range sources {
		// Stagger the periods so the channels drift apart visibly.
		period := s.cfg.Sim.SweepPeriod + time.Duration(i)*s.cfg.Sim.SweepPeriod/4
		sources[i] = fader.Sweep(period, s.cfg.Sim.NoiseLevel)
	}

	filters := make([]filter.Filter, channels)
	for i := range filters {
		f, err := filter.New(s.cfg.Filter.Type, s.cfg.Filter.Alpha)
		if err != nil {
			return fmt.Errorf("build filter: %w", err)
		}
		filters[i] = f
	}

	// One full conversion lap per frame interval.
	conv := fader.NewSimConverter(s.cfg.Sim.SampleInterval/time.Duration(channels), sources...)
	bank, err := fader.New(conv, filters)
	if err != nil {
		conv.Close()
		return err
	}
	if err := bank.Start(); err != nil {
		conv.Close()
		return fmt.Errorf("start sampling engine: %w", err)
	}

	s.conv = conv
	s.bank = bank
	s.connected = true

	go s.publishFrames()

	return nil
}

// Close stops frame generation and the sampling engine, then closes the
// frames channel.
func (s *Sim) Close() error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return nil
	}
	s.connected = false
	s.mu.Unlock()

	s.cancel()
	<-s.tickerDone
	s.conv.Close()
	close(s.frames)

	return nil
}

// Frames returns the channel for reading frames.
func (s *Sim) Frames() <-chan Frame {
	return s.frames
}

// IsConnected returns whether the device is currently connected.
func (s *Sim) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// publishFrames snapshots the bank once per sample interval and emits the
// snapshot as a frame.
func (s *Sim) publishFrames() {
	defer close(s.tickerDone)

	ticker := time.NewTicker(s.cfg.Sim.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			frame := Frame{
				Timestamp: time.Now(),
				Values:    s.bank.Snapshot(nil),
			}
			select {
			case s.frames <- frame:
			case <-s.ctx.Done():
				return
			default:
				log.Printf("Frames channel full, dropping frame")
			}
		}
	}
}
