// Package device provides host-side sources of fader frames: the serial
// link to the controller hardware and an in-process simulator running the
// same sampling engine the firmware runs.
package device

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/jfbarahonag/midi-fader/pkg/fader"
)

const (
	// DefaultBaudRate is the standard baud rate for XIAO SAMD21.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the frames channel buffer.
	DefaultBufferSize = 100
)

// Frame is one complete snapshot of every fader channel, values in
// [0, 4095], as streamed by the firmware once per frame interval.
type Frame struct {
	Timestamp time.Time
	Values    []uint16
}

// Device is a source of fader frames, real or simulated.
type Device interface {
	Connect() error
	Close() error
	Frames() <-chan Frame
	IsConnected() bool
}

var _ Device = (*Serial)(nil)
var _ Device = (*Sim)(nil)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Serial reads frames from the controller over a serial port.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn       serial.Port
	frames     chan Frame
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
	readerDone chan struct{}
	connected  bool
}

// New creates a new Serial device for the specified port, baud rate, and
// buffer size. Zero values pick the defaults.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:       port,
		baudRate:   baudRate,
		bufSize:    bufSize,
		frames:     make(chan Frame, bufSize),
		ctx:        ctx,
		cancel:     cancel,
		readerDone: make(chan struct{}),
	}
}

// Connect opens the serial port and starts reading frames.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	mode := &serial.Mode{
		BaudRate: d.baudRate,
	}

	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true

	go d.readFrames()

	return nil
}

// Close closes the connection and stops reading frames. The frames channel
// is closed once the reader goroutine has finished, so consumers draining
// it see a clean end of stream.
func (d *Serial) Close() error {
	d.mu.Lock()

	if !d.connected {
		d.mu.Unlock()
		return nil
	}

	d.cancel()

	// Closing the port unblocks a reader stuck in Scan.
	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false
	d.mu.Unlock()

	<-d.readerDone
	close(d.frames)

	return nil
}

// Frames returns the channel for reading frames.
func (d *Serial) Frames() <-chan Frame {
	return d.frames
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readFrames reads lines from the serial port and parses them into Frames.
func (d *Serial) readFrames() {
	defer close(d.readerDone)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readFrames: %v", r)
		}
	}()

	scanner := bufio.NewScanner(d.conn)
	for {
		select {
		case <-d.ctx.Done():
			return
		default:
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil && err != io.EOF {
					log.Printf("Error reading from serial port: %v", err)
				}
				return
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if strings.HasPrefix(line, "#") {
				// Firmware diagnostic, not a frame.
				log.Printf("Device: %s", line)
				continue
			}

			frame, err := parseFrame(line)
			if err != nil {
				log.Printf("Failed to parse line '%s': %v", line, err)
				continue
			}

			select {
			case d.frames <- frame:
			case <-d.ctx.Done():
				return
			default:
				log.Printf("Frames channel full, dropping frame")
			}
		}
	}
}

// parseFrame parses a line from the controller into a Frame.
// Format: unix_micros,v0,v1,...,vN-1
// Example: 1234567890123,0,1365,2730,4095
func parseFrame(line string) (Frame, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 2 {
		return Frame{}, fmt.Errorf("invalid frame format: expected a timestamp and at least one value, got %d fields", len(parts))
	}
	if len(parts)-1 > fader.MaxChannels {
		return Frame{}, fmt.Errorf("too many channels: %d (max %d)", len(parts)-1, fader.MaxChannels)
	}

	timestampMicros, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Frame{}, fmt.Errorf("invalid timestamp: %w", err)
	}
	timestamp := time.Unix(0, timestampMicros*1000)

	values := make([]uint16, 0, len(parts)-1)
	for i, part := range parts[1:] {
		v, err := strconv.ParseUint(part, 10, 16)
		if err != nil {
			return Frame{}, fmt.Errorf("invalid value for channel %d: %w", i, err)
		}
		if v > uint64(fader.Max) {
			return Frame{}, fmt.Errorf("value out of range for channel %d: %d (max %d)", i, v, fader.Max)
		}
		values = append(values, uint16(v))
	}

	return Frame{
		Timestamp: timestamp,
		Values:    values,
	}, nil
}

// FormatFrame renders a frame in the controller's line format, without the
// trailing newline.
func FormatFrame(f Frame) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(f.Timestamp.UnixMicro(), 10))
	for _, v := range f.Values {
		b.WriteByte(',')
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	}
	return b.String()
}
