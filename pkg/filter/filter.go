package filter

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
)

// Filter type names accepted by New.
const (
	TypeEMA     = "ema"
	TypeMedian3 = "median3"
	TypeRaw     = "raw"
)

var (
	// ErrUnknownType is returned when the configured filter name has no implementation.
	ErrUnknownType = errors.New("unknown filter type")
	// ErrAlphaRange is returned when the EMA coefficient is outside (0, 1].
	ErrAlphaRange = errors.New("alpha out of range")
)

// Filter smooths the raw sample stream of a single channel. Implementations
// keep per-channel state and are not safe for concurrent use; each channel
// owns its own instance.
type Filter interface {
	// Apply feeds one raw sample and returns the filtered value.
	Apply(raw uint16) uint16
	// Reset discards all state so the next sample seeds the filter again.
	Reset()
}

var _ Filter = (*EMA)(nil)
var _ Filter = (*Median3)(nil)
var _ Filter = Raw{}

// New builds the filter named by typ; alpha applies to "ema" only. Every
// channel gets its own instance, so callers construct one per channel.
// The package takes no configuration types so that firmware builds pull
// in nothing beyond float32 math.
func New(typ string, alpha float32) (Filter, error) {
	switch typ {
	case "", TypeEMA:
		return NewEMA(alpha)
	case TypeMedian3:
		return NewMedian3(), nil
	case TypeRaw:
		return Raw{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
}

// EMA is a first-order exponential moving average with coefficient alpha.
// The first sample after construction or Reset seeds the state directly, so
// startup reflects the actual fader position instead of climbing from zero.
type EMA struct {
	alpha  float32
	state  float32
	seeded bool
}

// NewEMA returns an EMA filter with the given coefficient in (0, 1].
// Larger alpha tracks movement faster, smaller alpha smooths harder.
func NewEMA(alpha float32) (*EMA, error) {
	if alpha <= 0 || alpha > 1 {
		return nil, fmt.Errorf("%w: %v not in (0, 1]", ErrAlphaRange, alpha)
	}
	return &EMA{alpha: alpha}, nil
}

func (f *EMA) Apply(raw uint16) uint16 {
	x := float32(raw)
	if !f.seeded {
		f.state = x
		f.seeded = true
		return raw
	}
	f.state += f.alpha * (x - f.state)
	// State stays within [0, 4095], so floor(x+0.5) rounds to nearest.
	return uint16(math32.Floor(f.state + 0.5))
}

func (f *EMA) Reset() {
	f.state = 0
	f.seeded = false
}

// Median3 returns the median of the last three raw samples. A single
// outlier sample never reaches the output. The first sample after
// construction or Reset fills the whole window.
type Median3 struct {
	window [3]uint16
	pos    int
	seeded bool
}

// NewMedian3 returns an empty median-of-three filter.
func NewMedian3() *Median3 {
	return &Median3{}
}

func (f *Median3) Apply(raw uint16) uint16 {
	if !f.seeded {
		f.window = [3]uint16{raw, raw, raw}
		f.seeded = true
		return raw
	}
	f.window[f.pos] = raw
	f.pos = (f.pos + 1) % len(f.window)
	return median3(f.window[0], f.window[1], f.window[2])
}

func (f *Median3) Reset() {
	f.window = [3]uint16{}
	f.pos = 0
	f.seeded = false
}

// Raw passes samples through unchanged. Useful when diagnosing noise at
// its source.
type Raw struct{}

func (Raw) Apply(raw uint16) uint16 { return raw }

func (Raw) Reset() {}

func median3(a, b, c uint16) uint16 {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		b = a
	}
	return b
}
