package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.Baud)
	assert.Equal(t, 4, cfg.Faders.Channels)
	assert.Equal(t, "ema", cfg.Filter.Type)
	assert.Equal(t, float32(0.5), cfg.Filter.Alpha)
	assert.Equal(t, []uint8{20, 21, 22, 23}, cfg.MIDI.Controllers)
	assert.Equal(t, uint8(0), cfg.MIDI.Channel)
	assert.Equal(t, float64(10), cfg.Monitor.WindowSeconds)
	assert.Equal(t, uint16(32), cfg.Monitor.MotionThreshold)
	assert.Equal(t, 500*time.Millisecond, cfg.Monitor.MotionHold)
	assert.Equal(t, 5*time.Second, cfg.Sim.SweepPeriod)
	assert.Equal(t, 10*time.Millisecond, cfg.Sim.SampleInterval)
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyACM0"
  baud: 57600

faders:
  channels: 8

filter:
  type: "median3"
  alpha: 0.25

midi:
  device: "Virtual Out"
  channel: 2
  controllers: [10, 11, 12, 13, 14, 15, 16, 17]

monitor:
  window_seconds: 5
  motion_threshold: 64
  motion_hold: 250ms

sim:
  noise_level: 4
  sweep_period: 2s
  sample_interval: 5ms
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 57600, cfg.Serial.Baud)
	assert.Equal(t, 8, cfg.Faders.Channels)
	assert.Equal(t, "median3", cfg.Filter.Type)
	assert.Equal(t, float32(0.25), cfg.Filter.Alpha)
	assert.Equal(t, "Virtual Out", cfg.MIDI.Device)
	assert.Equal(t, uint8(2), cfg.MIDI.Channel)
	assert.Len(t, cfg.MIDI.Controllers, 8)
	assert.Equal(t, float64(5), cfg.Monitor.WindowSeconds)
	assert.Equal(t, uint16(64), cfg.Monitor.MotionThreshold)
	assert.Equal(t, 250*time.Millisecond, cfg.Monitor.MotionHold)
	assert.Equal(t, uint16(4), cfg.Sim.NoiseLevel)
	assert.Equal(t, 2*time.Second, cfg.Sim.SweepPeriod)
	assert.Equal(t, 5*time.Millisecond, cfg.Sim.SampleInterval)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyACM0"
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Should use defaults for missing fields
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.Baud)            // default
	assert.Equal(t, 4, cfg.Faders.Channels)             // default
	assert.Equal(t, "ema", cfg.Filter.Type)             // default
	assert.Equal(t, float32(0.5), cfg.Filter.Alpha)     // default
	assert.Equal(t, float64(10), cfg.Monitor.WindowSeconds) // default
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Faders.Channels = 8

	tmpfile, err := os.CreateTemp("", "test_save_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	err = cfg.Save(tmpfile.Name())
	require.NoError(t, err)

	// Load it back and verify
	loaded, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", loaded.Serial.Port)
	assert.Equal(t, 8, loaded.Faders.Channels)
}

func TestConfig_FieldAccess(t *testing.T) {
	cfg := Default()

	// Test field access
	assert.Equal(t, "COM3", cfg.Serial.Port)
	assert.Equal(t, uint8(20), cfg.MIDI.Controllers[0])
	assert.Equal(t, uint8(21), cfg.MIDI.Controllers[1])
	assert.Equal(t, uint8(22), cfg.MIDI.Controllers[2])
	assert.Equal(t, uint8(23), cfg.MIDI.Controllers[3])
}
