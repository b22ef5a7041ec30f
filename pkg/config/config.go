package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Faders  FadersConfig  `yaml:"faders"`
	Filter  FilterConfig  `yaml:"filter"`
	MIDI    MIDIConfig    `yaml:"midi"`
	Monitor MonitorConfig `yaml:"monitor"`
	Sim     SimConfig     `yaml:"sim"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// FadersConfig contains fader bank configuration.
type FadersConfig struct {
	Channels int `yaml:"channels"`
}

// FilterConfig selects and parameterizes the per-channel noise filter.
type FilterConfig struct {
	Type  string  `yaml:"type"`  // "ema", "median3" or "raw"
	Alpha float32 `yaml:"alpha"` // EMA coefficient in (0, 1]
}

// MIDIConfig contains MIDI output configuration.
type MIDIConfig struct {
	Device      string  `yaml:"device"`      // output port name substring, empty picks the system default
	Channel     uint8   `yaml:"channel"`     // MIDI channel 0-15
	Controllers []uint8 `yaml:"controllers"` // control change number per fader
}

// MonitorConfig contains position history and motion detection parameters.
type MonitorConfig struct {
	WindowSeconds   float64       `yaml:"window_seconds"`
	MotionThreshold uint16        `yaml:"motion_threshold"` // counts a fader must move to count as motion
	MotionHold      time.Duration `yaml:"motion_hold"`      // quiet time before a moving fader settles
}

// SimConfig contains simulated device configuration.
type SimConfig struct {
	NoiseLevel     uint16        `yaml:"noise_level"`     // peak noise amplitude in counts
	SweepPeriod    time.Duration `yaml:"sweep_period"`    // full-scale triangle sweep period
	SampleInterval time.Duration `yaml:"sample_interval"` // time between frames
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port: "COM3", // Default for Windows, should be "/dev/ttyACM0" on Linux/Mac
			Baud: 115200,
		},
		Faders: FadersConfig{
			Channels: 4,
		},
		Filter: FilterConfig{
			Type:  "ema",
			Alpha: 0.5,
		},
		MIDI: MIDIConfig{
			Device:      "",
			Channel:     0,
			Controllers: []uint8{20, 21, 22, 23}, // undefined CCs, free for custom controllers
		},
		Monitor: MonitorConfig{
			WindowSeconds:   10,
			MotionThreshold: 32,
			MotionHold:      500 * time.Millisecond,
		},
		Sim: SimConfig{
			NoiseLevel:     8,
			SweepPeriod:    5 * time.Second,
			SampleInterval: 10 * time.Millisecond, // 100 frames per second
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Ensure minimum required fields are set (use defaults if missing)
	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}

	if c.Faders.Channels == 0 {
		c.Faders.Channels = def.Faders.Channels
	}

	if c.Filter.Type == "" {
		c.Filter.Type = def.Filter.Type
	}
	if c.Filter.Alpha == 0 {
		c.Filter.Alpha = def.Filter.Alpha
	}

	if len(c.MIDI.Controllers) == 0 {
		c.MIDI.Controllers = def.MIDI.Controllers
	}

	if c.Monitor.WindowSeconds == 0 {
		c.Monitor.WindowSeconds = def.Monitor.WindowSeconds
	}
	if c.Monitor.MotionThreshold == 0 {
		c.Monitor.MotionThreshold = def.Monitor.MotionThreshold
	}
	if c.Monitor.MotionHold == 0 {
		c.Monitor.MotionHold = def.Monitor.MotionHold
	}

	if c.Sim.SweepPeriod == 0 {
		c.Sim.SweepPeriod = def.Sim.SweepPeriod
	}
	if c.Sim.SampleInterval == 0 {
		c.Sim.SampleInterval = def.Sim.SampleInterval
	}
}
