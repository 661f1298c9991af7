// Package config holds the export settings shared by the CLI and the GUI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime configuration for wrapped.
type Config struct {
	Width  int
	Height int
	Scale  float64

	Background string

	// Settle is "fixed" or "probe".
	Settle        string
	SettleDelay   time.Duration
	ProbeInterval time.Duration
	ProbeFrames   int
	ProbeTimeout  time.Duration

	Cooldown    time.Duration
	Stagger     time.Duration
	RevokeGrace time.Duration

	DownloadsDir string
	// DataDir overrides the embedded deck with a directory holding
	// dataset.json and card templates.
	DataDir string
	// FontDir loads TrueType faces from a directory instead of the
	// bundled Go fonts.
	FontDir string

	// Fallback is "browser" or "none".
	Fallback string
	LogLevel string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Width:         1080,
		Height:        1920,
		Scale:         2,
		Background:    "#0a0a0f",
		Settle:        "fixed",
		SettleDelay:   1500 * time.Millisecond,
		ProbeInterval: 50 * time.Millisecond,
		ProbeFrames:   5,
		ProbeTimeout:  5 * time.Second,
		Cooldown:      200 * time.Millisecond,
		Stagger:       100 * time.Millisecond,
		RevokeGrace:   200 * time.Millisecond,
		DownloadsDir:  defaultDownloadsDir(),
		Fallback:      "browser",
		LogLevel:      "info",
	}
}

func defaultDownloadsDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, "Downloads")
	}
	return "."
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.Scale <= 0 {
		return fmt.Errorf("scale must be positive")
	}
	switch c.Settle {
	case "fixed", "probe":
	default:
		return fmt.Errorf("settle must be fixed or probe, got %q", c.Settle)
	}
	switch c.Fallback {
	case "browser", "none":
	default:
		return fmt.Errorf("fallback must be browser or none, got %q", c.Fallback)
	}
	if c.SettleDelay < 0 || c.Cooldown < 0 || c.Stagger < 0 || c.RevokeGrace < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	if c.DownloadsDir == "" {
		return fmt.Errorf("downloads dir is required")
	}
	return nil
}

// configSetter applies values only for flags that were not set explicitly.
type configSetter struct {
	changed map[string]bool
}

func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}
