package config

import (
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config with string durations for TOML.
type FileConfig struct {
	Width         int     `toml:"width"`
	Height        int     `toml:"height"`
	Scale         float64 `toml:"scale"`
	Background    string  `toml:"background"`
	Settle        string  `toml:"settle"`
	SettleDelay   string  `toml:"settle_delay"`
	ProbeInterval string  `toml:"probe_interval"`
	ProbeFrames   int     `toml:"probe_frames"`
	ProbeTimeout  string  `toml:"probe_timeout"`
	Cooldown      string  `toml:"cooldown"`
	Stagger       string  `toml:"stagger"`
	RevokeGrace   string  `toml:"revoke_grace"`
	DownloadsDir  string  `toml:"downloads_dir"`
	DataDir       string  `toml:"data_dir"`
	FontDir       string  `toml:"font_dir"`
	Fallback      string  `toml:"fallback"`
	LogLevel      string  `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.wrapped/config.toml, or "" without a home
// directory.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".wrapped", "config.toml")
	}
	return ""
}

// ApplyFileConfig copies file values into cfg, skipping flags the user set
// explicitly (changed, keyed by flag name).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := &configSetter{changed: changed}

	s.setInt("width", fc.Width, &cfg.Width)
	s.setInt("height", fc.Height, &cfg.Height)
	s.setFloat("scale", fc.Scale, &cfg.Scale)
	s.setString("background", fc.Background, &cfg.Background)
	s.setString("settle", fc.Settle, &cfg.Settle)
	s.setInt("probe-frames", fc.ProbeFrames, &cfg.ProbeFrames)
	s.setString("downloads", fc.DownloadsDir, &cfg.DownloadsDir)
	s.setString("data", fc.DataDir, &cfg.DataDir)
	s.setString("fonts", fc.FontDir, &cfg.FontDir)
	s.setString("fallback", fc.Fallback, &cfg.Fallback)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	durations := []struct {
		flag  string
		value string
		dst   *time.Duration
	}{
		{"settle-delay", fc.SettleDelay, &cfg.SettleDelay},
		{"probe-interval", fc.ProbeInterval, &cfg.ProbeInterval},
		{"probe-timeout", fc.ProbeTimeout, &cfg.ProbeTimeout},
		{"cooldown", fc.Cooldown, &cfg.Cooldown},
		{"stagger", fc.Stagger, &cfg.Stagger},
		{"revoke-grace", fc.RevokeGrace, &cfg.RevokeGrace},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, d.value, d.dst); err != nil {
			return err
		}
	}
	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
