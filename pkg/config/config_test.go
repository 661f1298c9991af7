package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1080, cfg.Width)
	assert.Equal(t, 1920, cfg.Height)
	assert.Equal(t, 2.0, cfg.Scale)
	assert.Equal(t, 1500*time.Millisecond, cfg.SettleDelay)
	assert.Equal(t, 200*time.Millisecond, cfg.Cooldown)
	assert.Equal(t, 100*time.Millisecond, cfg.Stagger)
	assert.Equal(t, "#0a0a0f", cfg.Background)
	assert.NoError(t, cfg.Validate())
}

func TestApplyFileConfig(t *testing.T) {
	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies values",
			fileConfig: FileConfig{
				Width:       720,
				Scale:       3,
				Settle:      "probe",
				SettleDelay: "2s",
				Cooldown:    "50ms",
				DataDir:     "/deck",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Width:       720,
				Scale:       3,
				Settle:      "probe",
				SettleDelay: 2 * time.Second,
				Cooldown:    50 * time.Millisecond,
				DataDir:     "/deck",
			},
		},
		{
			name:       "respects changed flags",
			fileConfig: FileConfig{Stagger: "1s", Fallback: "none"},
			changed:    map[string]bool{"stagger": true},
			initial:    Config{Stagger: 100 * time.Millisecond, Fallback: "browser"},
			expected:   Config{Stagger: 100 * time.Millisecond, Fallback: "none"},
		},
		{
			name:       "zero values keep defaults",
			fileConfig: FileConfig{},
			initial:    Config{Width: 1080, LogLevel: "info"},
			expected:   Config{Width: 1080, LogLevel: "info"},
		},
		{
			name:       "bad duration",
			fileConfig: FileConfig{RevokeGrace: "soon"},
			wantErr:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, strings.Contains(err.Error(), "revoke-grace"))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg)
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
scale = 1.5
settle = "probe"
probe_frames = 8
downloads_dir = "/tmp/out"
`), 0o644))

	fc, err := LoadFileConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 1.5, fc.Scale)
	assert.Equal(t, "probe", fc.Settle)
	assert.Equal(t, 8, fc.ProbeFrames)
	assert.Equal(t, "/tmp/out", fc.DownloadsDir)
	assert.True(t, FileExists(path))

	_, err = LoadFileConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"zero scale", func(c *Config) { c.Scale = 0 }},
		{"unknown settle", func(c *Config) { c.Settle = "magic" }},
		{"unknown fallback", func(c *Config) { c.Fallback = "fax" }},
		{"negative cooldown", func(c *Config) { c.Cooldown = -time.Second }},
		{"no downloads dir", func(c *Config) { c.DownloadsDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestBindFlagsAndChanged(t *testing.T) {
	cfg := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs, &cfg)
	require.NoError(t, fs.Parse([]string{"--scale=1", "--settle", "probe", "--cooldown=0s"}))

	assert.Equal(t, 1.0, cfg.Scale)
	assert.Equal(t, "probe", cfg.Settle)
	assert.Equal(t, time.Duration(0), cfg.Cooldown)
	assert.Equal(t, map[string]bool{"scale": true, "settle": true, "cooldown": true}, Changed(fs))

	// File values must not override flags given on the command line.
	require.NoError(t, ApplyFileConfig(&cfg, FileConfig{Scale: 4, Stagger: "1s"}, Changed(fs)))
	assert.Equal(t, 1.0, cfg.Scale)
	assert.Equal(t, time.Second, cfg.Stagger)
}
