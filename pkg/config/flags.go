package config

import (
	"github.com/spf13/pflag"
)

// BindFlags registers a flag for every setting, defaulting to cfg's current
// values. Flag names match the keys ApplyFileConfig checks.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.IntVar(&cfg.Width, "width", cfg.Width, "story width in logical pixels")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "story height in logical pixels")
	fs.Float64Var(&cfg.Scale, "scale", cfg.Scale, "device pixel scale of the capture")
	fs.StringVar(&cfg.Background, "background", cfg.Background, "colour under the captured card")
	fs.StringVar(&cfg.Settle, "settle", cfg.Settle, "settle policy: fixed or probe")
	fs.DurationVar(&cfg.SettleDelay, "settle-delay", cfg.SettleDelay, "wait after mount for the fixed policy")
	fs.DurationVar(&cfg.ProbeInterval, "probe-interval", cfg.ProbeInterval, "poll interval for the probe policy")
	fs.IntVar(&cfg.ProbeFrames, "probe-frames", cfg.ProbeFrames, "unchanged polls the probe policy waits for")
	fs.DurationVar(&cfg.ProbeTimeout, "probe-timeout", cfg.ProbeTimeout, "upper bound for the probe policy")
	fs.DurationVar(&cfg.Cooldown, "cooldown", cfg.Cooldown, "pause between batch exports")
	fs.DurationVar(&cfg.Stagger, "stagger", cfg.Stagger, "delay step between batch downloads")
	fs.DurationVar(&cfg.RevokeGrace, "revoke-grace", cfg.RevokeGrace, "lifetime of a staged download blob")
	fs.StringVar(&cfg.DownloadsDir, "downloads", cfg.DownloadsDir, "directory downloads are saved to")
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "directory with dataset.json and card templates (default: embedded deck)")
	fs.StringVar(&cfg.FontDir, "fonts", cfg.FontDir, "directory with TrueType fonts (default: bundled Go fonts)")
	fs.StringVar(&cfg.Fallback, "fallback", cfg.Fallback, "fallback when saving fails: browser or none")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
}

// Changed returns the names of flags set on the command line.
func Changed(fs *pflag.FlagSet) map[string]bool {
	changed := map[string]bool{}
	fs.Visit(func(f *pflag.Flag) { changed[f.Name] = true })
	return changed
}
