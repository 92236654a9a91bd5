// Package config builds the immutable per-run configuration. Flags,
// OWLCAP_* environment variables and an optional owlcap.yaml all land
// in viper; Load snapshots them once into a Config that is passed by
// reference to every component, so nothing downstream reads global
// flag state.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/owlbox/owlcap/internal/mirror"
	"github.com/owlbox/owlcap/internal/naming"
	"github.com/owlbox/owlcap/pkg/duration"
)

// CaptureConfig covers the camera and per-frame processing.
type CaptureConfig struct {
	OutDir      string
	Prefix      string
	Width       int
	Height      int
	Rotate      int
	SettleDelay time.Duration
	GraceDelay  time.Duration
}

// TimelapseConfig covers interval series captures. Count 0 means
// unbounded: capture until cancelled.
type TimelapseConfig struct {
	Interval time.Duration
	Count    int
}

// ButtonConfig covers GPIO-triggered captures.
type ButtonConfig struct {
	Pin      int
	Debounce time.Duration
}

// RemoteConfig covers the mirror target. Credentials are pass-through:
// a key path handed to the SSH layer, nothing more.
type RemoteConfig struct {
	Enabled     bool
	Host        string
	User        string
	Dir         string
	KeyPath     string
	Port        int
	DialTimeout time.Duration
}

// Target converts the remote section into a mirror target.
func (r RemoteConfig) Target() mirror.Target {
	return mirror.Target{
		User:        r.User,
		Host:        r.Host,
		Dir:         r.Dir,
		KeyPath:     r.KeyPath,
		Port:        r.Port,
		DialTimeout: r.DialTimeout,
	}
}

// IndexConfig covers the generated browse page.
type IndexConfig struct {
	Enabled bool
	Title   string
}

// AnnotateConfig covers the timestamp overlay.
type AnnotateConfig struct {
	Enabled  bool
	FontPath string
}

// Config is the complete session configuration, built once per run.
type Config struct {
	Capture   CaptureConfig
	Timelapse TimelapseConfig
	Button    ButtonConfig
	Remote    RemoteConfig
	Index     IndexConfig
	Annotate  AnnotateConfig
	LogLevel  string
}

// KeyReplacer maps nested config keys onto environment variable
// shape, so capture.outdir reads OWLCAP_CAPTURE_OUTDIR.
func KeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("capture.outdir", "./images")
	v.SetDefault("capture.prefix", naming.DefaultPrefix)
	v.SetDefault("capture.width", 0)
	v.SetDefault("capture.height", 0)
	v.SetDefault("capture.rotate", 0)
	v.SetDefault("capture.settle", "1500ms")
	v.SetDefault("capture.grace", "5s")
	v.SetDefault("timelapse.interval", "5s")
	v.SetDefault("timelapse.count", 0)
	v.SetDefault("button.pin", 17)
	v.SetDefault("button.debounce", "300ms")
	v.SetDefault("remote.enabled", false)
	v.SetDefault("remote.port", mirror.DefaultPort)
	v.SetDefault("remote.dial_timeout", "30s")
	v.SetDefault("index.enabled", false)
	v.SetDefault("index.title", "Image Index")
	v.SetDefault("annotate.enabled", true)
	v.SetDefault("log_level", "info")
}

// Load snapshots viper state into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	cfg := &Config{
		Capture: CaptureConfig{
			OutDir: v.GetString("capture.outdir"),
			Prefix: v.GetString("capture.prefix"),
			Width:  v.GetInt("capture.width"),
			Height: v.GetInt("capture.height"),
			Rotate: v.GetInt("capture.rotate"),
		},
		Timelapse: TimelapseConfig{
			Count: v.GetInt("timelapse.count"),
		},
		Button: ButtonConfig{
			Pin: v.GetInt("button.pin"),
		},
		Remote: RemoteConfig{
			Enabled: v.GetBool("remote.enabled"),
			Host:    v.GetString("remote.host"),
			User:    v.GetString("remote.user"),
			Dir:     v.GetString("remote.dir"),
			KeyPath: v.GetString("remote.key"),
			Port:    v.GetInt("remote.port"),
		},
		Index: IndexConfig{
			Enabled: v.GetBool("index.enabled"),
			Title:   v.GetString("index.title"),
		},
		Annotate: AnnotateConfig{
			Enabled:  v.GetBool("annotate.enabled"),
			FontPath: v.GetString("annotate.font"),
		},
		LogLevel: v.GetString("log_level"),
	}

	durations := []struct {
		key  string
		dst  *time.Duration
		name string
	}{
		{"capture.settle", &cfg.Capture.SettleDelay, "settle delay"},
		{"capture.grace", &cfg.Capture.GraceDelay, "grace delay"},
		{"timelapse.interval", &cfg.Timelapse.Interval, "timelapse interval"},
		{"button.debounce", &cfg.Button.Debounce, "button debounce"},
		{"remote.dial_timeout", &cfg.Remote.DialTimeout, "remote dial timeout"},
	}
	for _, d := range durations {
		parsed, err := duration.Parse(v.GetString(d.key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the configuration invariants that must fail the
// process before any hardware is touched.
func (c *Config) Validate() error {
	switch c.Capture.Rotate {
	case 0, 90, 180, 270:
	default:
		return fmt.Errorf("invalid rotation %d: use 0, 90, 180 or 270", c.Capture.Rotate)
	}

	if (c.Capture.Width > 0) != (c.Capture.Height > 0) {
		return fmt.Errorf("width and height must be set together")
	}

	if c.Timelapse.Interval <= 0 {
		return fmt.Errorf("timelapse interval must be positive, got %s", c.Timelapse.Interval)
	}
	if c.Timelapse.Count < 0 {
		return fmt.Errorf("timelapse count must not be negative, got %d", c.Timelapse.Count)
	}

	if c.Remote.Enabled {
		if err := c.Remote.Target().Validate(); err != nil {
			return err
		}
	}

	return nil
}
