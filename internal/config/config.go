// Package config loads viewer settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvPath names the environment variable holding the config file path.
const EnvPath = "FOLIO_CONFIG"

// Duration is a time.Duration written as a string such as "600ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds all settings.
type Config struct {
	Log        Log        `toml:"log"`
	Viewer     Viewer     `toml:"viewer"`
	Zoom       Zoom       `toml:"zoom"`
	Quality    Quality    `toml:"quality"`
	Render     Render     `toml:"render"`
	Transition Transition `toml:"transition"`
	Fullscreen Fullscreen `toml:"fullscreen"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Viewer holds layout settings, in viewport units.
type Viewer struct {
	Breakpoint float32  `toml:"breakpoint"`
	PageAspect float32  `toml:"page_aspect"`
	Gutter     float32  `toml:"gutter"`
	Padding    float32  `toml:"padding"`
	// UIFade is how long the controls take to fade in or out.
	UIFade     Duration `toml:"ui_fade"`
}

type Zoom struct {
	Max              float64 `toml:"max"`
	Snap             float64 `toml:"snap"`
	Margin           float64 `toml:"margin"`
	Damping          float64 `toml:"damping"`
	WheelSensitivity float64 `toml:"wheel_sensitivity"`
	ButtonStep       float64 `toml:"button_step"`
}

// Quality holds the render quality policy. A zero DevicePixelRatio means
// the window canvas's scale is used.
type Quality struct {
	DevicePixelRatio float64  `toml:"device_pixel_ratio"`
	ConstrainedCap   float64  `toml:"constrained_cap"`
	WideFactor       float64  `toml:"wide_factor"`
	Headroom         float64  `toml:"headroom"`
	SettleDelay      Duration `toml:"settle_delay"`
}

type Render struct {
	ReferenceDPI   float64 `toml:"reference_dpi"`
	CacheEntries   int     `toml:"cache_entries"`
	Workers        int     `toml:"workers"`
	ThumbnailWidth int     `toml:"thumbnail_width"`
	TrimCovers     bool    `toml:"trim_covers"`
}

type Transition struct {
	Offset   float32  `toml:"offset"`
	Duration Duration `toml:"duration"`
}

type Fullscreen struct {
	ResetDelay Duration `toml:"reset_delay"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Log: Log{Level: "info", Format: "text"},
		Viewer: Viewer{
			Breakpoint: 768,
			PageAspect: 1.414,
			Gutter:     20,
			Padding:    32,
			UIFade:     Duration{200 * time.Millisecond},
		},
		Zoom: Zoom{
			Max:              4,
			Snap:             1.05,
			Margin:           50,
			Damping:          3,
			WheelSensitivity: 0.02,
			ButtonStep:       0.5,
		},
		Quality: Quality{
			ConstrainedCap: 1.5,
			WideFactor:     2,
			Headroom:       1.2,
			SettleDelay:    Duration{600 * time.Millisecond},
		},
		Render: Render{
			ReferenceDPI:   96,
			CacheEntries:   24,
			Workers:        2,
			ThumbnailWidth: 200,
		},
		Transition: Transition{
			Offset:   50,
			Duration: Duration{500 * time.Millisecond},
		},
		Fullscreen: Fullscreen{
			ResetDelay: Duration{150 * time.Millisecond},
		},
	}
}

// Path returns flagPath if set, otherwise the value of FOLIO_CONFIG.
func Path(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	return os.Getenv(EnvPath)
}

// Load reads the file at path over the defaults. An empty path or a
// missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return Config{}, fmt.Errorf("failed to parse config: unknown key %q", undec[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every out-of-range setting.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	check(c.Log.Format == "text" || c.Log.Format == "json", "log.format: must be text or json, got %q", c.Log.Format)

	check(c.Viewer.Breakpoint > 0, "viewer.breakpoint: must be positive")
	check(c.Viewer.PageAspect > 0, "viewer.page_aspect: must be positive")
	check(c.Viewer.Gutter >= 0, "viewer.gutter: must not be negative")
	check(c.Viewer.Padding >= 0, "viewer.padding: must not be negative")
	check(c.Viewer.UIFade.Duration >= 0, "viewer.ui_fade: must not be negative")

	check(c.Zoom.Max > 1, "zoom.max: must be greater than 1")
	check(c.Zoom.Snap >= 1 && c.Zoom.Snap < c.Zoom.Max, "zoom.snap: must be in [1, zoom.max)")
	check(c.Zoom.Margin >= 0, "zoom.margin: must not be negative")
	check(c.Zoom.Damping >= 1, "zoom.damping: must be at least 1")
	check(c.Zoom.WheelSensitivity > 0, "zoom.wheel_sensitivity: must be positive")
	check(c.Zoom.ButtonStep > 0, "zoom.button_step: must be positive")

	check(c.Quality.DevicePixelRatio >= 0, "quality.device_pixel_ratio: must not be negative")
	check(c.Quality.ConstrainedCap > 0, "quality.constrained_cap: must be positive")
	check(c.Quality.WideFactor > 0, "quality.wide_factor: must be positive")
	check(c.Quality.Headroom >= 1, "quality.headroom: must be at least 1")
	check(c.Quality.SettleDelay.Duration >= 0, "quality.settle_delay: must not be negative")

	check(c.Render.ReferenceDPI > 0, "render.reference_dpi: must be positive")
	check(c.Render.CacheEntries > 0, "render.cache_entries: must be positive")
	check(c.Render.Workers > 0, "render.workers: must be positive")
	check(c.Render.ThumbnailWidth > 0, "render.thumbnail_width: must be positive")

	check(c.Transition.Offset >= 0, "transition.offset: must not be negative")
	check(c.Transition.Duration.Duration >= 0, "transition.duration: must not be negative")
	check(c.Fullscreen.ResetDelay.Duration >= 0, "fullscreen.reset_delay: must not be negative")

	return errors.Join(errs...)
}
