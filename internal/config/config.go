// Package config loads pinchlight settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/pinchlight/internal/capture"
	"github.com/ayusman/pinchlight/internal/detector"
	"github.com/ayusman/pinchlight/internal/gesture"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Region defaults: a 200x200 button in the middle of the frame.
const (
	DefaultRegionSize = 200
	DefaultAddr       = ":8080"
	MaxFPS            = 120
)

// maxFileSize guards against pointing the loader at something that is not a
// config file.
const maxFileSize = 1 << 20

// Hook selects the plugin action run on every activation. An empty Plugin
// disables the hook.
type Hook struct {
	Plugin string `yaml:"plugin"`
	Action string `yaml:"action"`
}

// Config is the complete application configuration.
type Config struct {
	Addr     string            `yaml:"addr"`
	FPS      int               `yaml:"fps"`
	Debounce time.Duration     `yaml:"debounce"`
	Region   gesture.HitRegion `yaml:"region"`

	Camera   capture.Config  `yaml:"camera"`
	Detector detector.Config `yaml:"detector"`
	// MotionThreshold is the percentage of changed pixels under which the
	// feed skips detection. Zero disables the gate.
	MotionThreshold float64 `yaml:"motion_threshold"`
	// MockDetector replaces the MediaPipe service with a detector that never
	// sees hands. Useful for running the UI without Python.
	MockDetector bool `yaml:"mock_detector"`

	DataDir   string `yaml:"data_dir"`
	PluginDir string `yaml:"plugin_dir"`
	WebDir    string `yaml:"web_dir"`
	Tray      bool   `yaml:"tray"`

	OnActivate Hook `yaml:"on_activate"`

	regionSet bool
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".pinchlight")

	cam := capture.DefaultConfig()
	return &Config{
		Addr:            DefaultAddr,
		FPS:             capture.DefaultFPS,
		Debounce:        gesture.DefaultDebounce,
		Region:          DefaultRegion(cam.Width, cam.Height),
		Camera:          cam,
		Detector:        detector.DefaultConfig(),
		MotionThreshold: 0.5,
		DataDir:         dataDir,
		PluginDir:       filepath.Join(dataDir, "plugins"),
	}
}

// DefaultRegion is the 200x200 button centered in a width x height frame.
func DefaultRegion(width, height int) gesture.HitRegion {
	return gesture.CenteredRegion(float64(width), float64(height), DefaultRegionSize, DefaultRegionSize)
}

// Load reads path on top of Default. A missing file is not an error; fields
// the file omits keep their defaults, except that an omitted region is
// re-centered in the configured camera frame.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	clean := filepath.Clean(expandHome(path))
	info, err := os.Stat(clean)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat config: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", clean, err)
	}

	// The default region follows the configured frame size.
	var set struct {
		Region *yaml.Node `yaml:"region"`
	}
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse %s: %w", clean, err)
	}
	cfg.regionSet = set.Region != nil
	cfg.Recenter(cfg.Camera.Width, cfg.Camera.Height)

	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.PluginDir = expandHome(cfg.PluginDir)
	cfg.WebDir = expandHome(cfg.WebDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges. Every error wraps ErrInvalid.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr is empty", ErrInvalid)
	case c.FPS < 1 || c.FPS > MaxFPS:
		return fmt.Errorf("%w: fps must be in 1..%d, got %d", ErrInvalid, MaxFPS, c.FPS)
	case c.Debounce <= 0:
		return fmt.Errorf("%w: debounce must be positive, got %s", ErrInvalid, c.Debounce)
	case c.Region.Width <= 0 || c.Region.Height <= 0:
		return fmt.Errorf("%w: region size must be positive, got %gx%g", ErrInvalid, c.Region.Width, c.Region.Height)
	case c.Camera.Width <= 0 || c.Camera.Height <= 0:
		return fmt.Errorf("%w: frame size must be positive, got %dx%d", ErrInvalid, c.Camera.Width, c.Camera.Height)
	case c.Detector.MaxHands < 1:
		return fmt.Errorf("%w: detector.max_hands must be at least 1", ErrInvalid)
	case c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1:
		return fmt.Errorf("%w: detector.min_confidence must be between 0 and 1", ErrInvalid)
	case c.MotionThreshold < 0 || c.MotionThreshold > 100:
		return fmt.Errorf("%w: motion_threshold must be between 0 and 100", ErrInvalid)
	case c.DataDir == "":
		return fmt.Errorf("%w: data_dir is empty", ErrInvalid)
	}
	return nil
}

// Recenter moves the default region to the middle of a width x height
// frame. A region given in the config file is left alone.
func (c *Config) Recenter(width, height int) {
	if c.regionSet || width <= 0 || height <= 0 {
		return
	}
	c.Region = DefaultRegion(width, height)
}

// DBPath is the settings database location inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "pinchlight.db")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
