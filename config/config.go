// Package config loads the YAML or TOML configuration of the oxy-rings command.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-rings/common"
	"github.com/Carmen-Shannon/oxy-rings/engine/program"
)

// maxConfigSize caps the config file size read from disk.
const maxConfigSize = 1024 * 1024

// Config is the full command configuration.
type Config struct {
	Program     string       `yaml:"program" toml:"program"`
	Objects     int          `yaml:"objects" toml:"objects"`
	Seed        uint64       `yaml:"seed" toml:"seed"` // 0 draws a random seed
	Ring        RingConfig   `yaml:"ring" toml:"ring"`
	Window      WindowConfig `yaml:"window" toml:"window"`
	PresentMode string       `yaml:"present_mode" toml:"present_mode"`
	MSAA        uint32       `yaml:"msaa" toml:"msaa"`
	ClearColor  common.Color `yaml:"clear_color" toml:"clear_color"`
	Software    bool         `yaml:"software_renderer" toml:"software_renderer"`
	PackWorkers int          `yaml:"pack_workers" toml:"pack_workers"` // 0 packs on the frame goroutine
	FrameLimit  float64      `yaml:"frame_limit" toml:"frame_limit"`
	Profiling   bool         `yaml:"profiling" toml:"profiling"`
}

// RingConfig describes the generated ring mesh.
type RingConfig struct {
	Radius       float32        `yaml:"radius" toml:"radius"`
	InnerRadius  float32        `yaml:"inner_radius" toml:"inner_radius"`
	Subdivisions int            `yaml:"subdivisions" toml:"subdivisions"`
	Indexed      *bool          `yaml:"indexed" toml:"indexed"` // pointer to distinguish unset vs false
	Gradient     GradientConfig `yaml:"gradient" toml:"gradient"`
}

// GradientConfig holds the per-vertex colors of the ring edges.
type GradientConfig struct {
	Outer common.RGB `yaml:"outer" toml:"outer"`
	Inner common.RGB `yaml:"inner" toml:"inner"`
}

// WindowConfig holds the initial window geometry.
type WindowConfig struct {
	Title  string `yaml:"title" toml:"title"`
	Width  int    `yaml:"width" toml:"width"`
	Height int    `yaml:"height" toml:"height"`
}

// Default returns the configuration used when no file is given.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	indexed := true
	return Config{
		Program: program.Storage,
		Objects: 100,
		Ring: RingConfig{
			Radius:       0.5,
			InnerRadius:  0.25,
			Subdivisions: 24,
			Indexed:      &indexed,
			Gradient: GradientConfig{
				Outer: common.RGB{1, 1, 1},
				Inner: common.RGB{0.1, 0.1, 0.1},
			},
		},
		Window: WindowConfig{
			Title:  "oxy-rings",
			Width:  1280,
			Height: 720,
		},
		PresentMode: common.PresentModeVSync.String(),
		MSAA:        uint32(common.MSAA4x),
		ClearColor:  common.ClearColor,
	}
}

// Load reads path and applies it over the defaults. Keys missing from the file keep their default value.
// Files ending in .toml are decoded as TOML, anything else as YAML.
//
// Parameters:
//   - path: the YAML file to read
//
// Returns:
//   - Config: the merged and validated configuration
//   - error: ErrConfiguration if the file cannot be read, parsed or validated
func Load(path string) (Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", common.ErrConfiguration, err)
	}
	if info.Size() > maxConfigSize {
		return Config{}, fmt.Errorf("%w: config file %s is %d bytes, limit is %d", common.ErrConfiguration, path, info.Size(), maxConfigSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", common.ErrConfiguration, err)
	}

	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = FormatTOML
	}
	cfg, err := ParseFormat(data, format)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	common.Logger().Debug("loaded config", "path", path, "program", cfg.Program, "objects", cfg.Objects)
	return cfg, nil
}

// Format names a config file encoding.
type Format int

const (
	// FormatYAML decodes with gopkg.in/yaml.v3.
	FormatYAML Format = iota
	// FormatTOML decodes with github.com/pelletier/go-toml/v2.
	FormatTOML
)

// Parse decodes YAML data over the defaults and validates the result.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - Config: the merged and validated configuration
//   - error: ErrConfiguration for malformed YAML, unknown keys or invalid values
func Parse(data []byte) (Config, error) {
	return ParseFormat(data, FormatYAML)
}

// ParseFormat decodes data in the given format over the defaults and validates the result.
//
// Parameters:
//   - data: the document
//   - format: FormatYAML or FormatTOML
//
// Returns:
//   - Config: the merged and validated configuration
//   - error: ErrConfiguration for malformed input, unknown keys or invalid values
func ParseFormat(data []byte, format Format) (Config, error) {
	cfg := Default()
	if len(data) > 0 {
		decode := decodeYAMLStrict
		if format == FormatTOML {
			decode = decodeTOMLStrict
		}
		if err := decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: %w", common.ErrConfiguration, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every value against its allowed range.
//
// Returns:
//   - error: ErrConfiguration naming the first invalid value, nil if valid
func (c Config) Validate() error {
	if _, err := program.Lookup(c.Program); err != nil {
		return err
	}
	if c.Objects < 1 {
		return fmt.Errorf("%w: objects must be >= 1, got %d", common.ErrConfiguration, c.Objects)
	}
	if c.Ring.Subdivisions < 1 {
		return fmt.Errorf("%w: ring.subdivisions must be >= 1, got %d", common.ErrConfiguration, c.Ring.Subdivisions)
	}
	if !common.IsFinite(c.Ring.Radius) || !common.IsFinite(c.Ring.InnerRadius) ||
		c.Ring.InnerRadius < 0 || c.Ring.InnerRadius > c.Ring.Radius {
		return fmt.Errorf("%w: ring radii must satisfy 0 <= inner_radius <= radius, got %v/%v",
			common.ErrConfiguration, c.Ring.InnerRadius, c.Ring.Radius)
	}
	for _, ch := range slices.Concat(c.Ring.Gradient.Outer[:], c.Ring.Gradient.Inner[:]) {
		if !common.IsFinite(ch) || ch < 0 || ch > 1 {
			return fmt.Errorf("%w: gradient channels must be in [0, 1], got %v", common.ErrConfiguration, ch)
		}
	}
	if c.Window.Width < 1 || c.Window.Height < 1 {
		return fmt.Errorf("%w: window size must be positive, got %dx%d", common.ErrConfiguration, c.Window.Width, c.Window.Height)
	}
	if _, err := c.Present(); err != nil {
		return err
	}
	if !common.MSAASampleCount(c.MSAA).Valid() {
		return fmt.Errorf("%w: msaa must be %d or %d, got %d", common.ErrConfiguration, common.MSAAOff, common.MSAA4x, c.MSAA)
	}
	for _, ch := range c.ClearColor {
		if !common.IsFinite(ch) || ch < 0 || ch > 1 {
			return fmt.Errorf("%w: clear_color channels must be in [0, 1], got %v", common.ErrConfiguration, c.ClearColor)
		}
	}
	if c.PackWorkers < 0 {
		return fmt.Errorf("%w: pack_workers must be >= 0, got %d", common.ErrConfiguration, c.PackWorkers)
	}
	if c.FrameLimit < 0 {
		return fmt.Errorf("%w: frame_limit must be >= 0, got %v", common.ErrConfiguration, c.FrameLimit)
	}
	return nil
}

// Present maps the present_mode name to a present mode.
//
// Returns:
//   - common.PresentMode: the mapped mode
//   - error: ErrConfiguration for an unknown name
func (c Config) Present() (common.PresentMode, error) {
	return common.ParsePresentMode(c.PresentMode)
}

// RingIndexed reports whether the ring should be generated with an index buffer.
func (c Config) RingIndexed() bool {
	return c.Ring.Indexed == nil || *c.Ring.Indexed
}
