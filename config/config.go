// Package config provides configuration loading and access for the visualizer.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid marks a configuration that fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	World     WorldConfig     `yaml:"world"`
	Points    PointsConfig    `yaml:"points"`
	Quadtree  QuadtreeConfig  `yaml:"quadtree"`
	Walk      WalkConfig      `yaml:"walk"`
	Overlap   OverlapConfig   `yaml:"overlap"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds simulation world dimensions.
// World can differ from the screen; camera handles the viewport.
type WorldConfig struct {
	Width  int `yaml:"width"`  // World width in world units (0 = use screen width)
	Height int `yaml:"height"` // World height in world units (0 = use screen height)
}

// PointsConfig holds point set parameters.
type PointsConfig struct {
	Count  int     `yaml:"count"`  // Points created at start and on reset
	Radius float64 `yaml:"radius"` // Display radius, shared by every point
}

// QuadtreeConfig holds spatial index parameters.
type QuadtreeConfig struct {
	Capacity    int  `yaml:"capacity"`     // Max points per leaf before subdivision
	LegacySplit bool `yaml:"legacy_split"` // Keep held items on split nodes, drop the triggering insertion
}

// WalkConfig holds random walk parameters.
type WalkConfig struct {
	Step float64 `yaml:"step"` // Distance moved per tick
}

// OverlapConfig holds overlap classification parameters.
type OverlapConfig struct {
	QueryMultiplier float64 `yaml:"query_multiplier"` // Query radius = multiplier * point radius
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`          // Window length in seconds
	PerfCollectorWindow int     `yaml:"perf_collector_window"` // Rolling perf window in ticks
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ScreenW32 float32 // Screen.Width as float32
	ScreenH32 float32 // Screen.Height as float32
	WorldW32  float32 // Effective world width as float32
	WorldH32  float32 // Effective world height as float32
	Radius32  float32 // Points.Radius as float32
	Step32    float32 // Walk.Step as float32
	QueryMul  float32 // Overlap.QueryMultiplier as float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.computeDerived()

	return cfg, nil
}

// Validate rejects parameter values the simulation cannot run with.
// A capacity below 1 would subdivide forever on the first overflow, so it
// is refused here rather than guarded at every insertion.
func (c *Config) Validate() error {
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		return fmt.Errorf("%w: screen dimensions must be positive, got %dx%d",
			ErrInvalid, c.Screen.Width, c.Screen.Height)
	}
	if c.World.Width < 0 || c.World.Height < 0 {
		return fmt.Errorf("%w: world dimensions must not be negative, got %dx%d",
			ErrInvalid, c.World.Width, c.World.Height)
	}
	if c.Points.Count < 0 {
		return fmt.Errorf("%w: points.count must not be negative, got %d",
			ErrInvalid, c.Points.Count)
	}
	if c.Points.Radius <= 0 {
		return fmt.Errorf("%w: points.radius must be positive, got %v",
			ErrInvalid, c.Points.Radius)
	}
	if c.Quadtree.Capacity < 1 {
		return fmt.Errorf("%w: quadtree.capacity must be at least 1, got %d",
			ErrInvalid, c.Quadtree.Capacity)
	}
	if c.Walk.Step < 0 {
		return fmt.Errorf("%w: walk.step must not be negative, got %v",
			ErrInvalid, c.Walk.Step)
	}
	// The wraparound helper only maps values one world size below zero
	// back into range, so a single step must not exceed the world.
	worldW := c.World.Width
	if worldW == 0 {
		worldW = c.Screen.Width
	}
	worldH := c.World.Height
	if worldH == 0 {
		worldH = c.Screen.Height
	}
	if c.Walk.Step > float64(worldW) || c.Walk.Step > float64(worldH) {
		return fmt.Errorf("%w: walk.step must not exceed the world size %dx%d, got %v",
			ErrInvalid, worldW, worldH, c.Walk.Step)
	}
	if c.Overlap.QueryMultiplier <= 0 {
		return fmt.Errorf("%w: overlap.query_multiplier must be positive, got %v",
			ErrInvalid, c.Overlap.QueryMultiplier)
	}
	if c.Telemetry.StatsWindow <= 0 {
		return fmt.Errorf("%w: telemetry.stats_window must be positive, got %v",
			ErrInvalid, c.Telemetry.StatsWindow)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)

	// World dimensions default to screen size if not specified
	worldW := c.World.Width
	if worldW == 0 {
		worldW = c.Screen.Width
	}
	worldH := c.World.Height
	if worldH == 0 {
		worldH = c.Screen.Height
	}
	c.Derived.WorldW32 = float32(worldW)
	c.Derived.WorldH32 = float32(worldH)

	c.Derived.Radius32 = float32(c.Points.Radius)
	c.Derived.Step32 = float32(c.Walk.Step)
	c.Derived.QueryMul = float32(c.Overlap.QueryMultiplier)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
