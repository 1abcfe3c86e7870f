package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"tiltmaze/internal/common"
	"tiltmaze/internal/maze"
	"tiltmaze/internal/physics"
	"tiltmaze/internal/sensor"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full set of tunables for a simulation session.
type Config struct {
	Viewport  ViewportConfig  `yaml:"viewport"`
	Maze      MazeConfig      `yaml:"maze"`
	Ball      BallConfig      `yaml:"ball"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Window    WindowConfig    `yaml:"window"`
	Log       LogConfig       `yaml:"log"`
}

// ViewportConfig is the playfield size in pixels. It is fixed for a session.
type ViewportConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// MazeConfig controls wall generation.
type MazeConfig struct {
	WallThickness float64 `yaml:"wall_thickness"`
	CellWidth     float64 `yaml:"cell_width"`
}

// BallConfig holds the ball radius and its starting position.
type BallConfig struct {
	Radius float64 `yaml:"radius"`
	StartX float64 `yaml:"start_x"`
	StartY float64 `yaml:"start_y"`
}

// PhysicsConfig selects the integration policy and the collision resolver.
type PhysicsConfig struct {
	Sensor      string  `yaml:"sensor"`   // gyroscope | accelerometer
	Resolver    string  `yaml:"resolver"` // hardstop | bounce
	AccelScale  float64 `yaml:"accel_scale"`
	Damping     float64 `yaml:"damping"`
	Restitution float64 `yaml:"restitution"`
}

// TelemetryConfig sizes the sample interval window.
type TelemetryConfig struct {
	Window int `yaml:"window"`
}

// WindowConfig scales the playfield to screen pixels in windowed mode.
type WindowConfig struct {
	Scale float64 `yaml:"scale"`
}

// LogConfig sets the log level (debug, info, warn, error).
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration the simulation ships with.
func Default() Config {
	return Config{
		Viewport: ViewportConfig{Width: 400, Height: 800},
		Maze:     MazeConfig{WallThickness: 25, CellWidth: 100},
		Ball:     BallConfig{Radius: 20, StartX: 50, StartY: 50},
		Physics: PhysicsConfig{
			Sensor:      sensor.KindAngularRate.String(),
			Resolver:    "hardstop",
			AccelScale:  physics.DefaultAccelScale,
			Damping:     physics.DefaultDamping,
			Restitution: physics.DefaultRestitution,
		},
		Telemetry: TelemetryConfig{Window: 128},
		Window:    WindowConfig{Scale: 1},
		Log:       LogConfig{Level: "info"},
	}
}

// Load reads YAML from r on top of the defaults and validates the result.
// Unknown keys are rejected. An empty document yields the defaults.
func Load(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads a YAML config file. An empty path returns the defaults.
func LoadFile(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := Load(f)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// SensorKind returns the sensor kind the configured policy consumes.
func (c Config) SensorKind() (sensor.Kind, error) {
	return sensor.ParseKind(c.Physics.Sensor)
}

// WindowSize returns the initial window size in screen pixels.
func (c Config) WindowSize() (int, int) {
	return int(c.Viewport.Width * c.Window.Scale), int(c.Viewport.Height * c.Window.Scale)
}

// Validate checks that the configuration describes a playable session.
func (c Config) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"viewport.width", c.Viewport.Width},
		{"viewport.height", c.Viewport.Height},
		{"maze.wall_thickness", c.Maze.WallThickness},
		{"maze.cell_width", c.Maze.CellWidth},
		{"ball.radius", c.Ball.Radius},
	}
	for _, p := range positive {
		if !(p.value > 0) || math.IsInf(p.value, 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidConfig, p.name, p.value)
		}
	}

	r := c.Ball.Radius
	if 2*r > c.Viewport.Width || 2*r > c.Viewport.Height {
		return fmt.Errorf("%w: ball radius %.1f does not fit the %vx%v viewport", ErrInvalidConfig, r, c.Viewport.Width, c.Viewport.Height)
	}
	if !(c.Ball.StartX >= r && c.Ball.StartX <= c.Viewport.Width-r) ||
		!(c.Ball.StartY >= r && c.Ball.StartY <= c.Viewport.Height-r) {
		return fmt.Errorf("%w: start position (%.1f, %.1f) is outside the playfield", ErrInvalidConfig, c.Ball.StartX, c.Ball.StartY)
	}

	walls, err := maze.Generate(c.Viewport.Width, c.Viewport.Height, c.Maze.WallThickness, c.Maze.CellWidth)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	ball := common.RectAround(common.Vec(c.Ball.StartX, c.Ball.StartY), r)
	for i, wall := range walls {
		if wall.Intersects(ball) {
			return fmt.Errorf("%w: start position (%.1f, %.1f) overlaps wall %d %s", ErrInvalidConfig, c.Ball.StartX, c.Ball.StartY, i, wall)
		}
	}

	if _, err := c.SensorKind(); err != nil {
		return fmt.Errorf("%w: physics.sensor: %w", ErrInvalidConfig, err)
	}
	if _, err := physics.NewResolver(c.Physics.Resolver, c.Physics.Restitution); err != nil {
		return fmt.Errorf("%w: physics.resolver: %w", ErrInvalidConfig, err)
	}
	if math.IsNaN(c.Physics.AccelScale) || math.IsInf(c.Physics.AccelScale, 0) {
		return fmt.Errorf("%w: physics.accel_scale must be finite", ErrInvalidConfig)
	}
	if !(c.Physics.Damping >= 0) || math.IsInf(c.Physics.Damping, 0) {
		return fmt.Errorf("%w: physics.damping must be non-negative, got %v", ErrInvalidConfig, c.Physics.Damping)
	}
	if !(c.Physics.Restitution >= 0 && c.Physics.Restitution <= 1) {
		return fmt.Errorf("%w: physics.restitution must be in [0, 1], got %v", ErrInvalidConfig, c.Physics.Restitution)
	}
	if !(c.Window.Scale > 0) || math.IsInf(c.Window.Scale, 0) {
		return fmt.Errorf("%w: window.scale must be positive, got %v", ErrInvalidConfig, c.Window.Scale)
	}
	if w, h := c.WindowSize(); w < 1 || h < 1 {
		return fmt.Errorf("%w: window.scale %v gives a %dx%d window", ErrInvalidConfig, c.Window.Scale, w, h)
	}
	if c.Telemetry.Window < 2 {
		return fmt.Errorf("%w: telemetry.window must be at least 2, got %d", ErrInvalidConfig, c.Telemetry.Window)
	}
	return nil
}
