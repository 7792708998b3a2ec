package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-ncube/internal/ncube"
	"github.com/coreman2200/funtimes-ncube/internal/record"
	"github.com/coreman2200/funtimes-ncube/internal/rotation"
)

type PlaneVelocity struct {
	Plane    [2]int  `yaml:"plane"`    // axis pair, 0-based, either order
	Velocity float64 `yaml:"velocity"` // rad/s
}

type Appearance struct {
	EdgeThickness float64       `yaml:"edge_thickness"`
	EdgeColor     *record.Color `yaml:"edge_color,omitempty"`
	FaceColor     *record.Color `yaml:"face_color,omitempty"`
	Unlit         bool          `yaml:"unlit"`
}

// Config mirrors config.yaml. Zero values mean "not set": the command line
// flag or built-in default applies.
type Config struct {
	Dimension int     `yaml:"dimension"`
	Size      float64 `yaml:"size"`
	FPS       int     `yaml:"fps"`
	Addr      string  `yaml:"addr,omitempty"`
	LogLevel  string  `yaml:"log_level,omitempty"` // zerolog level name

	// Rotations replaces the default plane velocities when non-empty.
	Rotations  []PlaneVelocity `yaml:"rotations,omitempty"`
	Appearance Appearance      `yaml:"appearance"`

	ScenesDB string `yaml:"scenes_db,omitempty"` // sqlite path for the scene library
	Program  string `yaml:"program,omitempty"`   // rotation program file to start with
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate rejects values that are set but unusable.
func (c *Config) Validate() error {
	if c.Dimension != 0 && !ncube.ValidDimension(c.Dimension) {
		return fmt.Errorf("dimension %d outside [%d, %d]", c.Dimension, ncube.MinDimension, ncube.MaxDimension)
	}
	if c.Size < 0 {
		return fmt.Errorf("size must be positive, got %v", c.Size)
	}
	if c.FPS < 0 || c.FPS > 240 {
		return fmt.Errorf("fps %d outside [1, 240]", c.FPS)
	}
	if c.LogLevel != "" {
		if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
			return err
		}
	}
	for _, r := range c.Rotations {
		a, b := r.Plane[0], r.Plane[1]
		if a < 0 || b < 0 || a == b || a >= ncube.MaxDimension || b >= ncube.MaxDimension {
			return fmt.Errorf("invalid rotation plane %v", r.Plane)
		}
	}
	if c.Appearance.EdgeThickness < 0 {
		return fmt.Errorf("edge thickness must not be negative, got %v", c.Appearance.EdgeThickness)
	}
	return nil
}

// RotationState builds the initial rotation state for dimension n. Without
// configured rotations the defaults apply; configured planes beyond n are
// skipped.
func (c *Config) RotationState(n int) *rotation.State {
	if len(c.Rotations) == 0 {
		return rotation.Default(n)
	}
	s := rotation.NewState(n)
	for _, r := range c.Rotations {
		// planes beyond n return ErrUnknownPlane and are ignored
		_ = s.SetVelocity(rotation.NewPlane(r.Plane[0], r.Plane[1]), r.Velocity)
	}
	return s
}
