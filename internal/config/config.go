package config

import (
	"fmt"
	"os"

	"github.com/san-kum/particlelife/internal/compute"
	"github.com/san-kum/particlelife/internal/dynamo"
	"github.com/san-kum/particlelife/internal/universe"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTypes     = 6
	DefaultParticles = 4000
	DefaultWidth     = 1280.0
	DefaultHeight    = 720.0
	DefaultSeed      = 42
	DefaultPreset    = "balanced"
)

type Config struct {
	Universe  UniverseConfig  `yaml:"universe"`
	World     WorldConfig     `yaml:"world"`
	Randomize universe.Params `yaml:"randomize"`
	Seed      uint64          `yaml:"seed"`
	Preset    string          `yaml:"preset,omitempty"`
	Backend   BackendConfig   `yaml:"backend"`
	Kernel    string          `yaml:"kernel"`
	Spawn     string          `yaml:"spawn"`
}

type UniverseConfig struct {
	Types     int     `yaml:"types"`
	Particles int     `yaml:"particles"`
	Width     float64 `yaml:"width"`
	Height    float64 `yaml:"height"`
}

type WorldConfig struct {
	Wrap           bool    `yaml:"wrap"`
	Friction       float64 `yaml:"friction"`
	DeltaTime      float64 `yaml:"delta_time"`
	ParticleRadius float64 `yaml:"particle_radius"`
	MeshDetail     int     `yaml:"mesh_detail"`
}

type BackendConfig struct {
	Name     string `yaml:"name"`
	Workers  int    `yaml:"workers"`
	MinChunk int    `yaml:"min_chunk"`
}

func DefaultConfig() *Config {
	w := dynamo.DefaultWorld(DefaultWidth, DefaultHeight)
	cfg := &Config{
		Universe: UniverseConfig{
			Types:     DefaultTypes,
			Particles: DefaultParticles,
			Width:     DefaultWidth,
			Height:    DefaultHeight,
		},
		World: WorldConfig{
			Wrap:           w.Wrap,
			Friction:       w.Friction,
			DeltaTime:      w.DeltaTime,
			ParticleRadius: w.ParticleRadius,
			MeshDetail:     w.MeshDetail,
		},
		Seed:    DefaultSeed,
		Backend: BackendConfig{Name: "auto"},
		Kernel:  dynamo.KernelTent.String(),
		Spawn:   universe.SpawnUniform.String(),
	}
	cfg.Randomize = GetPreset(DefaultPreset).Params
	return cfg
}

// Load reads a YAML file over the defaults. A preset named in the file
// replaces friction and the randomize section.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Preset != "" {
		if err := cfg.ApplyPreset(cfg.Preset); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyPreset copies a built-in scenario's friction and randomize
// parameters into the config.
func (c *Config) ApplyPreset(name string) error {
	p := GetPreset(name)
	if p == nil {
		return dynamo.Invalidf("unknown preset %q (have %v)", name, ListPresets())
	}
	c.Preset = name
	c.World.Friction = p.Friction
	c.Randomize = p.Params
	return nil
}

// WorldSettings assembles the world the universe is created with.
func (c *Config) WorldSettings() (dynamo.World, error) {
	kernel, err := dynamo.ParseKernel(c.Kernel)
	if err != nil {
		return dynamo.World{}, err
	}
	w := dynamo.World{
		Width:          c.Universe.Width,
		Height:         c.Universe.Height,
		Wrap:           c.World.Wrap,
		Friction:       c.World.Friction,
		DeltaTime:      c.World.DeltaTime,
		ParticleRadius: c.World.ParticleRadius,
		MeshDetail:     c.World.MeshDetail,
		Kernel:         kernel,
	}
	return w, w.Validate()
}

// BackendOptions returns the tuning passed to compute.ByName.
func (c *Config) BackendOptions() compute.Options {
	return compute.Options{Workers: c.Backend.Workers, MinChunk: c.Backend.MinChunk}
}

// Validate checks every section without building anything.
func (c *Config) Validate() error {
	if c.Universe.Types < 1 {
		return dynamo.Invalidf("universe.types must be at least 1, got %d", c.Universe.Types)
	}
	if c.Universe.Particles < 0 {
		return dynamo.Invalidf("universe.particles must be non-negative, got %d", c.Universe.Particles)
	}
	if _, err := c.WorldSettings(); err != nil {
		return err
	}
	if err := c.Randomize.Validate(); err != nil {
		return err
	}
	if _, err := universe.ParseSpawn(c.Spawn); err != nil {
		return err
	}
	if c.Backend.Workers < 0 || c.Backend.MinChunk < 0 {
		return dynamo.Invalidf("backend workers and min_chunk must be non-negative")
	}
	return nil
}
