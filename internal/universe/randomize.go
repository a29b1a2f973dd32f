package universe

import (
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/san-kum/particlelife/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// Params are the six scenario values Randomize draws interactions from.
type Params struct {
	AttractionMean   float64 `yaml:"attraction_mean"`
	AttractionStddev float64 `yaml:"attraction_stddev"`
	MinRadius0       float64 `yaml:"min_radius0"`
	MinRadius1       float64 `yaml:"min_radius1"`
	MaxRadius0       float64 `yaml:"max_radius0"`
	MaxRadius1       float64 `yaml:"max_radius1"`
}

// Validate rejects parameters that cannot produce a usable table.
func (p Params) Validate() error {
	for _, v := range []float64{p.AttractionMean, p.AttractionStddev, p.MinRadius0, p.MinRadius1, p.MaxRadius0, p.MaxRadius1} {
		if !dynamo.Finite(v) {
			return dynamo.Invalidf("randomize parameters must be finite, got %v", v)
		}
	}
	switch {
	case p.AttractionStddev < 0:
		return dynamo.Invalidf("attraction stddev must be non-negative, got %v", p.AttractionStddev)
	case p.MinRadius0 < 0 || p.MinRadius1 < p.MinRadius0:
		return dynamo.Invalidf("min radius bounds must satisfy 0 <= %v <= %v", p.MinRadius0, p.MinRadius1)
	case p.MaxRadius0 < 0 || p.MaxRadius1 < p.MaxRadius0:
		return dynamo.Invalidf("max radius bounds must satisfy 0 <= %v <= %v", p.MaxRadius0, p.MaxRadius1)
	}
	return nil
}

// Spawn selects the initial particle layout.
type Spawn int

const (
	// SpawnUniform draws each particle's type and position independently.
	SpawnUniform Spawn = iota
	// SpawnNoise draws positions uniformly but picks types from a Perlin
	// field, so like types start out in loose patches.
	SpawnNoise
)

func (s Spawn) String() string {
	if s == SpawnNoise {
		return "noise"
	}
	return "uniform"
}

// ParseSpawn maps a configuration name onto a Spawn.
func ParseSpawn(name string) (Spawn, error) {
	switch name {
	case "", "uniform":
		return SpawnUniform, nil
	case "noise":
		return SpawnNoise, nil
	}
	return SpawnUniform, dynamo.Invalidf("unknown spawn layout %q", name)
}

// noiseScale is the number of noise periods across the world's longer side.
const noiseScale = 4.0

// Randomize rebuilds the interaction table and every particle from p.
//
// Self-interactions are always repulsive with an inner radius of one
// particle diameter. Radii are drawn per ordered pair and mirrored, so the
// draw for (b, a) overwrites the one made for (a, b) when b > a.
func (u *Universe) Randomize(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}

	n := len(u.types)
	diameter := 2 * u.world.ParticleRadius
	raw := make([]float64, n*n)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var attraction, minR float64
			if i == j {
				attraction = -math.Abs(u.rng.Gaussian(p.AttractionMean, p.AttractionStddev))
				minR = diameter
			} else {
				attraction = u.rng.Gaussian(p.AttractionMean, p.AttractionStddev)
				minR = math.Max(u.rng.Uniform(p.MinRadius0, p.MinRadius1), diameter)
			}
			maxR := math.Max(u.rng.Uniform(p.MaxRadius0, p.MaxRadius1), minR)

			raw[i*n+j] = attraction
			u.table[i*n+j].MinRadius, u.table[i*n+j].MaxRadius = minR, maxR
			u.table[j*n+i].MinRadius, u.table[j*n+i].MaxRadius = minR, maxR
		}
	}
	for k := range u.table {
		in := &u.table[k]
		in.Attraction = dynamo.Normalize(raw[k], in.MinRadius, in.MaxRadius)
	}

	u.spawnParticles()

	u.logger.Info("universe randomized",
		"spawn", u.spawn.String(),
		"max_radius", u.MaxRadius(),
	)
	return nil
}

func (u *Universe) spawnParticles() {
	n := len(u.types)
	w, h := u.world.Width, u.world.Height

	var field *perlin.Perlin
	if u.spawn == SpawnNoise {
		field = perlin.NewPerlin(2, 2, 3, int64(u.rng.Uint32()))
	}
	scale := noiseScale / math.Max(w, h)

	for i := range u.particles {
		p := &u.particles[i]
		p.Type = u.rng.Int(0, n)
		p.Pos = r2.Vec{X: u.rng.Uniform(0, w), Y: u.rng.Uniform(0, h)}
		p.Vel = r2.Vec{X: u.rng.Gaussian(0, 1), Y: u.rng.Gaussian(0, 1)}

		if field != nil {
			v := (field.Noise2D(p.Pos.X*scale, p.Pos.Y*scale) + 1) / 2
			p.Type = min(max(int(v*float64(n)), 0), n-1)
		}
	}
}
