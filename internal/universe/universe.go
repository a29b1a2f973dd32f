// Package universe owns one simulation context: the particle types, the
// interaction table between them, the particle array and the world
// settings. It knows how to randomize all of those from a handful of
// scenario parameters but nothing about how a timestep is computed.
package universe

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/particlelife/internal/dynamo"
	"github.com/san-kum/particlelife/internal/rng"
)

// DefaultSeed is used when no seed option is given.
const DefaultSeed = 42

// MaxParticles is the largest particle count the tile offsets can index.
const MaxParticles = math.MaxInt32

// Universe is a simulation context. It is not safe for concurrent use.
type Universe struct {
	world     dynamo.World
	types     []dynamo.ParticleType
	table     []dynamo.Interaction
	particles []dynamo.Particle

	rng    *rng.RNG
	spawn  Spawn
	logger *slog.Logger
}

// Option configures a Universe at construction.
type Option func(*Universe)

// WithSeed seeds the generator behind Randomize.
func WithSeed(seed uint64) Option {
	return func(u *Universe) { u.rng = rng.New(seed) }
}

// WithWorld replaces every world setting except the dimensions.
func WithWorld(w dynamo.World) Option {
	return func(u *Universe) {
		w.Width, w.Height = u.world.Width, u.world.Height
		u.world = w
	}
}

// WithSpawn selects how Randomize lays out particles.
func WithSpawn(s Spawn) Option {
	return func(u *Universe) { u.spawn = s }
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(u *Universe) { u.logger = l }
}

// New creates a universe with numTypes particle types and numParticles
// particles. Interactions start at zero and particles at the origin until
// Randomize is called.
func New(numTypes, numParticles int, width, height float64, opts ...Option) (*Universe, error) {
	if numTypes < 1 {
		return nil, dynamo.Invalidf("need at least one particle type, got %d", numTypes)
	}
	if numParticles < 0 || numParticles > MaxParticles {
		return nil, dynamo.Invalidf("particle count must be in [0, %d], got %d", MaxParticles, numParticles)
	}

	u := &Universe{
		world: dynamo.DefaultWorld(width, height),
		rng:   rng.New(DefaultSeed),
	}
	for _, opt := range opts {
		opt(u)
	}
	if err := u.world.Validate(); err != nil {
		return nil, err
	}
	if u.logger == nil {
		u.logger = slog.Default()
	}

	u.types = make([]dynamo.ParticleType, numTypes)
	for i := range u.types {
		u.types[i].Color = TypeColor(i, numTypes)
	}
	u.table = make([]dynamo.Interaction, numTypes*numTypes)
	u.particles = make([]dynamo.Particle, numParticles)

	u.logger.Info("universe created",
		"types", numTypes,
		"particles", numParticles,
		"width", width,
		"height", height,
	)
	return u, nil
}

// TypeColor returns the display color of type i out of n. Neighbouring
// types alternate between full and half brightness.
func TypeColor(i, n int) dynamo.Color {
	return dynamo.HSV(float64(i)/float64(n), 1, float64(i&1)*0.5+0.5)
}

// NumTypes returns the number of particle types.
func (u *Universe) NumTypes() int { return len(u.types) }

// Types returns the particle types. The slice must not be modified.
func (u *Universe) Types() []dynamo.ParticleType { return u.types }

// Particles returns the particle array. Callers may edit it between
// timesteps; the pipeline picks up edits on its next resync.
func (u *Universe) Particles() []dynamo.Particle { return u.particles }

// Table returns the row-major interaction table, indexed a*NumTypes()+b.
// The slice must not be modified.
func (u *Universe) Table() []dynamo.Interaction { return u.table }

// World returns the current world settings.
func (u *Universe) World() dynamo.World { return u.world }

// Interaction returns how type a reacts to type b.
func (u *Universe) Interaction(a, b int) dynamo.Interaction {
	return u.table[a*len(u.types)+b]
}

// SetInteraction sets how type a reacts to type b. attraction is the raw
// value; it is normalized for storage. The radii are mirrored onto (b, a),
// whose own attraction is renormalized to the new band.
func (u *Universe) SetInteraction(a, b int, attraction, minRadius, maxRadius float64) error {
	n := len(u.types)
	if a < 0 || a >= n || b < 0 || b >= n {
		return fmt.Errorf("%w: type pair (%d, %d) outside %d types", dynamo.ErrDimensionMismatch, a, b, n)
	}
	if !dynamo.Finite(attraction) || !dynamo.Finite(maxRadius) || !(minRadius >= 0 && maxRadius >= minRadius) {
		return dynamo.Invalidf("interaction (%d, %d): need finite attraction %v and 0 <= min (%v) <= max (%v)",
			a, b, attraction, minRadius, maxRadius)
	}

	mirror := u.table[b*n+a].Raw()
	u.table[a*n+b] = dynamo.Interaction{
		Attraction: dynamo.Normalize(attraction, minRadius, maxRadius),
		MinRadius:  minRadius,
		MaxRadius:  maxRadius,
	}
	if a != b {
		u.table[b*n+a] = dynamo.Interaction{
			Attraction: dynamo.Normalize(mirror, minRadius, maxRadius),
			MinRadius:  minRadius,
			MaxRadius:  maxRadius,
		}
	}
	return nil
}

// MaxRadius returns the largest outer radius over all type pairs.
func (u *Universe) MaxRadius() float64 {
	var r float64
	for _, in := range u.table {
		r = math.Max(r, in.MaxRadius)
	}
	return r
}

// SetWrap toggles toroidal boundaries.
func (u *Universe) SetWrap(wrap bool) { u.world.Wrap = wrap }

// SetFriction sets the per-step velocity damping.
func (u *Universe) SetFriction(f float64) error {
	w := u.world
	w.Friction = f
	if err := w.Validate(); err != nil {
		return err
	}
	u.world = w
	return nil
}

// SetDeltaTime sets the integration timestep.
func (u *Universe) SetDeltaTime(dt float64) error {
	w := u.world
	w.DeltaTime = dt
	if err := w.Validate(); err != nil {
		return err
	}
	u.world = w
	return nil
}

// SetKernel selects the force profile.
func (u *Universe) SetKernel(k dynamo.Kernel) { u.world.Kernel = k }

// Reseed restarts the generator behind Randomize.
func (u *Universe) Reseed(seed uint64) { u.rng = rng.New(seed) }
