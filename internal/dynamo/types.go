package dynamo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Particle is a point mass of unit weight.
type Particle struct {
	Pos  r2.Vec
	Vel  r2.Vec
	Type int
}

// Color is a linear RGB triple with components in [0, 1].
type Color struct {
	R, G, B float64
}

// RGBA8 converts the color to 8-bit channels with full opacity.
func (c Color) RGBA8() (r, g, b, a uint8) {
	return channel(c.R), channel(c.G), channel(c.B), 255
}

func channel(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}

// HSV converts a hue/saturation/value triple in [0, 1] to RGB.
func HSV(h, s, v float64) Color {
	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)
	switch i % 6 {
	case 0:
		return Color{v, t, p}
	case 1:
		return Color{q, v, p}
	case 2:
		return Color{p, v, t}
	case 3:
		return Color{p, q, v}
	case 4:
		return Color{t, p, v}
	default:
		return Color{v, p, q}
	}
}

// ParticleType describes how particles of one type are drawn.
type ParticleType struct {
	Color Color
}

// Interaction governs how a particle of one type reacts to another.
//
// Attraction is stored pre-normalized as 2*a/(MaxRadius-MinRadius) so the
// force kernel needs no division. Use Raw to recover a.
type Interaction struct {
	Attraction float64
	MinRadius  float64
	MaxRadius  float64
}

// Normalize scales a raw attraction for the band [minRadius, maxRadius).
// A zero-width band can never be entered, so its attraction is zero.
func Normalize(raw, minRadius, maxRadius float64) float64 {
	band := maxRadius - minRadius
	if band <= 0 {
		return 0
	}
	return 2 * raw / band
}

// Raw returns the attraction before normalization.
func (in Interaction) Raw() float64 {
	return in.Attraction / 2 * (in.MaxRadius - in.MinRadius)
}

// Kernel selects the force profile inside an interaction band.
type Kernel int

const (
	// KernelTent peaks linearly at the band midpoint with the raw attraction.
	KernelTent Kernel = iota
	// KernelSmooth uses the parabola (d-min)*(max-d) scaled by the stored attraction.
	KernelSmooth
)

func (k Kernel) String() string {
	switch k {
	case KernelSmooth:
		return "smooth"
	default:
		return "tent"
	}
}

// ParseKernel maps a configuration name onto a Kernel.
func ParseKernel(name string) (Kernel, error) {
	switch name {
	case "", "tent":
		return KernelTent, nil
	case "smooth":
		return KernelSmooth, nil
	}
	return KernelTent, Invalidf("unknown force kernel %q", name)
}

// Force returns the signed force magnitude at distance d, or zero outside
// [MinRadius, MaxRadius).
func (in Interaction) Force(k Kernel, d float64) float64 {
	if d < in.MinRadius || d >= in.MaxRadius {
		return 0
	}
	inner := d - in.MinRadius
	outer := in.MaxRadius - d
	if k == KernelSmooth {
		return in.Attraction * inner * outer
	}
	return in.Attraction * math.Min(inner, outer)
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// World holds the settings every pipeline stage reads.
type World struct {
	Width          float64
	Height         float64
	Wrap           bool
	Friction       float64
	DeltaTime      float64
	ParticleRadius float64
	MeshDetail     int
	Kernel         Kernel
}

// DefaultWorld returns the settings used when a scenario does not override them.
func DefaultWorld(width, height float64) World {
	return World{
		Width:          width,
		Height:         height,
		Wrap:           true,
		Friction:       0.05,
		DeltaTime:      1.0,
		ParticleRadius: 5.0,
		MeshDetail:     8,
		Kernel:         KernelTent,
	}
}

// Validate reports the first out-of-range field.
func (w World) Validate() error {
	switch {
	case !(w.Width > 0) || math.IsInf(w.Width, 0):
		return Invalidf("world width must be positive, got %v", w.Width)
	case !(w.Height > 0) || math.IsInf(w.Height, 0):
		return Invalidf("world height must be positive, got %v", w.Height)
	case !(w.Friction >= 0 && w.Friction <= 1):
		return Invalidf("friction must be in [0, 1], got %v", w.Friction)
	case !(w.DeltaTime >= 0) || math.IsInf(w.DeltaTime, 0):
		return Invalidf("delta time must be non-negative, got %v", w.DeltaTime)
	case !(w.ParticleRadius >= 0) || math.IsInf(w.ParticleRadius, 0):
		return Invalidf("particle radius must be non-negative, got %v", w.ParticleRadius)
	case w.MeshDetail < 3:
		return Invalidf("mesh detail must be at least 3, got %d", w.MeshDetail)
	}
	return nil
}
