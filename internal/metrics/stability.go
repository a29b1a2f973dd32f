package metrics

import (
	"github.com/san-kum/particlelife/internal/dynamo"
)

// Containment is the fraction of observed steps in which every particle
// lay inside the world. Anything below 1 means the integrator let a
// particle escape.
type Containment struct {
	name       string
	violations int
	samples    int
}

func NewContainment() *Containment {
	return &Containment{name: "containment"}
}

func (c *Containment) Name() string {
	return c.name
}

func (c *Containment) Observe(ps []dynamo.Particle, w dynamo.World, t float64) {
	c.samples++
	for i := range ps {
		p := ps[i].Pos
		if !(p.X >= 0 && p.X <= w.Width && p.Y >= 0 && p.Y <= w.Height) {
			c.violations++
			break
		}
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.violations = 0
	c.samples = 0
}
