package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/particlelife/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

var world = dynamo.DefaultWorld(100, 100)

func particles(vels ...r2.Vec) []dynamo.Particle {
	ps := make([]dynamo.Particle, len(vels))
	for i, v := range vels {
		ps[i] = dynamo.Particle{Pos: r2.Vec{X: 50, Y: 50}, Vel: v}
	}
	return ps
}

func TestKineticEnergy(t *testing.T) {
	m := NewKineticEnergy()

	m.Observe(particles(r2.Vec{X: 3, Y: 4}), world, 0)
	m.Observe(particles(r2.Vec{X: 1}, r2.Vec{Y: 1}), world, 1)

	if got := m.Last(); got != 1 {
		t.Errorf("Last() = %v, want 1", got)
	}
	if got := m.Peak(); got != 12.5 {
		t.Errorf("Peak() = %v, want 12.5", got)
	}
	if got := m.Value(); math.Abs(got-6.75) > 1e-12 {
		t.Errorf("Value() = %v, want 6.75", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestSpeed(t *testing.T) {
	m := NewSpeed()
	m.Observe(particles(r2.Vec{X: 3, Y: 4}, r2.Vec{X: 1}), world, 0)

	if got := m.Value(); got != 3 {
		t.Errorf("Value() = %v, want 3", got)
	}
	if got := m.StdDev(); math.Abs(got-math.Sqrt(8)) > 1e-12 {
		t.Errorf("StdDev() = %v, want sqrt(8)", got)
	}

	m.Observe(nil, world, 1)
	if m.Value() != 0 {
		t.Errorf("Value() with no particles = %v, want 0", m.Value())
	}
}

func TestContainment(t *testing.T) {
	m := NewContainment()
	if m.Value() != 1 {
		t.Errorf("empty Value() = %v, want 1", m.Value())
	}

	inside := particles(r2.Vec{})
	outside := []dynamo.Particle{{Pos: r2.Vec{X: -1, Y: 5}}}
	m.Observe(inside, world, 0)
	m.Observe(outside, world, 1)
	m.Observe(inside, world, 2)
	m.Observe(inside, world, 3)

	if got := m.Value(); got != 0.75 {
		t.Errorf("Value() = %v, want 0.75", got)
	}
}
