package sim_test

import (
	"context"
	"io"
	"log/slog"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/particlelife/internal/compute"
	"github.com/san-kum/particlelife/internal/config"
	"github.com/san-kum/particlelife/internal/dynamo"
	"github.com/san-kum/particlelife/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func build(cfg *config.Config, backend compute.Backend) *sim.Simulator {
	s, err := sim.New(cfg, sim.WithBackend(backend), sim.WithLogger(quiet))
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(s.Close)
	return s
}

// pair returns the two particles ordered left to right.
func pair(s *sim.Simulator) (left, right dynamo.Particle) {
	s.View(func(f sim.Frame) {
		Expect(f.Particles).To(HaveLen(2))
		left, right = f.Particles[0], f.Particles[1]
	})
	if left.Pos.X > right.Pos.X {
		left, right = right, left
	}
	return left, right
}

var _ = Describe("Simulator", func() {
	ctx := context.Background()

	Describe("two self-repelling particles", func() {
		var s *sim.Simulator

		setup := func(kernel string) {
			cfg := config.DefaultConfig()
			cfg.Universe = config.UniverseConfig{Types: 1, Particles: 2, Width: 100, Height: 100}
			cfg.World.Wrap = false
			cfg.World.Friction = 0
			cfg.Kernel = kernel
			s = build(cfg, compute.NewSerialBackend())

			Expect(s.SetInteraction(0, 0, -1, 2, 10)).To(Succeed())
			Expect(s.SetParticles([]dynamo.Particle{
				{Pos: r2.Vec{X: 45, Y: 50}},
				{Pos: r2.Vec{X: 50, Y: 50}},
			})).To(Succeed())
		}

		for _, kernel := range []string{"tent", "smooth"} {
			It("push apart until out of range, then drift at constant velocity using the "+kernel+" kernel", func() {
				setup(kernel)

				l, r := pair(s)
				dist := r.Pos.X - l.Pos.X
				Expect(dist).To(Equal(5.0))

				for dist < 10 {
					Expect(s.Step(ctx)).To(Succeed())
					l, r = pair(s)
					next := r.Pos.X - l.Pos.X
					Expect(next).To(BeNumerically(">", dist))
					Expect(l.Pos.Y).To(Equal(50.0))
					dist = next
					Expect(s.Steps()).To(BeNumerically("<", 10), "particles never separated")
				}

				rel := r.Vel.X - l.Vel.X
				Expect(rel).To(BeNumerically(">", 0))
				for i := 0; i < 5; i++ {
					Expect(s.Step(ctx)).To(Succeed())
					l, r = pair(s)
					Expect(r.Vel.X - l.Vel.X).To(BeNumerically("~", rel, 1e-12))
				}
			})
		}

		It("feels no force exactly at the outer radius", func() {
			setup("tent")
			Expect(s.SetParticles([]dynamo.Particle{
				{Pos: r2.Vec{X: 40, Y: 50}},
				{Pos: r2.Vec{X: 50, Y: 50}},
			})).To(Succeed())

			Expect(s.Step(ctx)).To(Succeed())
			l, r := pair(s)
			Expect(l.Vel).To(Equal(r2.Vec{}))
			Expect(r.Vel).To(Equal(r2.Vec{}))
		})
	})

	Describe("a randomized scenario", func() {
		var cfg *config.Config

		BeforeEach(func() {
			cfg = config.DefaultConfig()
			cfg.Universe = config.UniverseConfig{Types: 5, Particles: 800, Width: 400, Height: 250}
		})

		It("is reproducible from its seed", func() {
			a := build(cfg, compute.NewSerialBackend())
			b := build(cfg, compute.NewSerialBackend())
			_, err := a.Run(ctx, 20)
			Expect(err).NotTo(HaveOccurred())
			_, err = b.Run(ctx, 20)
			Expect(err).NotTo(HaveOccurred())

			sa, sb := a.Snapshot(), b.Snapshot()
			Expect(sa.Particles).To(Equal(sb.Particles))
		})

		It("keeps every particle inside a wrapping world", func() {
			s := build(cfg, compute.NewCPUBackend(4, 32))
			err := s.RunWithCallback(ctx, 40, func(int) bool {
				s.View(func(f sim.Frame) {
					for _, p := range f.Particles {
						Expect(p.Pos.X).To(And(BeNumerically(">=", 0), BeNumerically("<", f.World.Width)))
						Expect(p.Pos.Y).To(And(BeNumerically(">=", 0), BeNumerically("<", f.World.Height)))
					}
				})
				return true
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps every particle inside a bounded world", func() {
			cfg.World.Wrap = false
			s := build(cfg, compute.NewCPUBackend(4, 32))
			_, err := s.Run(ctx, 40)
			Expect(err).NotTo(HaveOccurred())
			s.View(func(f sim.Frame) {
				for _, p := range f.Particles {
					Expect(p.Pos.X).To(And(BeNumerically(">=", 0), BeNumerically("<=", f.World.Width)))
					Expect(p.Pos.Y).To(And(BeNumerically(">=", 0), BeNumerically("<=", f.World.Height)))
				}
			})
		})

		It("agrees on kinetic energy across backends up to rounding", func() {
			serial := build(cfg, compute.NewSerialBackend())
			parallel := build(cfg, compute.NewCPUBackend(4, 32))
			Expect(serial.Step(ctx)).To(Succeed())
			Expect(parallel.Step(ctx)).To(Succeed())

			var es, ep float64
			serial.View(func(f sim.Frame) {
				for _, p := range f.Particles {
					es += p.Vel.X*p.Vel.X + p.Vel.Y*p.Vel.Y
				}
			})
			parallel.View(func(f sim.Frame) {
				for _, p := range f.Particles {
					ep += p.Vel.X*p.Vel.X + p.Vel.Y*p.Vel.Y
				}
			})
			Expect(math.Abs(es-ep)).To(BeNumerically("<", 1e-6*(1+es)))
		})

		DescribeTable("presets keep interaction radii symmetric",
			func(name string) {
				s := build(cfg, compute.NewSerialBackend())
				Expect(s.ApplyPreset(name)).To(Succeed())
				for a := 0; a < cfg.Universe.Types; a++ {
					for b := 0; b < cfg.Universe.Types; b++ {
						ab, ba := s.Interaction(a, b), s.Interaction(b, a)
						Expect(ab.MinRadius).To(Equal(ba.MinRadius))
						Expect(ab.MaxRadius).To(Equal(ba.MaxRadius))
					}
					Expect(s.Interaction(a, a).Attraction).To(BeNumerically("<=", 0))
				}
			},
			Entry("balanced", "balanced"),
			Entry("chaos", "chaos"),
			Entry("diversity", "diversity"),
			Entry("frictionless", "frictionless"),
			Entry("gliders", "gliders"),
			Entry("homogeneity", "homogeneity"),
			Entry("large clusters", "large_clusters"),
			Entry("medium clusters", "medium_clusters"),
			Entry("quiescence", "quiescence"),
			Entry("small clusters", "small_clusters"),
		)
	})
})
