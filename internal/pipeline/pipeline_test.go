package pipeline

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"testing"

	"github.com/san-kum/particlelife/internal/compute"
	"github.com/san-kum/particlelife/internal/dynamo"
	"github.com/san-kum/particlelife/internal/universe"
	"gonum.org/v1/gonum/spatial/r2"
)

var testParams = universe.Params{
	AttractionMean:   0.02,
	AttractionStddev: 0.05,
	MinRadius0:       0,
	MinRadius1:       20,
	MaxRadius0:       20,
	MaxRadius1:       50,
}

func newUniverse(t testing.TB, n int, w, h float64, mutate func(*dynamo.World)) *universe.Universe {
	t.Helper()
	world := dynamo.DefaultWorld(w, h)
	if mutate != nil {
		mutate(&world)
	}
	u, err := universe.New(4, n, w, h, universe.WithSeed(5), universe.WithWorld(world))
	if err != nil {
		t.Fatalf("universe.New: %v", err)
	}
	if err := u.Randomize(testParams); err != nil {
		t.Fatalf("Randomize: %v", err)
	}
	return u
}

func backends() []compute.Backend {
	return []compute.Backend{compute.NewSerialBackend(), compute.NewCPUBackend(4, 16)}
}

func less(a, b dynamo.Particle) bool {
	if a.Pos.X != b.Pos.X {
		return a.Pos.X < b.Pos.X
	}
	if a.Pos.Y != b.Pos.Y {
		return a.Pos.Y < b.Pos.Y
	}
	return a.Type < b.Type
}

func TestSortIsPermutationInTileOrder(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.Name(), func(t *testing.T) {
			u := newUniverse(t, 600, 400, 300, func(w *dynamo.World) { w.DeltaTime = 0 })
			before := append([]dynamo.Particle(nil), u.Particles()...)

			p := New(u, b)
			if err := p.Step(context.Background()); err != nil {
				t.Fatal(err)
			}
			after := p.Front()

			if len(after) != len(before) {
				t.Fatalf("got %d particles, want %d", len(after), len(before))
			}
			for i := 1; i < len(after); i++ {
				g := p.Geometry()
				if g.TileOf(after[i-1].Pos) > g.TileOf(after[i].Pos) {
					t.Fatalf("front not in tile order at %d", i)
				}
			}

			strip := func(ps []dynamo.Particle) []dynamo.Particle {
				out := make([]dynamo.Particle, len(ps))
				for i, q := range ps {
					out[i] = dynamo.Particle{Pos: q.Pos, Type: q.Type}
				}
				sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
				return out
			}
			a, c := strip(before), strip(after)
			for i := range a {
				if a[i] != c[i] {
					t.Fatalf("particle multiset differs at %d: %+v vs %+v", i, a[i], c[i])
				}
			}
		})
	}
}

func bruteForce(u *universe.Universe, ps []dynamo.Particle) []r2.Vec {
	w := u.World()
	acc := make([]r2.Vec, len(ps))
	for i, pi := range ps {
		for j, q := range ps {
			if i == j {
				continue
			}
			in := u.Interaction(pi.Type, q.Type)
			delta := r2.Sub(q.Pos, pi.Pos)
			if w.Wrap {
				delta = minimumImage(delta, w.Width, w.Height)
			}
			d := r2.Norm(delta)
			if d == 0 || d < in.MinRadius || d >= in.MaxRadius {
				continue
			}
			acc[i] = r2.Add(acc[i], r2.Scale(in.Force(w.Kernel, d)/d, delta))
		}
	}
	return acc
}

func TestForcesMatchBruteForce(t *testing.T) {
	tests := []struct {
		name string
		w, h float64
		wrap bool
	}{
		{"wrap exact tiles", 400, 300, true},
		{"wrap partial tiles", 430, 317, true},
		{"bounded", 430, 317, false},
		{"wrap narrow world", 90, 60, true},
	}

	for _, tt := range tests {
		for _, b := range backends() {
			t.Run(tt.name+"/"+b.Name(), func(t *testing.T) {
				u := newUniverse(t, 500, tt.w, tt.h, func(w *dynamo.World) {
					w.DeltaTime = 0
					w.Wrap = tt.wrap
				})
				p := New(u, b)
				if err := p.Step(context.Background()); err != nil {
					t.Fatal(err)
				}

				want := bruteForce(u, p.Front())
				got := p.Accelerations()
				for i := range want {
					diff := r2.Norm(r2.Sub(got[i], want[i]))
					if diff > 1e-9*(1+r2.Norm(want[i])) {
						t.Fatalf("particle %d accel = %v, want %v", i, got[i], want[i])
					}
				}
			})
		}
	}
}

func TestForcesIndependentOfInputOrder(t *testing.T) {
	u := newUniverse(t, 300, 300, 300, func(w *dynamo.World) { w.DeltaTime = 0 })
	p := New(u, compute.NewSerialBackend())
	if err := p.Step(context.Background()); err != nil {
		t.Fatal(err)
	}
	ref := map[dynamo.Particle]r2.Vec{}
	for i, q := range p.Front() {
		ref[dynamo.Particle{Pos: q.Pos, Type: q.Type}] = p.Accelerations()[i]
	}

	ps := u.Particles()
	for i := range ps {
		j := (i*7919 + 13) % len(ps)
		ps[i], ps[j] = ps[j], ps[i]
	}
	p.Resync()
	if err := p.Step(context.Background()); err != nil {
		t.Fatal(err)
	}
	for i, q := range p.Front() {
		want := ref[dynamo.Particle{Pos: q.Pos, Type: q.Type}]
		if got := p.Accelerations()[i]; r2.Norm(r2.Sub(got, want)) > 1e-9*(1+r2.Norm(want)) {
			t.Fatalf("particle %d accel = %v after shuffle, want %v", i, got, want)
		}
	}
}

func TestWrapKeepsParticlesInWorld(t *testing.T) {
	u := newUniverse(t, 400, 200, 150, func(w *dynamo.World) { w.Friction = 0 })
	p := New(u, compute.NewCPUBackend(4, 16))
	for step := 0; step < 50; step++ {
		if err := p.Step(context.Background()); err != nil {
			t.Fatal(err)
		}
		for i, q := range p.Front() {
			if q.Pos.X < 0 || q.Pos.X >= 200 || q.Pos.Y < 0 || q.Pos.Y >= 150 {
				t.Fatalf("step %d: particle %d at %v outside [0,200)x[0,150)", step, i, q.Pos)
			}
		}
	}
}

func TestBoundedKeepsParticlesInWorld(t *testing.T) {
	u := newUniverse(t, 400, 200, 150, func(w *dynamo.World) {
		w.Friction = 0
		w.Wrap = false
	})
	p := New(u, compute.NewSerialBackend())
	for step := 0; step < 50; step++ {
		if err := p.Step(context.Background()); err != nil {
			t.Fatal(err)
		}
		for i, q := range p.Front() {
			if q.Pos.X < 0 || q.Pos.X > 200 || q.Pos.Y < 0 || q.Pos.Y > 150 {
				t.Fatalf("step %d: particle %d at %v outside [0,200]x[0,150]", step, i, q.Pos)
			}
		}
	}
}

func TestWrapCoordinate(t *testing.T) {
	tests := []struct {
		x, size, want float64
	}{
		{5, 10, 5},
		{10, 10, 0},
		{-1, 10, 9},
		{23, 10, 3},
		{-1e-18, 10, 0},
	}
	for _, tt := range tests {
		if got := wrap(tt.x, tt.size); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("wrap(%v, %v) = %v, want %v", tt.x, tt.size, got, tt.want)
		}
	}
}

type recorder struct {
	compute.SerialBackend
	p      *Pipeline
	calls  []string
	phases []Phase
}

func (r *recorder) Dispatch(stage compute.Stage, n int, k compute.Kernel) {
	r.calls = append(r.calls, stage.String())
	if r.p != nil {
		r.phases = append(r.phases, r.p.Phase())
	}
	r.SerialBackend.Dispatch(stage, n, k)
}

func (r *recorder) Barrier() error {
	r.calls = append(r.calls, "barrier")
	return r.SerialBackend.Barrier()
}

func TestStageOrder(t *testing.T) {
	u := newUniverse(t, 50, 100, 100, nil)
	rec := &recorder{}
	p := New(u, rec)
	rec.p = p

	if err := p.Step(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := []string{"setup-tiles", "barrier", "sort", "barrier", "forces", "barrier", "integrate", "barrier"}
	if len(rec.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", rec.calls, want)
	}
	for i := range want {
		if rec.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", rec.calls, want)
		}
	}

	wantPhases := []Phase{PhaseSortingIntoRead, PhaseSortingIntoRead, PhaseComputingForces, PhaseIntegrating}
	for i, ph := range wantPhases {
		if rec.phases[i] != ph {
			t.Errorf("phase during dispatch %d = %v, want %v", i, rec.phases[i], ph)
		}
	}
	if p.Phase() != PhaseSwapped {
		t.Errorf("Phase() after step = %v, want swapped", p.Phase())
	}
	if p.Steps() != 1 {
		t.Errorf("Steps() = %d, want 1", p.Steps())
	}
}

type failing struct {
	compute.SerialBackend
	stage compute.Stage
}

var errInjected = errors.New("injected")

func (f *failing) Dispatch(stage compute.Stage, n int, k compute.Kernel) {
	if stage == f.stage {
		k = func(int, int) error { return errInjected }
	}
	f.SerialBackend.Dispatch(stage, n, k)
}

func TestStageFailureIsSticky(t *testing.T) {
	u := newUniverse(t, 100, 100, 100, nil)
	before := append([]dynamo.Particle(nil), u.Particles()...)
	b := &failing{stage: compute.StageForces}
	p := New(u, b)

	err := p.Step(context.Background())
	var stepErr *dynamo.StepError
	if !errors.As(err, &stepErr) || stepErr.Stage != "forces" {
		t.Fatalf("Step() error = %v, want StepError in forces", err)
	}
	if !errors.Is(err, dynamo.ErrDispatch) || !errors.Is(err, errInjected) {
		t.Errorf("Step() error = %v, want ErrDispatch wrapping the kernel error", err)
	}
	for i := range before {
		if p.Front()[i] != before[i] {
			t.Fatalf("published particle %d changed by failed step", i)
		}
	}
	if err := p.Step(context.Background()); !errors.Is(err, errInjected) {
		t.Errorf("second Step() = %v, want the same failure", err)
	}

	b.stage = -1
	p.Resync()
	if err := p.Step(context.Background()); err != nil {
		t.Errorf("Step() after Resync = %v", err)
	}
}

type chunkCounter struct {
	*compute.CPUBackend
	mu     sync.Mutex
	chunks map[compute.Stage]int
}

func (c *chunkCounter) Dispatch(stage compute.Stage, n int, k compute.Kernel) {
	c.CPUBackend.Dispatch(stage, n, func(start, end int) error {
		c.mu.Lock()
		c.chunks[stage]++
		c.mu.Unlock()
		return k(start, end)
	})
}

func TestForcesFanOutOnDefaultScene(t *testing.T) {
	u, err := universe.New(6, 4000, 1280, 720, universe.WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}
	balanced := universe.Params{
		AttractionMean:   -0.02,
		AttractionStddev: 0.06,
		MinRadius0:       0,
		MinRadius1:       20,
		MaxRadius0:       20,
		MaxRadius1:       70,
	}
	if err := u.Randomize(balanced); err != nil {
		t.Fatal(err)
	}

	const workers = 8
	b := &chunkCounter{CPUBackend: compute.NewCPUBackend(workers, 0), chunks: map[compute.Stage]int{}}
	p := New(u, b)
	if err := p.Step(context.Background()); err != nil {
		t.Fatal(err)
	}

	if tiles := p.geom.NumTiles(); tiles < workers {
		t.Fatalf("NumTiles() = %d, want at least %d", tiles, workers)
	}
	if got := b.chunks[compute.StageForces]; got != workers {
		t.Errorf("forces ran in %d chunks, want %d", got, workers)
	}
	if got := b.chunks[compute.StageIntegrate]; got != workers {
		t.Errorf("integrate ran in %d chunks, want %d", got, workers)
	}
}

func TestCancelledStepCanBeRetried(t *testing.T) {
	u := newUniverse(t, 100, 100, 100, nil)
	p := New(u, compute.NewSerialBackend())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Step(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Step() = %v, want context.Canceled", err)
	}
	if err := p.Step(context.Background()); err != nil {
		t.Fatalf("Step() after cancel = %v", err)
	}
}

func TestEmptyUniverse(t *testing.T) {
	u := newUniverse(t, 0, 100, 100, nil)
	p := New(u, compute.NewCPUBackend(2, 1))
	for i := 0; i < 3; i++ {
		if err := p.Step(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
}

func BenchmarkStep(b *testing.B) {
	for _, backend := range backends() {
		b.Run(backend.Name(), func(b *testing.B) {
			u := newUniverse(b, 10000, 1280, 720, nil)
			p := New(u, backend)
			ctx := context.Background()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := p.Step(ctx); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
