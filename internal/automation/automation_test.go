package automation

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/san-kum/particlelife/internal/compute"
	"github.com/san-kum/particlelife/internal/config"
	"github.com/san-kum/particlelife/internal/dynamo"
	"github.com/san-kum/particlelife/internal/universe"
)

const script = `
name: demo
steps: 4
events:
  - at: 2
    wrap: false
    time_scale: 2
  - at: 0
    preset: chaos
  - at: 4
    dump_params: true
`

type fakeSim struct {
	log   []string
	steps int
}

func (f *fakeSim) record(s string) { f.log = append(f.log, s) }

func (f *fakeSim) Step(ctx context.Context) error { f.steps++; f.record("step"); return nil }
func (f *fakeSim) Reseed(seed uint64)             { f.record("reseed") }
func (f *fakeSim) ApplyPreset(name string) error  { f.record("preset " + name); return nil }
func (f *fakeSim) Randomize(p universe.Params) error {
	f.record("randomize")
	return nil
}
func (f *fakeSim) SetWrap(wrap bool) {
	if wrap {
		f.record("wrap on")
	} else {
		f.record("wrap off")
	}
}
func (f *fakeSim) SetFriction(v float64) error   { f.record("friction"); return nil }
func (f *fakeSim) SetDeltaTime(v float64) error  { f.record("dt"); return nil }
func (f *fakeSim) ScaleTime(v float64) error     { f.record("scale"); return nil }
func (f *fakeSim) WriteParams(w io.Writer) error { _, err := io.WriteString(w, "params"); return err }

func TestRunScript(t *testing.T) {
	s, err := ParseScript([]byte(script))
	if err != nil {
		t.Fatal(err)
	}

	target := &fakeSim{}
	var out bytes.Buffer
	applied, err := Run(context.Background(), s, target, &out)
	if err != nil {
		t.Fatal(err)
	}
	if applied != 3 {
		t.Errorf("applied = %d, want 3", applied)
	}

	want := "preset chaos,step,step,wrap off,scale,step,step"
	if got := strings.Join(target.log, ","); got != want {
		t.Errorf("calls = %s\nwant    %s", got, want)
	}
	if out.String() != "params" {
		t.Errorf("dump output = %q", out.String())
	}
}

func TestScriptValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no steps", "steps: 0\n"},
		{"event past end", "steps: 3\nevents:\n  - at: 4\n"},
		{"negative scale", "steps: 3\nevents:\n  - at: 1\n    time_scale: -1\n"},
		{"NaN scale", "steps: 3\nevents:\n  - at: 1\n    time_scale: .nan\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseScript([]byte(tt.yaml)); !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("ParseScript() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestRunSweep(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Universe = config.UniverseConfig{Types: 3, Particles: 120, Width: 200, Height: 200}

	results, err := RunSweep(context.Background(), cfg, ParameterSweep{
		Param:    "friction",
		Min:      0,
		Max:      0.5,
		NumSteps: 3,
		Steps:    5,
	}, compute.NewSerialBackend(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	for i, want := range []float64{0, 0.25, 0.5} {
		if results[i].ParamValue != want {
			t.Errorf("point %d value = %v, want %v", i, results[i].ParamValue, want)
		}
		if results[i].Containment != 1 {
			t.Errorf("point %d containment = %v", i, results[i].Containment)
		}
	}
	if cfg.World.Friction != 0.05 {
		t.Errorf("sweep mutated the base config: friction %v", cfg.World.Friction)
	}

	_, err = RunSweep(context.Background(), cfg, ParameterSweep{Param: "gravity", NumSteps: 2, Steps: 1}, compute.NewSerialBackend(), nil)
	if !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("unknown param error = %v", err)
	}
}
