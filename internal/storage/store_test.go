package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/particlelife/internal/dynamo"
	"github.com/san-kum/particlelife/internal/telemetry"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	meta := RunMetadata{
		Preset:    "gliders",
		Seed:      42,
		Types:     6,
		Particles: 100,
		Metrics:   map[string]float64{"kinetic_energy": 1.5},
	}
	samples := []Sample{
		{Step: 1, Time: 1, KineticEnergy: 2, MeanSpeed: 0.5},
		{Step: 2, Time: 2, KineticEnergy: 1.5, MeanSpeed: 0.4, Escaped: 1},
	}
	perf := []telemetry.PerfRow{{Step: 2, AvgStepUS: 120, ForcesUS: 90, StepsPerSec: 8333.3}}

	runID, err := st.Save(meta, samples, perf)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	loaded, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Preset != "gliders" || loaded.Seed != 42 || loaded.Metrics["kinetic_energy"] != 1.5 {
		t.Errorf("loaded metadata = %+v", loaded)
	}

	gotSamples, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}
	if len(gotSamples) != 2 || gotSamples[1] != samples[1] {
		t.Errorf("samples = %+v, want %+v", gotSamples, samples)
	}

	gotPerf, err := st.LoadPerf(runID)
	if err != nil {
		t.Fatalf("load perf failed: %v", err)
	}
	if len(gotPerf) != 1 || gotPerf[0].ForcesUS != 90 {
		t.Errorf("perf = %+v", gotPerf)
	}
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Fatalf("List() on empty store = %v, %v", runs, err)
	}

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := 2; i >= 0; i-- {
		meta := RunMetadata{Preset: "chaos", Timestamp: base.Add(time.Duration(i) * time.Minute)}
		if _, err := st.Save(meta, nil, nil); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Fatalf("List() returned %d runs, want 3", len(runs))
	}
	for i := 1; i < len(runs); i++ {
		if runs[i].Timestamp.Before(runs[i-1].Timestamp) {
			t.Errorf("runs not sorted by time")
		}
	}

	samples, err := st.LoadSamples(runs[0].ID)
	if err != nil || len(samples) != 0 {
		t.Errorf("LoadSamples without csv = %v, %v", samples, err)
	}
}

func TestSampler(t *testing.T) {
	s := NewSampler(2)
	w := dynamo.DefaultWorld(10, 10)
	ps := []dynamo.Particle{
		{Pos: r2.Vec{X: 1, Y: 1}, Vel: r2.Vec{X: 3, Y: 4}},
		{Pos: r2.Vec{X: 11, Y: 1}, Vel: r2.Vec{X: 1}},
	}

	for i := 1; i <= 5; i++ {
		s.OnStep(ps, w, float64(i))
	}

	got := s.Samples()
	if len(got) != 2 {
		t.Fatalf("got %d samples, want 2", len(got))
	}
	if got[0].Step != 2 || got[1].Time != 4 {
		t.Errorf("samples = %+v", got)
	}
	if got[0].KineticEnergy != 13 || got[0].MeanSpeed != 3 || got[0].Escaped != 1 {
		t.Errorf("sample = %+v", got[0])
	}
	if e := s.Energies(); len(e) != 2 || e[1] != 13 {
		t.Errorf("Energies() = %v", e)
	}
}
