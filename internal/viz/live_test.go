package viz

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/particlelife/internal/compute"
	"github.com/san-kum/particlelife/internal/config"
	"github.com/san-kum/particlelife/internal/sim"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Universe.Types = 3
	cfg.Universe.Particles = 200
	cfg.Universe.Width = 200
	cfg.Universe.Height = 120
	s, err := sim.New(cfg,
		sim.WithBackend(compute.NewSerialBackend()),
		sim.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("sim.New: %v", err)
	}
	t.Cleanup(s.Close)
	return NewModel(context.Background(), s)
}

func press(m Model, key string) Model {
	var msg tea.KeyMsg
	switch key {
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func tickModel(m Model) Model {
	next, _ := m.Update(TickMsg(time.Now()))
	return next.(Model)
}

func TestModelTickSteps(t *testing.T) {
	m := newTestModel(t)
	for i := 0; i < 3; i++ {
		m = tickModel(m)
	}
	if got := m.sim.Steps(); got != 3 {
		t.Errorf("Steps = %d, want 3", got)
	}
	if len(m.energyHistory) != 3 {
		t.Errorf("energy history = %d, want 3", len(m.energyHistory))
	}

	m = press(m, " ")
	m = tickModel(m)
	if got := m.sim.Steps(); got != 3 {
		t.Errorf("paused model stepped: Steps = %d", got)
	}
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("View should report PAUSED")
	}
}

func TestModelKeys(t *testing.T) {
	m := newTestModel(t)

	wrap := m.sim.World().Wrap
	m = press(m, "w")
	if m.sim.World().Wrap == wrap {
		t.Error("w did not toggle wrapping")
	}

	dt := m.sim.World().DeltaTime
	m = press(m, "+")
	if got, want := m.sim.World().DeltaTime, dt*sim.TimeScaleFactor; math.Abs(got-want) > 1e-12 {
		t.Errorf("DeltaTime = %v, want %v", got, want)
	}
	m = press(m, "-")
	if got := m.sim.World().DeltaTime; math.Abs(got-dt) > 1e-12 {
		t.Errorf("DeltaTime = %v, want %v", got, dt)
	}

	m = press(m, "C")
	if got := m.sim.World().Friction; got != config.GetPreset("chaos").Friction {
		t.Errorf("Friction = %v, want chaos preset", got)
	}
	if m.message != "preset chaos" {
		t.Errorf("message = %q", m.message)
	}

	m = press(m, "tab")
	if !m.showParams || !strings.HasPrefix(m.params, "types: 3") {
		t.Errorf("tab should dump params, got %q", m.params)
	}
}

func TestModelParamsFailure(t *testing.T) {
	m := newTestModel(t)
	m = press(m, "tab")
	dump := m.params

	m.writeParams = func(io.Writer) error { return errors.New("disk full") }
	m = press(m, "C")
	if m.message != "params: disk full" {
		t.Errorf("message = %q, want the write error", m.message)
	}
	if m.params != dump {
		t.Errorf("params = %q, want previous dump kept", m.params)
	}
	if m.err != nil {
		t.Errorf("err = %v, want the simulation left running", m.err)
	}
}

func TestModelQuit(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestModelResize(t *testing.T) {
	m := newTestModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)
	if m.canvas.Width != 120-statsWidth-6 || m.canvas.Height != 36 {
		t.Errorf("canvas = %dx%d", m.canvas.Width, m.canvas.Height)
	}
}
