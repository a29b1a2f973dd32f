// Package gui shows a running simulation in a raylib window. Particles are
// drawn as meshDetail-sided polygons in their type's color while a
// background goroutine keeps stepping the simulator.
package gui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/san-kum/particlelife/internal/config"
	"github.com/san-kum/particlelife/internal/metrics"
	"github.com/san-kum/particlelife/internal/sim"
	"golang.org/x/sync/errgroup"
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColBorder  = rl.NewColor(30, 30, 30, 255)
)

const (
	windowWidth  = 1280
	windowHeight = 720
	maxTelemetry = 300
)

type App struct {
	Sim       *sim.Simulator
	Running   atomic.Bool
	ShowHUD   bool
	Telemetry []float64
	Logger    *slog.Logger

	palette []rl.Color
	title   time.Time
}

func initWindow() {
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(windowWidth, windowHeight, "particle life")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

// NewApp prepares an App for s. The window must already be open.
func NewApp(s *sim.Simulator, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		Sim:       s,
		ShowHUD:   true,
		Telemetry: make([]float64, 0, maxTelemetry),
		Logger:    logger,
	}
	a.Running.Store(true)
	s.View(func(f sim.Frame) {
		a.palette = make([]rl.Color, len(f.Types))
		for i, t := range f.Types {
			r, g, b, al := t.Color.RGBA8()
			a.palette[i] = rl.NewColor(r, g, b, al)
		}
	})
	return a
}

// Run opens a window on s and blocks until it is closed, ctx is done or a
// step fails. Must be called from the main goroutine.
func Run(ctx context.Context, s *sim.Simulator, logger *slog.Logger) error {
	initWindow()
	defer rl.CloseWindow()

	a := NewApp(s, logger)
	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.stepLoop(ctx) })

	a.RunLoop(ctx)
	cancel()
	return g.Wait()
}

// stepLoop advances the simulator as fast as it will go while running.
func (a *App) stepLoop(ctx context.Context) error {
	for ctx.Err() == nil {
		if !a.Running.Load() {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if err := a.Sim.Step(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
	return nil
}

func (a *App) RunLoop(ctx context.Context) {
	for !rl.WindowShouldClose() && ctx.Err() == nil {
		if !a.Update() {
			return
		}
		a.Draw()
	}
}

// Update handles input. It returns false when the user asks to quit.
func (a *App) Update() bool {
	if rl.IsKeyPressed(rl.KeyEscape) {
		return false
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		a.Running.Store(!a.Running.Load())
	}
	if rl.IsKeyPressed(rl.KeyW) {
		a.Logger.Info("wrap toggled", "wrap", a.Sim.ToggleWrap())
	}
	if rl.IsKeyPressed(rl.KeyH) {
		a.ShowHUD = !a.ShowHUD
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		if err := a.Sim.WriteParams(os.Stdout); err != nil {
			a.Logger.Error("dump params", "error", err)
		}
	}

	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		if rl.IsKeyPressed(int32(p.Key)) {
			if err := a.Sim.ApplyPreset(p.Name); err != nil {
				a.Logger.Error("apply preset", "preset", p.Name, "error", err)
			}
			a.Telemetry = a.Telemetry[:0]
		}
	}

	factor := 1.0
	if wheel := rl.GetMouseWheelMove(); wheel > 0 || rl.IsKeyPressed(rl.KeyEqual) {
		factor = sim.TimeScaleFactor
	} else if wheel < 0 || rl.IsKeyPressed(rl.KeyMinus) {
		factor = 1 / sim.TimeScaleFactor
	}
	if factor != 1 {
		if err := a.Sim.ScaleTime(factor); err != nil {
			a.Logger.Warn("scale time", "error", err)
		}
	}
	return true
}

func (a *App) Draw() {
	f := a.Sim.Snapshot()
	defer a.Sim.Release(f)

	a.Telemetry = append(a.Telemetry, metrics.Kinetic(f.Particles))
	if len(a.Telemetry) > maxTelemetry {
		a.Telemetry = a.Telemetry[1:]
	}

	rl.BeginDrawing()
	rl.ClearBackground(ColBg)
	a.drawFrame(f)
	if a.ShowHUD {
		a.DrawHUD(f)
	}
	rl.EndDrawing()

	if time.Since(a.title) > time.Second {
		rl.SetWindowTitle(fmt.Sprintf("particle life  t=%.0f  tsps=%.1f", f.Time, a.Sim.Perf().StepsPerSec))
		a.title = time.Now()
	}
}

func (a *App) DrawHUD(f sim.Frame) {
	rl.DrawText("particle life", 30, 30, 24, ColSelect)

	status, col := "RUNNING", ColSelect
	if !a.Running.Load() {
		status, col = "PAUSED", ColTextDim
	}
	w := int32(rl.GetScreenWidth())
	h := int32(rl.GetScreenHeight())
	rl.DrawText(status, w-130, 30, 16, col)

	perf := a.Sim.Perf()
	lines := []string{
		fmt.Sprintf("t     %.1f", f.Time),
		fmt.Sprintf("tsps  %.1f", perf.StepsPerSec),
		fmt.Sprintf("dt    %.4f", f.World.DeltaTime),
		fmt.Sprintf("wrap  %v", f.World.Wrap),
		fmt.Sprintf("n     %d", len(f.Particles)),
	}
	for i, l := range lines {
		rl.DrawText(l, 30, 70+int32(i)*18, 14, ColText)
	}

	a.drawPanel(f)
	a.DrawTelemetry(30, h-100, 400, 60)
	rl.DrawText("[SPACE] PAUSE  [W] WRAP  [TAB] PARAMS  [SCROLL] TIME  [H] HUD  [ESC] QUIT", w-620, h-30, 14, ColTextDim)
	rl.DrawText(fmt.Sprintf("%d FPS", rl.GetFPS()), 30, h-30, 14, ColTextDim)
}

// DrawTelemetry plots the kinetic energy history in the given rectangle.
func (a *App) DrawTelemetry(x, y, width, height int32) {
	if len(a.Telemetry) < 2 {
		return
	}

	minVal, maxVal := a.Telemetry[0], a.Telemetry[0]
	for _, v := range a.Telemetry {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	points := make([]rl.Vector2, len(a.Telemetry))
	for i, val := range a.Telemetry {
		px := float32(x) + float32(i)/float32(len(a.Telemetry))*float32(width)
		norm := (val - minVal) / (maxVal - minVal)
		py := float32(y+height) - float32(norm)*float32(height)
		points[i] = rl.NewVector2(px, py)
	}

	rl.DrawLineStrip(points, ColAccent)
	rl.DrawText(fmt.Sprintf("E: %.2e", a.Telemetry[len(a.Telemetry)-1]), x+width+10, y+height-10, 14, ColText)
}
