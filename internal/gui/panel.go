package gui

import (
	"fmt"

	raygui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/san-kum/particlelife/internal/config"
	"github.com/san-kum/particlelife/internal/sim"
)

const (
	panelWidth  = 180
	maxFriction = 0.5
	minDt       = 0.05
	maxDt       = 4
)

// drawPanel shows preset buttons and friction/time-step sliders on the
// right edge of the window.
func (a *App) drawPanel(f sim.Frame) {
	x := float32(rl.GetScreenWidth() - panelWidth - 20)
	y := float32(70)

	rl.DrawText("friction", int32(x), int32(y), 14, ColText)
	y += 18
	fr := raygui.SliderBar(rl.Rectangle{X: x, Y: y, Width: panelWidth - 50, Height: 16},
		"", fmt.Sprintf("%.3f", f.World.Friction),
		float32(f.World.Friction), 0, maxFriction)
	if d := float64(fr) - f.World.Friction; d > 1e-4 || d < -1e-4 {
		if err := a.Sim.SetFriction(float64(fr)); err != nil {
			a.Logger.Warn("set friction", "error", err)
		}
	}
	y += 30

	rl.DrawText("time step", int32(x), int32(y), 14, ColText)
	y += 18
	ts := raygui.SliderBar(rl.Rectangle{X: x, Y: y, Width: panelWidth - 50, Height: 16},
		"", fmt.Sprintf("%.2f", f.World.DeltaTime),
		float32(min(max(f.World.DeltaTime, minDt), maxDt)), minDt, maxDt)
	if d := float64(ts) - f.World.DeltaTime; (d > 1e-3 || d < -1e-3) && f.World.DeltaTime >= minDt && f.World.DeltaTime <= maxDt {
		if err := a.Sim.SetDeltaTime(float64(ts)); err != nil {
			a.Logger.Warn("set time step", "error", err)
		}
	}
	y += 40

	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		if raygui.Button(rl.Rectangle{X: x, Y: y, Width: panelWidth, Height: 24}, fmt.Sprintf("[%c] %s", p.Key, p.Name)) {
			if err := a.Sim.ApplyPreset(p.Name); err != nil {
				a.Logger.Error("apply preset", "preset", p.Name, "error", err)
			}
			a.Telemetry = a.Telemetry[:0]
		}
		y += 28
	}

	label := "Pause"
	if !a.Running.Load() {
		label = "Resume"
	}
	if raygui.Button(rl.Rectangle{X: x, Y: y + 8, Width: panelWidth, Height: 28}, label) {
		a.Running.Store(!a.Running.Load())
	}
}
