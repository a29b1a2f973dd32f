package gui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/san-kum/particlelife/internal/sim"
)

// viewport maps world coordinates onto the window, preserving aspect.
type viewport struct {
	scale, offX, offY float32
}

func fit(worldW, worldH float64, screenW, screenH int) viewport {
	sx := float32(screenW) / float32(worldW)
	sy := float32(screenH) / float32(worldH)
	s := min(sx, sy)
	return viewport{
		scale: s,
		offX:  (float32(screenW) - float32(worldW)*s) / 2,
		offY:  (float32(screenH) - float32(worldH)*s) / 2,
	}
}

func (v viewport) point(x, y float64) rl.Vector2 {
	return rl.NewVector2(v.offX+float32(x)*v.scale, v.offY+float32(y)*v.scale)
}

func (a *App) drawFrame(f sim.Frame) {
	v := fit(f.World.Width, f.World.Height, rl.GetScreenWidth(), rl.GetScreenHeight())
	radius := max(float32(f.World.ParticleRadius)*v.scale, 1)
	sides := int32(f.World.MeshDetail)

	if !f.World.Wrap {
		rl.DrawRectangleLines(int32(v.offX), int32(v.offY),
			int32(float32(f.World.Width)*v.scale), int32(float32(f.World.Height)*v.scale), ColBorder)
	}
	for i := range f.Particles {
		p := &f.Particles[i]
		col := ColAccent
		if p.Type < len(a.palette) {
			col = a.palette[p.Type]
		}
		rl.DrawPoly(v.point(p.Pos.X, p.Pos.Y), sides, radius, 0, col)
	}
}
