package pipeline

import (
	"fmt"
	"math"

	"github.com/san-kum/particlelife/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// setupTiles reserves each tile's slots from the occupancy counted when the
// previous positions were written. It runs as a single work item.
func (p *Pipeline) setupTiles(start, end int) error {
	total := p.tiles.Setup()
	if n := len(p.buf.published()); total != n {
		return fmt.Errorf("%w: tiles reserve %d slots for %d particles", dynamo.ErrDimensionMismatch, total, n)
	}
	return nil
}

// scatter copies published particles into their tile's slots of the
// working buffer.
func (p *Pipeline) scatter(start, end int) error {
	src, dst := p.buf.published(), p.buf.working()
	for i := start; i < end; i++ {
		slot, err := p.tiles.Claim(p.geom.TileOf(src[i].Pos))
		if err != nil {
			return err
		}
		dst[slot] = src[i]
	}
	return nil
}

// forces sums the acceleration on every particle of tiles [start, end)
// from the particles in the surrounding tiles.
func (p *Pipeline) forces(start, end int) error {
	read := p.buf.working()
	n := p.numTypes
	w := p.world

	var nbBuf [16]int
	for tile := start; tile < end; tile++ {
		first, last := p.tiles.Span(tile)
		if first == last {
			continue
		}
		nbs := p.geom.Neighbors(nbBuf[:0], tile, w.Wrap)

		for i := first; i < last; i++ {
			pi := read[i]
			row := p.table[pi.Type*n : (pi.Type+1)*n]

			var acc r2.Vec
			for _, nb := range nbs {
				nbFirst, nbLast := p.tiles.Span(nb)
				for j := nbFirst; j < nbLast; j++ {
					if j == i {
						continue
					}
					q := read[j]
					in := row[q.Type]

					delta := r2.Sub(q.Pos, pi.Pos)
					if w.Wrap {
						delta = minimumImage(delta, w.Width, w.Height)
					}
					d := r2.Norm(delta)
					if d == 0 || d < in.MinRadius || d >= in.MaxRadius {
						continue
					}
					acc = r2.Add(acc, r2.Scale(in.Force(w.Kernel, d)/d, delta))
				}
			}
			p.accel[i] = acc
		}
	}
	return nil
}

// integrate advances particles [start, end) of the working buffer in place
// and counts where they land for the next timestep's tile setup.
func (p *Pipeline) integrate(start, end int) error {
	buf := p.buf.working()
	w := p.world
	damping := 1 - w.Friction

	for i := start; i < end; i++ {
		q := &buf[i]
		q.Vel = r2.Add(r2.Scale(damping, q.Vel), r2.Scale(w.DeltaTime, p.accel[i]))
		q.Pos = r2.Add(q.Pos, r2.Scale(w.DeltaTime, q.Vel))

		if w.Wrap {
			q.Pos.X = wrap(q.Pos.X, w.Width)
			q.Pos.Y = wrap(q.Pos.Y, w.Height)
		} else {
			q.Pos.X, q.Vel.X = contain(q.Pos.X, q.Vel.X, w.Width)
			q.Pos.Y, q.Vel.Y = contain(q.Pos.Y, q.Vel.Y, w.Height)
		}
		p.tiles.AddPending(p.geom.TileOf(q.Pos))
	}
	return nil
}

// minimumImage returns the shortest of the toroidal images of delta.
func minimumImage(delta r2.Vec, width, height float64) r2.Vec {
	if delta.X > width/2 {
		delta.X -= width
	} else if delta.X < -width/2 {
		delta.X += width
	}
	if delta.Y > height/2 {
		delta.Y -= height
	} else if delta.Y < -height/2 {
		delta.Y += height
	}
	return delta
}

// wrap maps x into [0, size).
func wrap(x, size float64) float64 {
	x = math.Mod(x, size)
	if x < 0 {
		x += size
	}
	if x >= size {
		x -= size
	}
	return x
}

// contain clamps x into [0, size], stopping motion into the wall.
func contain(x, v, size float64) (float64, float64) {
	switch {
	case x < 0:
		return 0, 0
	case x > size:
		return size, 0
	}
	return x, v
}
