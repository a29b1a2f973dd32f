// Package grid partitions the world into a uniform grid of square tiles sized
// to the largest interaction radius, so a particle only ever has to look at
// its own tile and the ring of tiles around it.
package grid

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// MaxTilesPerAxis bounds the grid when interaction radii are tiny compared
// to the world. Tiles only ever need to be at least as wide as the largest
// radius, so growing them is always safe.
const MaxTilesPerAxis = 1024

// Geometry describes the tile grid covering a world.
type Geometry struct {
	TileSize    float64
	InvTileSize float64
	NumTilesX   int
	NumTilesY   int
	Width       float64
	Height      float64
}

// NewGeometry sizes tiles to maxRadius. A non-positive radius means nothing
// interacts, which collapses the grid to a single tile.
func NewGeometry(maxRadius, width, height float64) Geometry {
	span := math.Max(width, height)
	tileSize := maxRadius
	if !(tileSize > 0) {
		tileSize = span
	}
	if floor := span / MaxTilesPerAxis; tileSize < floor {
		tileSize = floor
	}

	g := Geometry{
		TileSize:    tileSize,
		InvTileSize: 1 / tileSize,
		NumTilesX:   int(math.Ceil(width / tileSize)),
		NumTilesY:   int(math.Ceil(height / tileSize)),
		Width:       width,
		Height:      height,
	}
	if g.NumTilesX < 1 {
		g.NumTilesX = 1
	}
	if g.NumTilesY < 1 {
		g.NumTilesY = 1
	}
	return g
}

// NumTiles returns the total tile count.
func (g Geometry) NumTiles() int {
	return g.NumTilesX * g.NumTilesY
}

// TileOf returns the tile containing pos. Positions on or past the world
// edge land in the nearest edge tile.
func (g Geometry) TileOf(pos r2.Vec) int {
	tx := clamp(int(math.Floor(pos.X*g.InvTileSize)), g.NumTilesX)
	ty := clamp(int(math.Floor(pos.Y*g.InvTileSize)), g.NumTilesY)
	return ty*g.NumTilesX + tx
}

// Coords splits a tile index into column and row.
func (g Geometry) Coords(tile int) (tx, ty int) {
	return tile % g.NumTilesX, tile / g.NumTilesX
}

// Neighbors appends to dst the distinct tiles a particle in tile must scan:
// the tile itself and its surrounding ring, wrapping across the world edge
// when wrap is set.
func (g Geometry) Neighbors(dst []int, tile int, wrap bool) []int {
	tx, ty := g.Coords(tile)

	var colBuf, rowBuf [4]int
	cols := axisNeighbors(colBuf[:0], tx, g.NumTilesX, wrap, g.partialX())
	rows := axisNeighbors(rowBuf[:0], ty, g.NumTilesY, wrap, g.partialY())

	for _, row := range rows {
		for _, col := range cols {
			dst = append(dst, row*g.NumTilesX+col)
		}
	}
	return dst
}

func (g Geometry) partialX() bool {
	return float64(g.NumTilesX)*g.TileSize > g.Width
}

func (g Geometry) partialY() bool {
	return float64(g.NumTilesY)*g.TileSize > g.Height
}

// axisNeighbors lists the distinct indices along one axis that can hold a
// particle within one tile width of index i.
//
// When the last tile is narrower than the others, the seam is also
// narrower: tile 0 reaches back into n-2 and tile n-2 reaches forward into 0.
func axisNeighbors(dst []int, i, n int, wrap, partial bool) []int {
	add := func(j int) {
		if wrap {
			j = ((j % n) + n) % n
		} else if j < 0 || j >= n {
			return
		}
		for _, seen := range dst {
			if seen == j {
				return
			}
		}
		dst = append(dst, j)
	}

	add(i - 1)
	add(i)
	add(i + 1)
	if wrap && partial {
		if i == 0 {
			add(n - 2)
		}
		if i == n-2 {
			add(0)
		}
	}
	return dst
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
