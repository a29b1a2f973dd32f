package grid

import (
	"fmt"
	"sync/atomic"

	"github.com/san-kum/particlelife/internal/dynamo"
)

// Tile is one bucket of the tile-ordered particle array. Capacity is the
// number of slots reserved at Offset; Size is the fill cursor advanced
// atomically while particles are scattered. Particle counts never exceed
// math.MaxInt32, so the offsets fit.
type Tile struct {
	Offset   int32
	Capacity int32
	Size     int32
}

// TileList holds the tiles of one grid plus the occupancy counted for the
// next timestep.
type TileList struct {
	Tiles   []Tile
	pending []int32
}

// NewTileList allocates n empty tiles.
func NewTileList(n int) *TileList {
	return &TileList{
		Tiles:   make([]Tile, n),
		pending: make([]int32, n),
	}
}

// Len returns the number of tiles.
func (l *TileList) Len() int { return len(l.Tiles) }

// Count recomputes next-step occupancy from scratch for particles.
func (l *TileList) Count(g Geometry, particles []dynamo.Particle) {
	for i := range l.pending {
		l.pending[i] = 0
	}
	for i := range particles {
		l.pending[g.TileOf(particles[i].Pos)]++
	}
}

// AddPending records that one particle will occupy tile next timestep.
// Safe for concurrent use.
func (l *TileList) AddPending(tile int) {
	atomic.AddInt32(&l.pending[tile], 1)
}

// Pending returns the occupancy recorded for tile so far.
func (l *TileList) Pending(tile int) int32 {
	return atomic.LoadInt32(&l.pending[tile])
}

// Setup turns pending occupancy into reserved capacities, lays the tiles out
// back to back by prefix sum and rewinds every fill cursor. The pending
// counts are cleared for the next timestep. It returns the total capacity.
func (l *TileList) Setup() int {
	var offset int32
	for i := range l.Tiles {
		t := &l.Tiles[i]
		t.Capacity = l.pending[i]
		t.Offset = offset
		t.Size = 0
		offset += t.Capacity
		l.pending[i] = 0
	}
	return int(offset)
}

// Claim reserves the next free slot in tile and returns its index in the
// tile-ordered array. Safe for concurrent use.
func (l *TileList) Claim(tile int) (int, error) {
	t := &l.Tiles[tile]
	slot := atomic.AddInt32(&t.Size, 1) - 1
	if slot >= t.Capacity {
		return 0, fmt.Errorf("%w: tile %d holds %d slots", dynamo.ErrTileOverflow, tile, t.Capacity)
	}
	return int(t.Offset + slot), nil
}

// Span returns the half-open index range of particles stored in tile.
func (l *TileList) Span(tile int) (start, end int) {
	t := &l.Tiles[tile]
	return int(t.Offset), int(t.Offset + t.Size)
}
