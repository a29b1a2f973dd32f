package pipeline

import "github.com/san-kum/particlelife/internal/dynamo"

// Phase reports where a timestep is.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseSortingIntoRead
	PhaseComputingForces
	PhaseIntegrating
	PhaseSwapped
)

func (p Phase) String() string {
	switch p {
	case PhaseSortingIntoRead:
		return "sorting"
	case PhaseComputingForces:
		return "forces"
	case PhaseIntegrating:
		return "integrating"
	case PhaseSwapped:
		return "swapped"
	}
	return "idle"
}

// buffers holds two particle arrays. The front slot is the published
// snapshot of the last completed timestep; the back slot is rebuilt in tile
// order from it during the next one and becomes the front on swap.
type buffers struct {
	slots [2][]dynamo.Particle
	front int
}

func newBuffers(n int) buffers {
	return buffers{slots: [2][]dynamo.Particle{
		make([]dynamo.Particle, n),
		make([]dynamo.Particle, n),
	}}
}

func (b *buffers) published() []dynamo.Particle { return b.slots[b.front] }
func (b *buffers) working() []dynamo.Particle   { return b.slots[1-b.front] }
func (b *buffers) swap()                        { b.front = 1 - b.front }
