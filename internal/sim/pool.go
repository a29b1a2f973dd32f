package sim

import (
	"sync"

	"github.com/san-kum/particlelife/internal/dynamo"
)

// ParticlePool recycles snapshot buffers of a fixed particle count.
type ParticlePool struct {
	pool sync.Pool
	size int
}

func NewParticlePool(size int) *ParticlePool {
	return &ParticlePool{
		size: size,
		pool: sync.Pool{
			New: func() interface{} {
				return make([]dynamo.Particle, size)
			},
		},
	}
}

func (p *ParticlePool) Get() []dynamo.Particle {
	return p.pool.Get().([]dynamo.Particle)
}

// Put returns a buffer. Buffers of the wrong size are dropped.
func (p *ParticlePool) Put(ps []dynamo.Particle) {
	if len(ps) == p.size {
		p.pool.Put(ps)
	}
}

func (p *ParticlePool) GetAndCopy(src []dynamo.Particle) []dynamo.Particle {
	dst := p.Get()
	copy(dst, src)
	return dst
}
