package recommend

import (
	"sync"
	"time"

	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler is the engine's only randomness source. It wraps a swappable
// rand source so tests can force determinism with a fixed seed;
// production uses a time-seeded source.
type Sampler struct {
	mu  sync.Mutex
	src xrand.Source
	rng *xrand.Rand
}

func NewSampler(src xrand.Source) *Sampler {
	return &Sampler{src: src, rng: xrand.New(src)}
}

// NewSeededSampler is the deterministic constructor used in tests.
func NewSeededSampler(seed uint64) *Sampler {
	return NewSampler(xrand.NewSource(seed))
}

func NewTimeSampler() *Sampler {
	return NewSampler(xrand.NewSource(uint64(time.Now().UnixNano())))
}

// Beta draws one sample from Beta(alpha, beta).
func (s *Sampler) Beta(alpha, beta float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := distuv.Beta{Alpha: alpha, Beta: beta, Src: s.src}
	return d.Rand()
}

func (s *Sampler) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}
