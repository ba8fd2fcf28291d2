package core

import "math/rand/v2"

// RNG is a thin wrapper around a PCG generator from math/rand/v2. It is
// seeded once at construction and again only through an explicit Seed call,
// so two RNGs built from the same seed produce the same draw sequence.
type RNG struct {
	pcg *rand.PCG
	r   *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	pcg := rand.NewPCG(uint64(seed), 0)
	return &RNG{pcg: pcg, r: rand.New(pcg)}
}

// Seed restarts the draw sequence from seed.
func (r *RNG) Seed(seed int64) {
	r.pcg.Seed(uint64(seed), 0)
}

// Float64 returns a uniform value in [0, 1).
func (r *RNG) Float64() float64 {
	return r.r.Float64()
}

// IntN returns a uniform integer in [0, n). It returns 0 when n <= 0 rather
// than panicking like rand.IntN.
func (r *RNG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return r.r.IntN(n)
}
