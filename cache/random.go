package cache

import "math/rand"

// RandomPolicy evicts a uniformly chosen way. The random source belongs to
// the cache so that runs with the same seed evict the same lines.
type RandomPolicy struct {
	numWays int
	rng     *rand.Rand
}

// NewRandomPolicy returns a random policy drawing from rng.
func NewRandomPolicy(numWays int, rng *rand.Rand) *RandomPolicy {
	return &RandomPolicy{
		numWays: numWays,
		rng:     rng,
	}
}

// Name returns "random".
func (p *RandomPolicy) Name() string {
	return string(Random)
}

// SelectVictim draws a way in [0, numWays).
func (p *RandomPolicy) SelectVictim(set *Set) int {
	return p.rng.Intn(p.numWays)
}

// OnAccess does nothing.
func (p *RandomPolicy) OnAccess(set *Set, way int, hit bool) {}
