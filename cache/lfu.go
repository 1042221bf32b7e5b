package cache

// LFUPolicy evicts the least frequently used way of a set. Ties go to the
// lowest way index.
type LFUPolicy struct {
	counts [][]uint64
}

// NewLFUPolicy returns an LFU policy with all use counts at zero.
func NewLFUPolicy(numSets, numWays int) *LFUPolicy {
	p := &LFUPolicy{counts: make([][]uint64, numSets)}
	for i := range p.counts {
		p.counts[i] = make([]uint64, numWays)
	}

	return p
}

// Name returns "lfu".
func (p *LFUPolicy) Name() string {
	return string(LFU)
}

// SelectVictim returns the way with the smallest use count.
func (p *LFUPolicy) SelectVictim(set *Set) int {
	counts := p.counts[set.ID]

	victim := 0
	for w := 1; w < len(counts); w++ {
		if counts[w] < counts[victim] {
			victim = w
		}
	}

	return victim
}

// OnAccess counts a hit, or restarts the count of a freshly filled way.
func (p *LFUPolicy) OnAccess(set *Set, way int, hit bool) {
	if !hit {
		p.counts[set.ID][way] = 1
		return
	}

	p.counts[set.ID][way]++
}

// Count returns the use count of a way.
func (p *LFUPolicy) Count(setID, way int) uint64 {
	return p.counts[setID][way]
}
