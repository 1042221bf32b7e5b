package simulation

import (
	"hash/fnv"

	"github.com/sarchlab/cachesim/cache"
)

// DeriveSeed returns the random seed of the named cache for a run seeded with
// master. Seeds are master XOR fnv1a64(name), so caches draw from independent
// streams and adding a cache does not perturb the others.
func DeriveSeed(master int64, name string) int64 {
	return master ^ fnv1a64(name)
}

// BuildCaches creates one cache per configuration in order, each seeded from
// master.
func BuildCaches(configs []cache.Config, master int64) ([]*cache.Cache, error) {
	caches := make([]*cache.Cache, 0, len(configs))

	for _, config := range configs {
		config.Seed = DeriveSeed(master, config.Name)

		c, err := cache.New(config)
		if err != nil {
			return nil, err
		}

		caches = append(caches, c)
	}

	return caches, nil
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))

	return int64(h.Sum64())
}
