package cache_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/cache"
)

var _ = Describe("ReplacementPolicy", func() {
	var set *cache.Set

	BeforeEach(func() {
		set = &cache.Set{ID: 0, Lines: make([]cache.Line, 4)}
		for w := range set.Lines {
			set.Fill(w, uint64(w+10))
		}
	})

	Describe("ParsePolicyKind", func() {
		It("should default an empty key to round-robin", func() {
			kind, err := cache.ParsePolicyKind("")
			Expect(err).NotTo(HaveOccurred())
			Expect(kind).To(Equal(cache.RoundRobin))
		})

		It("should accept keys case-insensitively", func() {
			kind, err := cache.ParsePolicyKind(" LRU ")
			Expect(err).NotTo(HaveOccurred())
			Expect(kind).To(Equal(cache.LRU))
		})

		It("should reject unknown keys", func() {
			_, err := cache.ParsePolicyKind("plru")
			Expect(err).To(MatchError(cache.ErrConfiguration))
		})
	})

	Describe("RoundRobin", func() {
		It("should cycle through the ways", func() {
			p := cache.NewRoundRobinPolicy(1, 4)

			var order []int
			for i := 0; i < 6; i++ {
				order = append(order, p.SelectVictim(set))
			}

			Expect(order).To(Equal([]int{0, 1, 2, 3, 0, 1}))
		})
	})

	Describe("LRU", func() {
		It("should move touched ways to the back of the queue", func() {
			p := cache.NewLRUPolicy(1, 4)
			Expect(p.Order(0)).To(Equal([]int{0, 1, 2, 3}))

			p.OnAccess(set, 1, true)
			p.OnAccess(set, 0, true)
			Expect(p.Order(0)).To(Equal([]int{2, 3, 1, 0}))
			Expect(p.SelectVictim(set)).To(Equal(2))
		})
	})

	Describe("LFU", func() {
		It("should pick the lowest count and break ties by way", func() {
			p := cache.NewLFUPolicy(1, 4)
			for w := 0; w < 4; w++ {
				p.OnAccess(set, w, false)
			}

			p.OnAccess(set, 0, true)
			p.OnAccess(set, 2, true)
			Expect(p.Count(0, 0)).To(Equal(uint64(2)))
			Expect(p.SelectVictim(set)).To(Equal(1))

			p.OnAccess(set, 1, true)
			Expect(p.SelectVictim(set)).To(Equal(3))
		})
	})

	Describe("Random", func() {
		It("should draw ways within the set", func() {
			p := cache.NewRandomPolicy(4, rand.New(rand.NewSource(1)))
			for i := 0; i < 100; i++ {
				Expect(p.SelectVictim(set)).To(BeNumerically("<", 4))
			}
		})

		It("should need a random source", func() {
			_, err := cache.NewPolicy(cache.Random, 1, 4, nil)
			Expect(err).To(MatchError(cache.ErrConfiguration))
		})
	})

	Describe("Set", func() {
		It("should find only valid matching lines", func() {
			s := &cache.Set{Lines: make([]cache.Line, 2)}

			_, found := s.Lookup(0)
			Expect(found).To(BeFalse())

			way, ok := s.FirstInvalid()
			Expect(ok).To(BeTrue())
			Expect(way).To(Equal(0))

			s.Fill(1, 0)
			way, found = s.Lookup(0)
			Expect(found).To(BeTrue())
			Expect(way).To(Equal(1))
			Expect(s.ValidCount()).To(Equal(1))
		})
	})
})
