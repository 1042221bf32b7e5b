package cache_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/cachesim/cache"
)

var _ = Describe("Cache", func() {
	newCache := func(size, lineSize uint64, ways int, policy cache.PolicyKind) *cache.Cache {
		c, err := cache.New(cache.Config{
			Name:          "test",
			Size:          size,
			LineSize:      lineSize,
			Associativity: ways,
			Policy:        policy,
			Seed:          7,
		})
		Expect(err).NotTo(HaveOccurred())

		return c
	}

	Describe("Construction", func() {
		It("should pre-allocate every set and line", func() {
			c := newCache(1024, 64, 4, cache.LRU)

			Expect(c.NumSets()).To(Equal(4))
			for i := 0; i < c.NumSets(); i++ {
				set := c.Set(i)
				Expect(set.Ways()).To(Equal(4))
				Expect(set.ValidCount()).To(Equal(0))
			}
		})

		It("should default to round-robin", func() {
			c := newCache(1024, 64, 2, "")
			Expect(c.PolicyName()).To(Equal("rr"))
			Expect(c.Config().Policy).To(Equal(cache.RoundRobin))
		})

		It("should accept policy names in any case and spacing", func() {
			c, err := cache.New(cache.Config{
				Size: 1024, LineSize: 64, Associativity: 2, Policy: " LRU ",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.PolicyName()).To(Equal("lru"))
			Expect(c.Config().Policy).To(Equal(cache.LRU))
		})

		It("should report direct-mapped caches as policy-free", func() {
			c := newCache(1024, 64, 1, cache.LRU)
			Expect(c.PolicyName()).To(Equal("direct"))
		})

		DescribeTable("should reject impossible geometries",
			func(config cache.Config) {
				_, err := cache.New(config)
				Expect(err).To(MatchError(cache.ErrConfiguration))
			},
			Entry("size not a power of two",
				cache.Config{Size: 1000, LineSize: 64, Associativity: 1}),
			Entry("line size not a power of two",
				cache.Config{Size: 1024, LineSize: 48, Associativity: 1}),
			Entry("size smaller than a line",
				cache.Config{Size: 32, LineSize: 64, Associativity: 1}),
			Entry("zero associativity",
				cache.Config{Size: 1024, LineSize: 64, Associativity: 0}),
			Entry("associativity not dividing the lines",
				cache.Config{Size: 1024, LineSize: 64, Associativity: 3}),
			Entry("associativity larger than the cache",
				cache.Config{Size: 1024, LineSize: 64, Associativity: 32}),
			Entry("unknown policy",
				cache.Config{Size: 1024, LineSize: 64, Associativity: 2, Policy: "mru"}),
		)
	})

	Describe("Direct-mapped", func() {
		var c *cache.Cache

		BeforeEach(func() {
			// 1 KiB, 64 B lines: 16 sets of one line
			c = newCache(1024, 64, 1, "")
		})

		It("should miss on cold cache and hit on reuse", func() {
			Expect(c.Access(0x0, cache.Read, 4)).To(Equal(cache.Miss))
			Expect(c.Access(0x0, cache.Read, 4)).To(Equal(cache.Hit))

			hits, misses := c.Counters()
			Expect(hits).To(Equal(uint64(1)))
			Expect(misses).To(Equal(uint64(1)))
		})

		It("should hit on different addresses in same cache line", func() {
			c.Access(0x0, cache.Read, 4)
			Expect(c.Access(0x3C, cache.Read, 4)).To(Equal(cache.Hit))
		})

		It("should keep lines of different sets apart", func() {
			c.Access(0x0, cache.Read, 4)
			Expect(c.Access(0x40, cache.Read, 4)).To(Equal(cache.Miss))
			Expect(c.Access(0x0, cache.Read, 4)).To(Equal(cache.Hit))
		})

		It("should evict on a conflicting tag", func() {
			Expect(c.Access(0x0, cache.Read, 4)).To(Equal(cache.Miss))
			Expect(c.Access(0x400, cache.Read, 4)).To(Equal(cache.Miss))
			Expect(c.Access(0x0, cache.Read, 4)).To(Equal(cache.Miss))

			stats := c.Stats()
			Expect(stats.Evictions).To(Equal(uint64(2)))
			Expect(c.Set(0).ValidCount()).To(Equal(1))
		})
	})

	Describe("Fully associative", func() {
		It("should fill K lines before evicting", func() {
			// 256 B, 64 B lines, 4 ways: one set
			c := newCache(256, 64, 4, cache.RoundRobin)
			Expect(c.NumSets()).To(Equal(1))

			for i := uint64(0); i < 4; i++ {
				Expect(c.Access(i*0x1000, cache.Read, 8)).To(Equal(cache.Miss))
				Expect(c.Stats().Evictions).To(BeZero())
			}

			Expect(c.Access(4*0x1000, cache.Read, 8)).To(Equal(cache.Miss))
			Expect(c.Stats().Evictions).To(Equal(uint64(1)))
			Expect(c.Set(0).ValidCount()).To(Equal(4))
		})
	})

	Describe("Eviction order", func() {
		var (
			mockCtrl *gomock.Controller
			hook     *MockHook
			evicted  []uint64
		)

		// 1 KiB, 64 B lines, 4 ways = 4 sets; set 0 holds multiples of 0x100.
		setZero := func(i uint64) uint64 { return i * 0x100 }

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			hook = NewMockHook(mockCtrl)
			evicted = nil

			hook.EXPECT().Func(gomock.Any()).Do(func(ctx sim.HookCtx) {
				detail := ctx.Detail.(cache.AccessDetail)
				if detail.Evicted {
					evicted = append(evicted, detail.EvictedAddress)
				}
			}).AnyTimes()
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should evict in fill order with round-robin", func() {
			c := newCache(1024, 64, 4, cache.RoundRobin)
			c.AcceptHook(hook)

			for i := uint64(0); i < 9; i++ {
				Expect(c.Access(setZero(i), cache.Read, 8)).To(Equal(cache.Miss))
			}

			Expect(evicted).To(Equal([]uint64{
				setZero(0), setZero(1), setZero(2), setZero(3), setZero(4),
			}))
		})

		It("should ignore hits with round-robin", func() {
			c := newCache(1024, 64, 2, cache.RoundRobin)
			c.AcceptHook(hook)

			// 2 ways: 8 sets, set 0 holds multiples of 0x200.
			c.Access(0x000, cache.Read, 8)
			c.Access(0x200, cache.Read, 8)
			Expect(c.Access(0x000, cache.Read, 8)).To(Equal(cache.Hit))
			c.Access(0x400, cache.Read, 8)

			Expect(evicted).To(Equal([]uint64{0x000}))
		})

		It("should evict the least recently used line with LRU", func() {
			c := newCache(1024, 64, 2, cache.LRU)
			c.AcceptHook(hook)

			tagA, tagB, tagC := uint64(0x000), uint64(0x200), uint64(0x400)

			Expect(c.Access(tagA, cache.Read, 8)).To(Equal(cache.Miss))
			Expect(c.Access(tagB, cache.Read, 8)).To(Equal(cache.Miss))
			Expect(c.Access(tagA, cache.Read, 8)).To(Equal(cache.Hit))
			Expect(c.Access(tagC, cache.Read, 8)).To(Equal(cache.Miss))

			Expect(evicted).To(Equal([]uint64{tagB}))
			Expect(c.Access(tagA, cache.Read, 8)).To(Equal(cache.Hit))
			Expect(c.Access(tagB, cache.Read, 8)).To(Equal(cache.Miss))
		})

		It("should evict the least frequently used line with LFU", func() {
			c := newCache(1024, 64, 2, cache.LFU)
			c.AcceptHook(hook)

			tagA, tagB, tagC := uint64(0x000), uint64(0x200), uint64(0x400)

			c.Access(tagA, cache.Read, 8)
			c.Access(tagA, cache.Read, 8)
			c.Access(tagA, cache.Read, 8)
			c.Access(tagB, cache.Read, 8)
			Expect(c.Access(tagC, cache.Read, 8)).To(Equal(cache.Miss))
			Expect(c.Access(tagB, cache.Read, 8)).To(Equal(cache.Miss))

			Expect(evicted).To(Equal([]uint64{tagB, tagC}))
			Expect(c.Access(tagA, cache.Read, 8)).To(Equal(cache.Hit))
		})
	})

	Describe("Hooks", func() {
		It("should report every access", func() {
			mockCtrl := gomock.NewController(GinkgoT())
			defer mockCtrl.Finish()

			c := newCache(1024, 64, 1, "")
			hook := NewMockHook(mockCtrl)
			c.AcceptHook(hook)

			var outcomes []cache.Outcome
			hook.EXPECT().Func(gomock.Any()).Do(func(ctx sim.HookCtx) {
				Expect(ctx.Pos).To(BeIdenticalTo(cache.HookPosAccess))
				Expect(ctx.Item).To(BeIdenticalTo(c))
				outcomes = append(outcomes, ctx.Detail.(cache.AccessDetail).Outcome)
			}).Times(3)

			c.Access(0x0, cache.Read, 4)
			c.Access(0x0, cache.Write, 4)
			c.Access(0x400, cache.Read, 4)

			Expect(outcomes).To(Equal([]cache.Outcome{cache.Miss, cache.Hit, cache.Miss}))
		})
	})

	Describe("Statistics", func() {
		It("should count reads and writes without changing the outcome", func() {
			c := newCache(1024, 64, 2, cache.LRU)

			Expect(c.Access(0x80, cache.Write, 8)).To(Equal(cache.Miss))
			Expect(c.Access(0x80, cache.Read, 8)).To(Equal(cache.Hit))
			Expect(c.Access(0x80, cache.Write, 8)).To(Equal(cache.Hit))

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(1)))
			Expect(stats.Writes).To(Equal(uint64(2)))
			Expect(stats.Accesses()).To(Equal(uint64(3)))
		})

		It("should keep hits+misses equal to the number of accesses", func() {
			c := newCache(4096, 32, 4, cache.Random)
			rng := rand.New(rand.NewSource(3))

			var lastHits, lastMisses uint64
			for i := 0; i < 5000; i++ {
				c.Access(uint64(rng.Intn(1<<16)), cache.Read, 4)

				hits, misses := c.Counters()
				Expect(hits + misses).To(Equal(uint64(i + 1)))
				Expect(hits).To(BeNumerically(">=", lastHits))
				Expect(misses).To(BeNumerically(">=", lastMisses))
				lastHits, lastMisses = hits, misses
			}

			for i := 0; i < c.NumSets(); i++ {
				Expect(c.Set(i).ValidCount()).To(BeNumerically("<=", 4))
			}
		})

		It("should report no hit rate before any access", func() {
			c := newCache(1024, 64, 1, "")

			_, ok := c.Stats().HitRate()
			Expect(ok).To(BeFalse())

			c.Access(0x0, cache.Read, 4)
			c.Access(0x0, cache.Read, 4)

			rate, ok := c.Stats().HitRate()
			Expect(ok).To(BeTrue())
			Expect(rate).To(Equal(0.5))
		})
	})

	Describe("Determinism", func() {
		replay := func(policy cache.PolicyKind) (uint64, uint64) {
			c := newCache(2048, 64, 8, policy)
			rng := rand.New(rand.NewSource(11))
			for i := 0; i < 10000; i++ {
				c.Access(uint64(rng.Intn(1<<15)), cache.Read, 4)
			}

			return c.Counters()
		}

		for _, policy := range []cache.PolicyKind{
			cache.RoundRobin, cache.LRU, cache.Random, cache.LFU,
		} {
			policy := policy
			It("should give identical counts on replay with "+string(policy), func() {
				h1, m1 := replay(policy)
				h2, m2 := replay(policy)
				Expect(h1).To(Equal(h2))
				Expect(m1).To(Equal(m2))
			})
		}
	})

	Describe("AccessSpan", func() {
		var c *cache.Cache

		BeforeEach(func() {
			c = newCache(1024, 64, 2, cache.LRU)
		})

		It("should access every line the span touches", func() {
			Expect(c.AccessSpan(0x3C, cache.Read, 8)).To(Equal(cache.Miss))
			Expect(c.Stats().Misses).To(Equal(uint64(2)))

			Expect(c.AccessSpan(0x3C, cache.Read, 8)).To(Equal(cache.Hit))
			Expect(c.Stats().Hits).To(Equal(uint64(2)))
		})

		It("should miss when only part of the span is cached", func() {
			c.Access(0x00, cache.Read, 4)
			Expect(c.AccessSpan(0x3C, cache.Read, 8)).To(Equal(cache.Miss))
			Expect(c.Stats().Hits).To(Equal(uint64(1)))
		})

		It("should behave like Access inside one line", func() {
			Expect(c.AccessSpan(0x10, cache.Read, 8)).To(Equal(cache.Miss))
			Expect(c.Stats().Accesses()).To(Equal(uint64(1)))
		})

		It("should stop at the end of the address space", func() {
			Expect(c.AccessSpan(^uint64(0)-3, cache.Read, 64)).To(Equal(cache.Miss))
			Expect(c.Stats().Accesses()).To(Equal(uint64(1)))
		})
	})
})
