// Validate address decoder optimization - checks the shift/mask decoder
// against division and modulo, then measures decode throughput.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/sarchlab/cachesim/cache"
)

func main() {
	geometries := []struct{ lineSize, numSets uint64 }{
		{64, 1},
		{64, 16},
		{64, 64},
		{128, 2048},
		{1, 1 << 20},
	}

	rng := rand.New(rand.NewSource(1))

	// Check decoding against the arithmetic definition.
	for _, g := range geometries {
		d, err := cache.NewDecoder(g.lineSize, g.numSets)
		if err != nil {
			fmt.Printf("❌ %d-byte lines, %d sets: %v\n", g.lineSize, g.numSets, err)
			os.Exit(1)
		}

		for i := 0; i < 100000; i++ {
			addr := rng.Uint64()
			got := d.Decode(addr)

			want := cache.Address{
				Tag:      addr / g.lineSize / g.numSets,
				SetIndex: addr / g.lineSize % g.numSets,
				Offset:   addr % g.lineSize,
			}

			if got != want {
				fmt.Printf("❌ Decode mismatch at 0x%X\n", addr)
				fmt.Printf("  Decode():     %+v\n", got)
				fmt.Printf("  Arithmetic:   %+v\n", want)
				os.Exit(1)
			}
		}

		fmt.Printf("✅ %d-byte lines, %d sets: decoded correctly\n", g.lineSize, g.numSets)
	}

	d, _ := cache.NewDecoder(64, 64)

	// Warm up
	for i := 0; i < 1000; i++ {
		d.Decode(uint64(i) * 64)
	}

	runtime.GC()
	var m1, m2 runtime.MemStats
	runtime.ReadMemStats(&m1)

	start := time.Now()
	iterations := 10_000_000

	var sink uint64
	for i := 0; i < iterations; i++ {
		a := d.Decode(uint64(i) * 8)
		sink += a.Tag ^ a.SetIndex
	}

	elapsed := time.Since(start)
	runtime.ReadMemStats(&m2)

	allocations := m2.Mallocs - m1.Mallocs

	fmt.Printf("\nDecoder Validation Results:\n")
	fmt.Printf("===========================\n")
	fmt.Printf("Total decode operations: %d\n", iterations)
	fmt.Printf("Time elapsed: %v\n", elapsed)
	fmt.Printf("Decodes per second: %.0f\n", float64(iterations)/elapsed.Seconds())
	fmt.Printf("Allocations: %d\n", allocations)
	fmt.Printf("Checksum: %d\n", sink)

	if float64(allocations)/float64(iterations) < 0.001 {
		fmt.Printf("\n✅ SUCCESS: Decoding does not allocate.\n")
	} else {
		fmt.Printf("\n⚠️  WARNING: Decoding allocates\n")
	}
}
