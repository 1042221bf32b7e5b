package benchmarks

import (
	"io"
	"math/rand"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/trace"
)

// Pattern produces the i-th access of a synthetic workload.
type Pattern func(i uint64, rng *rand.Rand) (address uint64, op cache.Operation, size int)

// Workload is a named synthetic access pattern.
type Workload struct {
	// Name identifies the workload
	Name string

	// Description explains what the workload stresses
	Description string

	// Pattern generates the accesses
	Pattern Pattern
}

// GetWorkloads returns the standard set of synthetic workloads.
// Each one exercises a different aspect of cache organization.
func GetWorkloads() []Workload {
	return []Workload{
		sequentialScan(),
		strided(),
		uniformRandom(),
		conflictThrash(),
		hotLoop(),
		mixedReadWrite(),
	}
}

// GetCoreWorkloads returns a minimal set of 3 workloads for quick checks.
func GetCoreWorkloads() []Workload {
	return []Workload{
		sequentialScan(),
		conflictThrash(),
		hotLoop(),
	}
}

// LookupWorkload finds a workload by name.
func LookupWorkload(name string) (Workload, bool) {
	for _, w := range GetWorkloads() {
		if w.Name == name {
			return w, true
		}
	}

	return Workload{}, false
}

// WorkloadNames lists the names of all workloads.
func WorkloadNames() []string {
	workloads := GetWorkloads()
	names := make([]string, len(workloads))

	for i, w := range workloads {
		names[i] = w.Name
	}

	return names
}

// Source replays a workload as a stream of trace records.
type Source struct {
	workload Workload
	rng      *rand.Rand
	count    uint64
	next     uint64
}

// NewSource creates a source yielding count records of w.
func NewSource(w Workload, count uint64, seed int64) *Source {
	return &Source{
		workload: w,
		rng:      rand.New(rand.NewSource(seed)),
		count:    count,
	}
}

// Next returns the next record, or io.EOF after count records.
func (s *Source) Next() (trace.Record, error) {
	if s.next >= s.count {
		return trace.Record{}, io.EOF
	}

	i := s.next
	s.next++

	address, op, size := s.workload.Pattern(i, s.rng)

	return trace.Record{
		PC:        "0x400000",
		Address:   address,
		Operation: op,
		Size:      size,
		Line:      int(i) + 1,
	}, nil
}

// Generate writes count records of w to out and flushes it.
func Generate(out *trace.Writer, w Workload, count uint64, seed int64) error {
	source := NewSource(w, count, seed)

	for {
		rec, err := source.Next()
		if err == io.EOF {
			break
		}

		if err := out.Write(rec); err != nil {
			return err
		}
	}

	return out.Flush()
}

const baseAddress = 0x10000000

// 1. Sequential scan - streams through a 4MB array, one word at a time.
// Every cache sees one miss per line.
func sequentialScan() Workload {
	const footprint = 4 << 20

	return Workload{
		Name:        "sequential",
		Description: "8-byte reads over a 4MB array - one compulsory miss per line",
		Pattern: func(i uint64, _ *rand.Rand) (uint64, cache.Operation, int) {
			return baseAddress + (i*8)%footprint, cache.Read, 8
		},
	}
}

// 2. Strided - touches one word every 4KB, so most accesses land in few sets.
func strided() Workload {
	const (
		stride = 4096
		count  = 512
	)

	return Workload{
		Name:        "stride",
		Description: "4KB stride over 2MB - concentrates lines in a few sets",
		Pattern: func(i uint64, _ *rand.Rand) (uint64, cache.Operation, int) {
			return baseAddress + (i%count)*stride, cache.Read, 8
		},
	}
}

// 3. Uniform random - no locality beyond chance.
func uniformRandom() Workload {
	const footprint = 16 << 20

	return Workload{
		Name:        "random",
		Description: "uniform random 8-byte reads over 16MB - little reuse",
		Pattern: func(_ uint64, rng *rand.Rand) (uint64, cache.Operation, int) {
			return baseAddress + uint64(rng.Int63n(footprint))&^7, cache.Read, 8
		},
	}
}

// 4. Conflict thrash - cycles through 9 lines 64KB apart. They share a set in
// any cache of at most 64KB, so 8-way caches miss on every access while a
// fully associative one hits.
func conflictThrash() Workload {
	const (
		distance = 64 << 10
		lines    = 9
	)

	return Workload{
		Name:        "thrash",
		Description: "9 lines 64KB apart in rotation - defeats 8-way sets",
		Pattern: func(i uint64, _ *rand.Rand) (uint64, cache.Operation, int) {
			return baseAddress + (i%lines)*distance, cache.Read, 8
		},
	}
}

// 5. Hot loop - repeatedly walks a 16KB working set that fits in any L1.
func hotLoop() Workload {
	const footprint = 16 << 10

	return Workload{
		Name:        "loop",
		Description: "repeated walk over a 16KB working set - hit rate near 100%",
		Pattern: func(i uint64, _ *rand.Rand) (uint64, cache.Operation, int) {
			return baseAddress + (i*64)%footprint, cache.Read, 8
		},
	}
}

// 6. Mixed - 70% reads from a hot 32KB region, 30% writes anywhere in 1MB.
func mixedReadWrite() Workload {
	const (
		hot  = 32 << 10
		cold = 1 << 20
	)

	return Workload{
		Name:        "mixed",
		Description: "70% reads from a hot 32KB region, 30% writes over 1MB",
		Pattern: func(_ uint64, rng *rand.Rand) (uint64, cache.Operation, int) {
			if rng.Intn(10) < 7 {
				return baseAddress + uint64(rng.Intn(hot))&^3, cache.Read, 4
			}

			return baseAddress + uint64(rng.Intn(cold))&^7, cache.Write, 8
		},
	}
}
