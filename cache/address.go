package cache

import (
	"fmt"
	"math/bits"
)

// Address is a memory address split into the fields a cache looks at.
type Address struct {
	Tag      uint64
	SetIndex uint64
	Offset   uint64
}

// Decoder splits addresses for one cache geometry. The shifts and masks are
// computed once so decoding on the access path cannot fail.
type Decoder struct {
	lineSize   uint64
	numSets    uint64
	offsetBits uint
	indexBits  uint
	offsetMask uint64
	indexMask  uint64
}

// NewDecoder creates a Decoder for caches with the given line size and number
// of sets. Both must be powers of two.
func NewDecoder(lineSize, numSets uint64) (Decoder, error) {
	if !isPowerOfTwo(lineSize) {
		return Decoder{}, fmt.Errorf(
			"%w: line size %d is not a power of two", ErrConfiguration, lineSize)
	}

	if !isPowerOfTwo(numSets) {
		return Decoder{}, fmt.Errorf(
			"%w: set count %d is not a power of two", ErrConfiguration, numSets)
	}

	offsetBits := log2(lineSize)
	indexBits := log2(numSets)

	return Decoder{
		lineSize:   lineSize,
		numSets:    numSets,
		offsetBits: offsetBits,
		indexBits:  indexBits,
		offsetMask: CalculateMask(offsetBits),
		indexMask:  CalculateMask(indexBits),
	}, nil
}

// Decode splits address for a cache with the given line size and set count.
func Decode(address, lineSize, numSets uint64) (Address, error) {
	d, err := NewDecoder(lineSize, numSets)
	if err != nil {
		return Address{}, err
	}

	return d.Decode(address), nil
}

// Decode splits address into tag, set index and block offset.
func (d Decoder) Decode(address uint64) Address {
	return Address{
		Tag:      address >> (d.offsetBits + d.indexBits),
		SetIndex: (address >> d.offsetBits) & d.indexMask,
		Offset:   address & d.offsetMask,
	}
}

// BlockAddress returns address with the block offset cleared.
func (d Decoder) BlockAddress(address uint64) uint64 {
	return address &^ d.offsetMask
}

// Compose rebuilds the block address of a line from its tag and set index.
func (d Decoder) Compose(tag, setIndex uint64) uint64 {
	return tag<<(d.offsetBits+d.indexBits) | setIndex<<d.offsetBits
}

// LineSize returns the line size in bytes.
func (d Decoder) LineSize() uint64 {
	return d.lineSize
}

// NumSets returns the number of sets.
func (d Decoder) NumSets() uint64 {
	return d.numSets
}

// OffsetBits returns the width of the block offset field.
func (d Decoder) OffsetBits() uint {
	return d.offsetBits
}

// IndexBits returns the width of the set index field. It is 0 for fully
// associative caches.
func (d Decoder) IndexBits() uint {
	return d.indexBits
}

// CalculateMask generates a mask with the n least significant bits set.
func CalculateMask(n uint) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << n) - 1
}

func isPowerOfTwo(v uint64) bool {
	return v != 0 && v&(v-1) == 0
}

func log2(v uint64) uint {
	return uint(bits.TrailingZeros64(v))
}
