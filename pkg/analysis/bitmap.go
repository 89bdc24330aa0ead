package analysis

import (
	"math/bits"
)

// bitmap is a fixed-length bit vector over raw code indices.
type bitmap struct {
	words  []uint64
	length int
}

func newBitmap(length int) *bitmap {
	return &bitmap{
		words:  make([]uint64, (length+63)/64),
		length: length,
	}
}

// set marks index i. Out-of-range indices are ignored.
func (b *bitmap) set(i int) {
	if i < 0 || i >= b.length {
		return
	}
	b.words[i/64] |= uint64(1) << (i % 64)
}

func (b *bitmap) isSet(i int) bool {
	if i < 0 || i >= b.length {
		return false
	}
	return b.words[i/64]&(uint64(1)<<(i%64)) != 0
}

// popCount returns the number of set indices.
func (b *bitmap) popCount() int {
	count := 0
	for _, w := range b.words {
		count += bits.OnesCount64(w)
	}
	return count
}
