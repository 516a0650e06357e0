package vorbis

import (
	"math/bits"

	"github.com/optivorbis/optivorbis-go/bitpack"
)

// w builds a bitpack.Width from a width already known to be in [0, 32],
// whether a literal or a value derived from a fixed-width field read
// earlier in the same packet. Panicking here only ever catches a
// programmer mistake in this package, not malformed input.
func w(width int) bitpack.Width {
	width32, err := bitpack.NewWidth(width)
	if err != nil {
		panic(err)
	}
	return width32
}

// ilog returns floor(log2(n))+1 for n>0, else 0 — the number of bits needed
// to hold n, per the Vorbis I specification's ilog() primitive.
func ilog(n uint32) uint8 {
	return uint8(bits.Len32(n))
}

// isPowerOfTwo reports whether n is a power of two (n>0 required by caller).
func isPowerOfTwo(n uint32) bool {
	return n != 0 && n&(n-1) == 0
}
