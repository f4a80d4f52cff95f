// Package header encodes tar entry descriptors into 512-byte wire blocks.
//
// It knows nothing about files, sinks, or compression; it is pure byte
// layout, kept separate from everything that produces or consumes it.
package header

// Size is the fixed length of every tar block: a header block or a data
// block, zero-padded as needed.
const Size = 512

// Block is one 512-byte unit of tar I/O.
type Block [Size]byte

// Zero is the all-zero block used for padding and for the two trailing
// end-of-archive markers.
var Zero Block

// Padding returns the number of zero bytes needed after n content bytes to
// reach the next block boundary, 0 <= Padding(n) < Size.
func Padding(n int64) int64 {
	return -n & (Size - 1)
}

// Blocks returns the number of Size-byte blocks needed to hold n bytes,
// i.e. ceil(n / Size).
func Blocks(n uint64) uint64 {
	return (n + Size - 1) / Size
}
