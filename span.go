package blockbuf

import "iter"

// span addresses a contiguous run of bytes within a single block.
type span struct {
	block int // Block index.
	off   int // Offset within the block.
	n     int // Number of bytes.
}

// blockSpans returns the sequence of per-block spans covering the logical
// range [off, off+n) for the given block size. The first span runs from its
// intra-block offset to the end of the block, middle spans cover whole blocks,
// and the final span carries the remainder. The sequence is lazy and can be
// iterated any number of times.
func blockSpans(blockSize, off, n int) iter.Seq[span] {
	return func(yield func(span) bool) {
		for n > 0 {
			block, pos := off/blockSize, off%blockSize
			m := min(n, blockSize-pos)
			if !yield(span{block: block, off: pos, n: m}) {
				return
			}
			off += m
			n -= m
		}
	}
}

// blocksFor returns the number of blocks required to hold size bytes.
func blocksFor(blockSize, size int) int {
	// This is a ceiling division: (a + b - 1) / b
	return (size + blockSize - 1) / blockSize
}
