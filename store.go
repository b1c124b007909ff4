package blockbuf

// BlockStorer defines the contract for a store that owns an ordered sequence
// of memory blocks. Blocks are appended and released at the tail only and are
// addressable by a contiguous, zero-based index.
type BlockStorer interface {
	AppendBlock(initial []byte, size int) error // Appends one block of exactly size bytes at the tail.
	ReleaseTailBlock() error                    // Removes and frees the tail block; fails if the store is empty.
	Block(index int) ([]byte, error)            // Returns a mutable view of the block at index.
	BlockCount() int                            // Number of blocks currently held.
	Close() error                               // Releases all blocks and the store itself.
}
