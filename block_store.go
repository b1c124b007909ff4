package blockbuf

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

var (
	ErrOutOfMemory     = errors.New("cannot allocate block memory")
	ErrStoreFull       = errors.New("block store is full")
	ErrStoreEmpty      = errors.New("block store is empty")
	ErrBlockOutOfRange = errors.New("block index is out of range")
)

// BlockStore owns an ordered sequence of memory blocks allocated outside the
// Go heap. It implements [BlockStorer].
//
// A store is exclusively owned by a single buffer and is not safe for
// concurrent use.
type BlockStore struct {
	blocks        [][]byte
	maxBlockCount int // 0 means no limit.
	maxBlockSize  int // 0 means no limit.
}

// NewBlockStore creates a new, empty block store. maxBlockCount bounds the
// number of blocks the store may hold and maxBlockSize the size of a single
// block; a value of 0 disables the corresponding limit.
func NewBlockStore(maxBlockCount, maxBlockSize int) (*BlockStore, error) {
	if maxBlockCount < 0 || maxBlockSize < 0 {
		return nil, errors.New("block store limits must be >= 0")
	}
	return &BlockStore{
		maxBlockCount: maxBlockCount,
		maxBlockSize:  maxBlockSize,
	}, nil
}

// AppendBlock appends one block of exactly size bytes at the tail.
// The block memory is zero-filled; if initial is non-nil its contents are
// copied into the head of the new block.
func (s *BlockStore) AppendBlock(initial []byte, size int) error {
	if size <= 0 {
		return fmt.Errorf("invalid block size %d", size)
	}
	if s.maxBlockSize > 0 && size > s.maxBlockSize {
		return fmt.Errorf("%w: block size %d exceeds limit %d", ErrStoreFull, size, s.maxBlockSize)
	}
	if s.maxBlockCount > 0 && len(s.blocks) >= s.maxBlockCount {
		return fmt.Errorf("%w: already holding %d blocks", ErrStoreFull, len(s.blocks))
	}
	if len(initial) > size {
		return fmt.Errorf("initial contents (%d bytes) exceed block size %d", len(initial), size)
	}

	// Use unix.Mmap to allocate virtual memory that is not part of the Go heap.
	// Anonymous mappings are zero-filled by the kernel.
	data, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE,
	)
	if err != nil {
		return fmt.Errorf("%w: mmap %d bytes: %v", ErrOutOfMemory, size, err)
	}
	copy(data, initial)
	s.blocks = append(s.blocks, data)
	return nil
}

// ReleaseTailBlock removes the block currently at the tail and returns its
// memory to the operating system.
func (s *BlockStore) ReleaseTailBlock() error {
	n := len(s.blocks)
	if n == 0 {
		return ErrStoreEmpty
	}
	block := s.blocks[n-1]
	s.blocks = s.blocks[:n-1]
	if err := unix.Munmap(block); err != nil {
		return fmt.Errorf("munmap tail block: %w", err)
	}
	return nil
}

// Block returns a mutable view of the block at index.
func (s *BlockStore) Block(index int) ([]byte, error) {
	if index < 0 || index >= len(s.blocks) {
		return nil, fmt.Errorf("%w: [%d] with length %d", ErrBlockOutOfRange, index, len(s.blocks))
	}
	return s.blocks[index], nil
}

// BlockCount returns the number of blocks currently held.
func (s *BlockStore) BlockCount() int {
	return len(s.blocks)
}

// Close releases every block back to the operating system and leaves the
// store empty. The store must not be used after Close.
func (s *BlockStore) Close() error {
	var errs []error
	for _, block := range s.blocks {
		if err := unix.Munmap(block); err != nil {
			errs = append(errs, fmt.Errorf("munmap block: %w", err))
		}
	}
	s.blocks = nil
	return errors.Join(errs...)
}
