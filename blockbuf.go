// Package blockbuf implements a resizable byte buffer backed by an ordered
// sequence of fixed-size memory blocks borrowed from a block store.
//
// The buffer exposes a flat logical address space: reads and writes are
// addressed by offset and split into per-block moves, including moves that
// cross block boundaries. Blocks are acquired and released lazily at the tail
// as the logical size changes.
package blockbuf

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

var (
	ErrOffsetOutOfBounds = errors.New("offset is out of bounds")
	ErrSizeOutOfRange    = errors.New("size is out of range")
)

// Status is a read-only snapshot of a buffer's block count and logical size.
type Status struct {
	BlockCount int // Blocks currently held from the store.
	Size       int // Logical size in bytes.
}

// Buffer is a resizable byte buffer whose physical storage is composed of
// fixed-size blocks held by a block store. The buffer owns no raw memory
// itself; it manages only the count and mapping of the blocks it has borrowed.
//
// A Buffer exclusively owns its store and is not safe for concurrent use
// without external locking.
type Buffer[S BlockStorer] struct {
	logger     *slog.Logger
	store      S
	readerPool *readerPool[S]

	blockSize int // Fixed size of every block, in bytes.
	sizeMax   int // Ceiling on the logical size.

	// State derived from the store and the logical size, cached so that
	// status queries and range checks never touch the store.
	blockCount int
	capacity   int // Always blockCount * blockSize.
	size       int // Logical size in bytes.
	lastFill   int // Logically valid bytes in the final block.
}

// New creates an empty buffer together with an uncapped block store scoped to
// it. The store is torn down again if the buffer itself cannot be set up.
func New(logger *slog.Logger, config Config) (*Buffer[*BlockStore], error) {
	store, err := NewBlockStore(0, 0)
	if err != nil {
		return nil, err
	}
	b, err := NewWithStore(store, logger, config)
	if err != nil {
		store.Close()
		return nil, err
	}
	return b, nil
}

// NewWithStore creates an empty buffer on top of an existing store.
// The buffer takes ownership of the store; the caller keeps ownership only
// when an error is returned.
func NewWithStore[S BlockStorer](store S, logger *slog.Logger, config Config) (*Buffer[S], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	b := &Buffer[S]{
		logger:    logger,
		store:     store,
		blockSize: config.BlockSize,
		sizeMax:   config.SizeMax,
	}
	b.readerPool = newReaderPool(b)
	return b, nil
}

// Close releases every block held by the buffer along with its store.
// The buffer must not be used after Close.
func (b *Buffer[S]) Close() error {
	b.blockCount = 0
	b.capacity = 0
	b.size = 0
	b.lastFill = 0
	return b.store.Close()
}

// Status returns a snapshot of the buffer's block count and logical size.
func (b *Buffer[S]) Status() Status {
	return Status{BlockCount: b.blockCount, Size: b.size}
}

// Len returns the logical size of the buffer in bytes.
func (b *Buffer[S]) Len() int { return b.size }

// Cap returns the total bytes available across all currently held blocks.
func (b *Buffer[S]) Cap() int { return b.capacity }

// BlockSize returns the fixed size of the buffer's blocks.
func (b *Buffer[S]) BlockSize() int { return b.blockSize }

// Resize grows or shrinks the buffer to the given logical size, appending or
// releasing tail blocks as required. Resizing to the current size is a valid
// no-op.
//
// If appending fails midway, blocks appended before the failure remain held
// and accounted for, the logical size is unchanged, and the store error is
// returned. If releasing fails midway, the buffer's bookkeeping is left
// entirely untouched.
func (b *Buffer[S]) Resize(size int) error {
	if size < 0 || size > b.sizeMax {
		return fmt.Errorf("%w: size %d with limit %d", ErrSizeOutOfRange, size, b.sizeMax)
	}

	need := blocksFor(b.blockSize, size)
	if need > b.blockCount {
		for i := b.blockCount; i < need; i++ {
			if err := b.store.AppendBlock(nil, b.blockSize); err != nil {
				// Keep the blocks appended so far; a later Resize reconciles them.
				b.blockCount = i
				b.capacity = i * b.blockSize
				b.logger.Warn("resize aborted mid-growth",
					"held_blocks", i,
					"required_blocks", need,
					"error", err,
				)
				return fmt.Errorf("append block: %w", err)
			}
		}
	} else if need < b.blockCount {
		for i := b.blockCount; i > need; i-- {
			if err := b.store.ReleaseTailBlock(); err != nil {
				return fmt.Errorf("release tail block: %w", err)
			}
		}
	}

	b.blockCount = need
	b.capacity = need * b.blockSize
	b.size = size

	q, r := size/b.blockSize, size%b.blockSize
	if q != 0 && r == 0 {
		// The final block is exactly full, not empty.
		b.lastFill = b.blockSize
	} else {
		b.lastFill = r
	}
	return nil
}

// WriteAt copies p into the buffer starting at logical offset off.
// It implements [io.WriterAt].
//
// If off+len(p) exceeds the current logical size the buffer is resized to the
// new extent first, inheriting all failure modes of [Buffer.Resize]; when the
// extent already fits within capacity no blocks move.
func (b *Buffer[S]) WriteAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, fmt.Errorf("%w: negative offset %d", ErrOffsetOutOfBounds, off)
	}
	offs := int(off)
	if end := offs + len(p); end > b.size {
		if err := b.Resize(end); err != nil {
			return 0, err
		}
	}
	for s := range blockSpans(b.blockSize, offs, len(p)) {
		block, err := b.store.Block(s.block)
		if err != nil {
			return n, fmt.Errorf("get block %d: %w", s.block, err)
		}
		copy(block[s.off:s.off+s.n], p[n:n+s.n])
		n += s.n
	}
	return n, nil
}

// Write appends p at the buffer's logical end, growing the buffer as needed.
// It implements [io.Writer].
func (b *Buffer[S]) Write(p []byte) (n int, err error) {
	return b.WriteAt(p, int64(b.size))
}

// ReadAt copies len(p) bytes starting at logical offset off into p.
// It implements [io.ReaderAt].
//
// Reads never grow the buffer: an offset beyond the logical size fails with
// ErrOffsetOutOfBounds and a range reaching past it fails with
// ErrSizeOutOfRange.
func (b *Buffer[S]) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 || off > int64(b.size) {
		return 0, fmt.Errorf("%w: offset %d with size %d", ErrOffsetOutOfBounds, off, b.size)
	}
	offs := int(off)
	if end := offs + len(p); end > b.size {
		return 0, fmt.Errorf("%w: reading [%d, %d) with size %d", ErrSizeOutOfRange, offs, end, b.size)
	}
	for s := range blockSpans(b.blockSize, offs, len(p)) {
		block, err := b.store.Block(s.block)
		if err != nil {
			return n, fmt.Errorf("get block %d: %w", s.block, err)
		}
		n += copy(p[n:], block[s.off:s.off+s.n])
	}
	return n, nil
}

// Reader returns a pooled sequential reader positioned at the start of the
// buffer. Return it with [Buffer.PutReader] when done.
func (b *Buffer[S]) Reader() *Reader[S] {
	return b.readerPool.Get()
}

// PutReader returns a reader obtained from [Buffer.Reader] to the pool.
func (b *Buffer[S]) PutReader(r *Reader[S]) {
	b.readerPool.Put(r)
}

// Sum64 returns the xxhash digest of the buffer's logical contents.
func (b *Buffer[S]) Sum64() (uint64, error) {
	r := b.readerPool.Get()
	defer b.readerPool.Put(r)

	d := xxhash.New()
	if _, err := io.Copy(d, r.Reset()); err != nil {
		return 0, err
	}
	return d.Sum64(), nil
}

// Print outputs a visual representation of the buffer for debugging purposes.
// Each held block is printed as a row of space-separated hexadecimal values;
// only the logically valid bytes of the final block are shown.
func (b *Buffer[S]) Print(w io.Writer) {
	if b.blockCount == 0 {
		fmt.Fprintln(w, "(empty)")
		return
	}

	// Calculate the padding width needed to align all block indexes.
	// The width is the number of digits in the highest block index.
	paddingWidth := len(strconv.Itoa(b.blockCount - 1))

	for i := 0; i < b.blockCount; i++ {
		block, err := b.store.Block(i)
		if err != nil {
			fmt.Fprintf(w, "%*d: [unavailable: %v]\n", paddingWidth, i, err)
			continue
		}
		if i == b.blockCount-1 {
			block = block[:b.lastFill]
		}
		fmt.Fprintf(w, "%*d: [% x]\n", paddingWidth, i, block)
	}
}
