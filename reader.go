package blockbuf

import (
	"errors"
	"fmt"
	"io"
)

// Reader is a sequential reader over a buffer's logical contents.
// It implements the [io.Reader], [io.ByteReader] and [io.Seeker] interfaces.
type Reader[S BlockStorer] struct {
	b   *Buffer[S]
	pos int // Logical read offset.
}

func NewReader[S BlockStorer](b *Buffer[S]) *Reader[S] {
	return &Reader[S]{b: b}
}

// Offset returns the logical offset of the next read.
func (r *Reader[S]) Offset() int {
	return r.pos
}

// Reset resets the reader to the start of the buffer.
func (r *Reader[S]) Reset() *Reader[S] {
	r.pos = 0
	return r
}

func (r *Reader[S]) IsEOF() bool {
	return r.pos >= r.b.size
}

// Read reads data from the buffer into p and returns the number of bytes read.
// The error is [io.EOF] when the logical end of the buffer is reached before
// p is filled.
func (r *Reader[S]) Read(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil // No-op.
	}
	if r.pos >= r.b.size {
		return 0, io.EOF
	}
	toRead := min(len(p), r.b.size-r.pos)
	for s := range blockSpans(r.b.blockSize, r.pos, toRead) {
		block, err := r.b.store.Block(s.block)
		if err != nil {
			r.pos += n
			return n, fmt.Errorf("get block %d: %w", s.block, err)
		}
		n += copy(p[n:], block[s.off:s.off+s.n])
	}
	r.pos += n
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// ReadByte reads a single byte from the buffer.
func (r *Reader[S]) ReadByte() (byte, error) {
	if r.pos >= r.b.size {
		return 0, io.EOF
	}
	block, err := r.b.store.Block(r.pos / r.b.blockSize)
	if err != nil {
		return 0, fmt.Errorf("get block: %w", err)
	}
	c := block[r.pos%r.b.blockSize]
	r.pos++
	return c, nil
}

// Seek sets the offset for the next read, modifying the reader's internal
// state. It implements the [io.Seeker] interface.
//
// Seeking to an offset before the start of the buffer is an error. Seeking
// beyond the logical size is allowed; subsequent reads return [io.EOF].
func (r *Reader[S]) Seek(offset int64, whence int) (ret int64, err error) {
	var newOffset int64
	switch whence {
	case io.SeekStart:
		// Offset is relative to the beginning of the buffer.
		newOffset = offset

	case io.SeekCurrent:
		// Offset is relative to the current position.
		newOffset = int64(r.pos) + offset

	case io.SeekEnd:
		// Offset is relative to the end of the buffer.
		newOffset = int64(r.b.size) + offset // Offset is expected to be negative.

	default:
		return 0, errors.New("invalid whence")
	}

	if newOffset < 0 {
		return 0, errors.New("invalid offset: cannot be negative")
	}
	r.pos = int(newOffset)
	return newOffset, nil
}
