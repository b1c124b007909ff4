package blockbuf

import "sync"

// readerPool represents a pool of reusable reader objects.
type readerPool[S BlockStorer] struct {
	pool sync.Pool
}

func newReaderPool[S BlockStorer](b *Buffer[S]) *readerPool[S] {
	return &readerPool[S]{
		pool: sync.Pool{
			New: func() any {
				return NewReader(b)
			},
		},
	}
}

// Get retrieves a reader from the pool or creates a new one.
func (p *readerPool[S]) Get() *Reader[S] {
	return p.pool.Get().(*Reader[S])
}

// Put resets a reader and returns it to the pool for reuse.
func (p *readerPool[S]) Put(r *Reader[S]) {
	p.pool.Put(r.Reset())
}
