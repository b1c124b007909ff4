package testutils

import (
	"errors"
	"fmt"
)

var (
	ErrStoreEmpty      = errors.New("mock store is empty")
	ErrBlockOutOfRange = errors.New("mock store: block index is out of range")
	ErrAppendFailed    = errors.New("mock store: append failed")
)

// MockBlockStore is an in-memory block store for testing. It counts store
// operations and can be configured to fail on demand.
type MockBlockStore struct {
	Blocks [][]byte

	// FailAppendAt makes AppendBlock fail once the store holds this many
	// blocks. A value of 0 disables the fault.
	FailAppendAt int
	AppendErr    error // Error returned by a failing AppendBlock; defaults to ErrAppendFailed.
	ReleaseErr   error // If set, ReleaseTailBlock always fails with it.
	BlockErr     error // If set, Block always fails with it.

	appendCalls  int
	releaseCalls int
	closeCalls   int
}

func (s *MockBlockStore) AppendBlock(initial []byte, size int) error {
	s.appendCalls++
	if s.FailAppendAt > 0 && len(s.Blocks) >= s.FailAppendAt {
		if s.AppendErr != nil {
			return s.AppendErr
		}
		return ErrAppendFailed
	}
	block := make([]byte, size)
	copy(block, initial)
	s.Blocks = append(s.Blocks, block)
	return nil
}

func (s *MockBlockStore) ReleaseTailBlock() error {
	s.releaseCalls++
	if s.ReleaseErr != nil {
		return s.ReleaseErr
	}
	if len(s.Blocks) == 0 {
		return ErrStoreEmpty
	}
	s.Blocks = s.Blocks[:len(s.Blocks)-1]
	return nil
}

func (s *MockBlockStore) Block(index int) ([]byte, error) {
	if s.BlockErr != nil {
		return nil, s.BlockErr
	}
	if index < 0 || index >= len(s.Blocks) {
		return nil, fmt.Errorf("%w: [%d] with length %d", ErrBlockOutOfRange, index, len(s.Blocks))
	}
	return s.Blocks[index], nil
}

func (s *MockBlockStore) BlockCount() int {
	return len(s.Blocks)
}

func (s *MockBlockStore) Close() error {
	s.closeCalls++
	s.Blocks = nil
	return nil
}

func (s *MockBlockStore) AppendCalls() int {
	return s.appendCalls
}

func (s *MockBlockStore) ReleaseCalls() int {
	return s.releaseCalls
}

func (s *MockBlockStore) CloseCalls() int {
	return s.closeCalls
}

func (s *MockBlockStore) Reset() {
	s.Blocks = nil
	s.FailAppendAt = 0
	s.AppendErr = nil
	s.ReleaseErr = nil
	s.BlockErr = nil
	s.appendCalls = 0
	s.releaseCalls = 0
	s.closeCalls = 0
}
