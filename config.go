package blockbuf

import "errors"

const (
	// DefaultBlockSize is the fixed block size used when no configuration is given.
	DefaultBlockSize = 512

	// DefaultSizeMax is the logical size ceiling used when no configuration is given.
	DefaultSizeMax = 1024
)

type Config struct {
	// BlockSize is the fixed size, in bytes, of every block the buffer
	// borrows from its store. Immutable after creation.
	BlockSize int

	// SizeMax is the ceiling on the buffer's logical size, in bytes.
	// Immutable after creation.
	SizeMax int
}

func (c Config) Validate() error {
	var errs []error
	if c.BlockSize <= 0 {
		errs = append(errs, errors.New("invalid config: BlockSize must be > 0"))
	}
	if c.SizeMax < 0 {
		errs = append(errs, errors.New("invalid config: SizeMax must be >= 0"))
	}
	return errors.Join(errs...)
}

func DefaultConfig() Config {
	return Config{
		BlockSize: DefaultBlockSize,
		SizeMax:   DefaultSizeMax,
	}
}
