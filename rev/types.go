// Package rev: trail configuration. This file defines the Compression policy
// enum, sentinel errors, functional options with documented defaults, and the
// Packer contract implemented by packers.go.
package rev

import "errors"

// Compression selects the packer applied to completed trail blocks.
type Compression int

const (
	// NoCompression stores completed blocks verbatim. Default.
	NoCompression Compression = iota

	// Zlib compresses completed blocks with DEFLATE (klauspost/compress).
	Zlib

	// Snappy compresses completed blocks with snappy framing-less blocks.
	Snappy
)

// DefaultBlockSize is the number of saves per trail block.
const DefaultBlockSize = 8000

var (
	// ErrCorruptBlock is returned by a Packer when a packed block cannot be
	// restored to its original length.
	ErrCorruptBlock = errors.New("rev: corrupt packed block")
)

// Packer converts a completed block of raw bytes into its stored form and
// back. Pack may retain no reference to src. Unpack must write exactly
// len(dst) bytes or report ErrCorruptBlock (possibly wrapped).
type Packer interface {
	Pack(src []byte) []byte
	Unpack(packed []byte, dst []byte) error
}

// Option configures a Trail. Use with NewTrail(opts...).
type Option func(*Options)

// Options holds Trail parameters gathered from Option values.
type Options struct {
	// BlockSize is the number of saves per block. Must be positive.
	BlockSize int

	// Compression selects the packer for completed blocks.
	Compression Compression
}

// DefaultOptions returns the documented defaults: DefaultBlockSize saves per
// block and no compression.
func DefaultOptions() Options {
	return Options{
		BlockSize:   DefaultBlockSize,
		Compression: NoCompression,
	}
}

// WithBlockSize sets the number of saves per block.
// Panics if n is not positive (programmer error).
func WithBlockSize(n int) Option {
	if n <= 0 {
		panic("rev: block size must be positive")
	}

	return func(o *Options) { o.BlockSize = n }
}

// WithCompression selects the packer for completed blocks.
// Panics on an unknown Compression value (programmer error).
func WithCompression(c Compression) Option {
	if c != NoCompression && c != Zlib && c != Snappy {
		panic("rev: unknown compression policy")
	}

	return func(o *Options) { o.Compression = c }
}

func gatherOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	return o
}
