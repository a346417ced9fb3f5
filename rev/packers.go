package rev

import (
	"bytes"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zlib"
)

// newPacker maps a Compression policy onto its Packer implementation.
func newPacker(c Compression) Packer {
	switch c {
	case Zlib:
		return &zlibPacker{}
	case Snappy:
		return &snappyPacker{}
	default:
		return identityPacker{}
	}
}

// identityPacker stores blocks verbatim.
type identityPacker struct{}

func (identityPacker) Pack(src []byte) []byte {
	out := make([]byte, len(src))
	copy(out, src)

	return out
}

func (identityPacker) Unpack(packed []byte, dst []byte) error {
	if len(packed) != len(dst) {
		return fmt.Errorf("%w: have %d bytes, want %d", ErrCorruptBlock, len(packed), len(dst))
	}
	copy(dst, packed)

	return nil
}

// zlibPacker compresses blocks with DEFLATE. The encoder is reused across
// blocks; Pack is only called at block boundaries so the reset cost amortises.
type zlibPacker struct {
	buf bytes.Buffer
	enc *zlib.Writer
}

func (p *zlibPacker) Pack(src []byte) []byte {
	p.buf.Reset()
	if p.enc == nil {
		p.enc = zlib.NewWriter(&p.buf)
	} else {
		p.enc.Reset(&p.buf)
	}
	if _, err := p.enc.Write(src); err != nil {
		panic(fmt.Sprintf("rev: zlib pack: %v", err))
	}
	if err := p.enc.Close(); err != nil {
		panic(fmt.Sprintf("rev: zlib pack: %v", err))
	}
	out := make([]byte, p.buf.Len())
	copy(out, p.buf.Bytes())

	return out
}

func (p *zlibPacker) Unpack(packed []byte, dst []byte) error {
	dec, err := zlib.NewReader(bytes.NewReader(packed))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptBlock, err)
	}
	defer dec.Close()

	if _, err = io.ReadFull(dec, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptBlock, err)
	}

	return nil
}

// snappyPacker compresses blocks with snappy. Faster than zlib, larger output.
type snappyPacker struct {
	scratch []byte
}

func (p *snappyPacker) Pack(src []byte) []byte {
	p.scratch = snappy.Encode(p.scratch[:0], src)
	out := make([]byte, len(p.scratch))
	copy(out, p.scratch)

	return out
}

func (p *snappyPacker) Unpack(packed []byte, dst []byte) error {
	decoded, err := snappy.Decode(dst, packed)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptBlock, err)
	}
	if len(decoded) != len(dst) {
		return fmt.Errorf("%w: have %d bytes, want %d", ErrCorruptBlock, len(decoded), len(dst))
	}
	// snappy.Decode may have allocated its own buffer if dst was too small.
	if &decoded[0] != &dst[0] {
		copy(dst, decoded)
	}

	return nil
}
