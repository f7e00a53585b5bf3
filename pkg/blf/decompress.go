package blf

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
)

// Container compression methods.
const (
	CompressionNone uint16 = 0
	CompressionZlib uint16 = 2
)

// Inflate decompresses the zlib stream in src into exactly size bytes. dst is reused
// when it has enough capacity. Corrupt input, a bad checksum, or output of any other
// length fails with ErrDecompression.
func Inflate(dst, src []uint8, size int) ([]uint8, error) {
	zr, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, errors.Wrapf(ErrDecompression, "zlib header: %v", err)
	}
	defer zr.Close()

	if cap(dst) < size {
		dst = make([]uint8, size)
	}
	dst = dst[:size]
	n, err := io.ReadFull(zr, dst)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return nil, errors.Wrapf(ErrDecompression, "inflated %d bytes, expected %d", n, size)
	}
	if err != nil {
		return nil, errors.Wrapf(ErrDecompression, "inflate: %v", err)
	}

	// Reading on to EOF verifies the checksum and catches surplus output.
	extra, err := io.Copy(io.Discard, io.LimitReader(zr, 1))
	if err != nil {
		return nil, errors.Wrapf(ErrDecompression, "inflate: %v", err)
	}
	if extra != 0 {
		return nil, errors.Wrapf(ErrDecompression, "inflated more than the expected %d bytes", size)
	}
	return dst, nil
}
