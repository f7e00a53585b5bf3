// Package stream provides a bounds-checked little-endian read cursor over a byte buffer.
package stream

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// ErrOutOfBounds is returned when a read asks for more bytes than remain in the stream.
var ErrOutOfBounds = errors.New("read out of bounds")

// DataStream instances provide methods to read fixed width values from a byte buffer.
// byteOffset acts as the read "cursor". A failed read never moves the cursor.
type DataStream struct {
	data []uint8

	byteOffset int
}

// NewDataStream returns a new DataStream positioned at the start of data.
// The stream never modifies data; views returned by ReadBytes and Peek alias it.
func NewDataStream(data []uint8) *DataStream {
	return &DataStream{
		data:       data,
		byteOffset: 0,
	}
}

// Len returns the total length of the underlying buffer.
func (s *DataStream) Len() int {
	return len(s.data)
}

// Offset returns the current cursor position.
func (s *DataStream) Offset() int {
	return s.byteOffset
}

// Remaining returns the number of unread bytes.
func (s *DataStream) Remaining() int {
	return len(s.data) - s.byteOffset
}

// ReadUint8 reads a single byte.
func (s *DataStream) ReadUint8() (uint8, error) {
	return readUnsigned[uint8](s)
}

// ReadUint16 reads a little-endian uint16.
func (s *DataStream) ReadUint16() (uint16, error) {
	return readUnsigned[uint16](s)
}

// ReadUint32 reads a little-endian uint32.
func (s *DataStream) ReadUint32() (uint32, error) {
	return readUnsigned[uint32](s)
}

// ReadUint64 reads a little-endian uint64.
func (s *DataStream) ReadUint64() (uint64, error) {
	return readUnsigned[uint64](s)
}

// ReadBytes returns a view of the next n bytes and advances past them.
func (s *DataStream) ReadBytes(n int) ([]uint8, error) {
	b, err := s.Peek(n)
	if err != nil {
		return nil, err
	}
	s.byteOffset += n
	return b, nil
}

// Peek returns a view of the next n bytes without advancing.
func (s *DataStream) Peek(n int) ([]uint8, error) {
	if err := s.check(n); err != nil {
		return nil, err
	}
	return s.data[s.byteOffset : s.byteOffset+n : s.byteOffset+n], nil
}

// Skip advances the cursor by n bytes.
func (s *DataStream) Skip(n int) error {
	if err := s.check(n); err != nil {
		return err
	}
	s.byteOffset += n
	return nil
}

// Seek moves the cursor to an absolute offset. Seeking to Len() is allowed and leaves
// nothing to read.
func (s *DataStream) Seek(offset int) error {
	if offset < 0 || offset > len(s.data) {
		return errors.Wrapf(ErrOutOfBounds, "seek to %d in stream of length %d", offset, len(s.data))
	}
	s.byteOffset = offset
	return nil
}

// check verifies that n more bytes can be read.
func (s *DataStream) check(n int) error {
	if n < 0 || n > s.Remaining() {
		return errors.Wrapf(ErrOutOfBounds, "read %d bytes at offset %d with %d remaining", n, s.byteOffset, s.Remaining())
	}
	return nil
}

// readUnsigned reads one little-endian value of T's width.
func readUnsigned[T constraints.Unsigned](s *DataStream) (T, error) {
	var v T
	width := binary.Size(v)
	b, err := s.ReadBytes(width)
	if err != nil {
		return 0, err
	}
	for i := width - 1; i >= 0; i-- {
		v = v<<8 | T(b[i])
	}
	return v, nil
}
