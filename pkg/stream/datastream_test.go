// tests for datastream.go
package stream

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestNewDataStream(t *testing.T) {
	data := []uint8{1, 2, 3, 4, 5}
	stream := NewDataStream(data)

	assert.Equal(t, data, stream.data)
	assert.Equal(t, 0, stream.Offset())
	assert.Equal(t, 5, stream.Remaining())
	assert.Equal(t, 5, stream.Len())
}

func TestDataStream_ReadNumerics(t *testing.T) {
	stream := NewDataStream([]uint8{
		0x12,
		0x34, 0x12,
		0x78, 0x56, 0x34, 0x12,
		0xef, 0xcd, 0xab, 0x89, 0x67, 0x45, 0x23, 0x01,
	})

	u8, err := stream.ReadUint8()
	assert.NoError(t, err)
	assert.Equal(t, uint8(0x12), u8)

	u16, err := stream.ReadUint16()
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	u32, err := stream.ReadUint32()
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), u32)

	u64, err := stream.ReadUint64()
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x0123456789abcdef), u64)

	assert.Equal(t, 0, stream.Remaining())
}

func TestDataStream_FailedReadDoesNotAdvance(t *testing.T) {
	tests := []struct {
		name string
		read func(*DataStream) error
	}{
		{"uint16", func(s *DataStream) error { _, err := s.ReadUint16(); return err }},
		{"uint32", func(s *DataStream) error { _, err := s.ReadUint32(); return err }},
		{"uint64", func(s *DataStream) error { _, err := s.ReadUint64(); return err }},
		{"bytes", func(s *DataStream) error { _, err := s.ReadBytes(4); return err }},
		{"peek", func(s *DataStream) error { _, err := s.Peek(4); return err }},
		{"skip", func(s *DataStream) error { return s.Skip(4) }},
		{"negative", func(s *DataStream) error { _, err := s.ReadBytes(-1); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream := NewDataStream([]uint8{1, 2, 3, 4})
			assert.NoError(t, stream.Skip(1))

			err := tt.read(stream)
			assert.True(t, errors.Is(err, ErrOutOfBounds), "got %v", err)
			assert.Equal(t, 1, stream.Offset())
			assert.Equal(t, 3, stream.Remaining())
		})
	}
}

func TestDataStream_ReadBytesIsView(t *testing.T) {
	data := []uint8{1, 2, 3, 4}
	stream := NewDataStream(data)

	b, err := stream.ReadBytes(2)
	assert.NoError(t, err)
	assert.Equal(t, []uint8{1, 2}, b)
	assert.Equal(t, 2, cap(b))

	data[0] = 9
	assert.Equal(t, uint8(9), b[0])
}

func TestDataStream_PeekAndSeek(t *testing.T) {
	stream := NewDataStream([]uint8{'L', 'O', 'B', 'J', 0x10, 0x00})

	sig, err := stream.Peek(4)
	assert.NoError(t, err)
	assert.Equal(t, "LOBJ", string(sig))
	assert.Equal(t, 0, stream.Offset())

	assert.NoError(t, stream.Seek(4))
	v, err := stream.ReadUint16()
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x10), v)

	assert.NoError(t, stream.Seek(stream.Len()))
	assert.Equal(t, 0, stream.Remaining())

	err = stream.Seek(7)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
	err = stream.Seek(-1)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
	assert.Equal(t, 6, stream.Offset())
}
