// Package blftest builds BLF files in memory for tests.
package blftest

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"
)

// Object type codes used by the helpers.
const (
	TypeCANMessage     = 1
	TypeCANError       = 2
	TypeCANOverload    = 3
	TypeLogContainer   = 10
	TypeAppText        = 65
	TypeCANErrorExt    = 73
	TypeCANMessage2    = 86
	TypeGlobalMarker   = 96
	TypeCANFDMessage   = 100
	TypeCANFDMessage64 = 101
)

// Time flags for the version 1 object header.
const (
	TimeTenMicros = 0x1
	TimeOneNanos  = 0x2
)

// Object returns a complete object record with a version 1 header, nanosecond
// timestamp and trailing alignment padding.
func Object(objType uint32, timestamp uint64, body []byte) []byte {
	return ObjectWithFlags(objType, TimeOneNanos, timestamp, body)
}

// ObjectWithFlags is Object with explicit time flags.
func ObjectWithFlags(objType uint32, flags uint32, timestamp uint64, body []byte) []byte {
	const headerSize = 32
	size := headerSize + len(body)
	var b bytes.Buffer
	b.WriteString("LOBJ")
	put(&b, uint16(headerSize), uint16(1), uint32(size), objType)
	put(&b, flags, uint16(0), uint16(0), timestamp)
	b.Write(body)
	b.Write(make([]byte, size%4))
	return b.Bytes()
}

// ObjectV2 returns an object record with a version 2 header.
func ObjectV2(objType uint32, flags uint32, timestamp uint64, body []byte) []byte {
	const headerSize = 40
	size := headerSize + len(body)
	var b bytes.Buffer
	b.WriteString("LOBJ")
	put(&b, uint16(headerSize), uint16(2), uint32(size), objType)
	put(&b, flags, uint8(0), uint8(0), uint16(0), timestamp, uint64(0))
	b.Write(body)
	b.Write(make([]byte, size%4))
	return b.Bytes()
}

// CANMessage returns a CAN_MESSAGE body.
func CANMessage(channel uint16, flags uint8, id uint32, data []byte) []byte {
	var b bytes.Buffer
	put(&b, channel, flags, uint8(len(data)), id)
	b.Write(fixed(data, 8))
	return b.Bytes()
}

// CANFDMessage returns a CAN_FD_MESSAGE body. dlc is written as given.
func CANFDMessage(channel uint16, flags uint8, fdFlags uint8, dlc uint8, id uint32, data []byte) []byte {
	var b bytes.Buffer
	put(&b, channel, flags, dlc, id, uint32(0), uint8(0), fdFlags, uint8(len(data)))
	b.Write(make([]byte, 5))
	b.Write(fixed(data, 64))
	return b.Bytes()
}

// CANFDMessage64 returns a CAN_FD_MESSAGE_64 body.
func CANFDMessage64(channel uint8, dlc uint8, flags uint32, dir uint8, id uint32, data []byte) []byte {
	var b bytes.Buffer
	put(&b, channel, dlc, uint8(len(data)), uint8(0), id, uint32(0), flags)
	b.Write(make([]byte, 16))
	put(&b, uint16(0), dir, uint8(0), uint32(0))
	b.Write(data)
	return b.Bytes()
}

// CANError returns a CAN_ERROR body.
func CANError(channel uint16, length uint16) []byte {
	var b bytes.Buffer
	put(&b, channel, length, uint32(0))
	return b.Bytes()
}

// CANErrorExt returns a CAN_ERROR_EXT body.
func CANErrorExt(channel uint16, ecc uint8, position uint8, id uint32, data []byte) []byte {
	var b bytes.Buffer
	put(&b, channel, uint16(0), uint32(0), ecc, position, uint8(len(data)), uint8(0), uint32(0), id, uint16(0), uint16(0))
	b.Write(fixed(data, 8))
	return b.Bytes()
}

// CANOverload returns a CAN_OVERLOAD body.
func CANOverload(channel uint16) []byte {
	var b bytes.Buffer
	put(&b, channel, uint16(0))
	return b.Bytes()
}

// AppText returns an APP_TEXT body holding text as raw bytes.
func AppText(source uint32, text []byte) []byte {
	var b bytes.Buffer
	put(&b, source, uint32(0), uint32(len(text)), uint32(0))
	b.Write(text)
	return b.Bytes()
}

// GlobalMarker returns a GLOBAL_MARKER body.
func GlobalMarker(group, name, description string) []byte {
	var b bytes.Buffer
	put(&b, uint32(1), uint32(0xff0000), uint32(0x00ff00), uint8(1), uint8(0), uint16(0),
		uint32(len(group)), uint32(len(name)), uint32(len(description)), uint32(0), uint64(0))
	b.WriteString(group)
	b.WriteString(name)
	b.WriteString(description)
	return b.Bytes()
}

// Container returns a LOG_CONTAINER record holding payload.
func Container(compress bool, payload []byte) []byte {
	return ContainerSized(compress, uint32(len(payload)), payload)
}

// ContainerSized is Container with an explicit declared uncompressed size.
func ContainerSized(compress bool, declared uint32, payload []byte) []byte {
	method := uint16(0)
	data := payload
	if compress {
		method = 2
		data = Deflate(payload)
	}
	size := 32 + len(data)
	var b bytes.Buffer
	b.WriteString("LOBJ")
	put(&b, uint16(16), uint16(1), uint32(size), uint32(TypeLogContainer))
	put(&b, method)
	b.Write(make([]byte, 6))
	put(&b, declared)
	b.Write(make([]byte, 4))
	b.Write(data)
	b.Write(make([]byte, size%4))
	return b.Bytes()
}

// Deflate zlib compresses p.
func Deflate(p []byte) []byte {
	var b bytes.Buffer
	zw := zlib.NewWriter(&b)
	_, _ = zw.Write(p)
	_ = zw.Close()
	return b.Bytes()
}

// File assembles a BLF file from raw records.
type File struct {
	Signature   string
	Version     [4]uint8
	ObjectCount uint32
	Start       [8]uint16
	Records     [][]byte
}

// NewFile returns a File with a valid signature and version 2.6.8.1.
func NewFile(objectCount uint32, records ...[]byte) *File {
	return &File{
		Signature:   "LOGG",
		Version:     [4]uint8{2, 6, 8, 1},
		ObjectCount: objectCount,
		Start:       [8]uint16{2024, 5, 3, 17, 12, 30, 15, 250},
		Records:     records,
	}
}

// Bytes encodes the file header followed by the records.
func (f *File) Bytes() []byte {
	var body bytes.Buffer
	for _, r := range f.Records {
		body.Write(r)
	}
	const headerSize = 144
	var b bytes.Buffer
	b.WriteString(f.Signature)
	put(&b, uint32(headerSize), uint8(5), uint8(0), uint8(0), uint8(0))
	b.Write(f.Version[:])
	put(&b, uint64(headerSize+body.Len()), uint64(headerSize+body.Len()), f.ObjectCount, uint32(0))
	put(&b, f.Start, f.Start)
	b.Write(make([]byte, headerSize-b.Len()))
	b.Write(body.Bytes())
	return b.Bytes()
}

// WriteFile writes the file into a temporary directory and returns its path.
func (f *File) WriteFile(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.blf")
	if err := os.WriteFile(path, f.Bytes(), 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// Concat joins records into one payload.
func Concat(records ...[]byte) []byte {
	return bytes.Join(records, nil)
}

func put(b *bytes.Buffer, values ...any) {
	for _, v := range values {
		_ = binary.Write(b, binary.LittleEndian, v)
	}
}

func fixed(data []byte, n int) []byte {
	out := make([]byte, n)
	copy(out, data)
	return out
}
