package blf

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/boatkit-io/blf/pkg/stream"
)

// containerHeaderSize is the log container header that follows the object header.
const containerHeaderSize = 16

// ContainerHeader describes one log container.
type ContainerHeader struct {
	ObjectHeader

	// Timestamp is only present when the container carries a version 1 or 2 header.
	Timestamp uint64

	CompressionMethod uint16
	UncompressedSize  uint32

	// CompressedSize is the number of payload bytes stored in the file.
	CompressedSize uint32
}

// Compressed reports whether the payload has to be inflated.
func (c ContainerHeader) Compressed() bool {
	return c.CompressionMethod != CompressionNone
}

// parseContainerHeader reads the container header from a complete container record.
func parseContainerHeader(hdr ObjectHeader, rec []uint8) (ContainerHeader, []uint8, error) {
	ch := ContainerHeader{ObjectHeader: hdr}

	timing := RawObject{ObjectHeader: hdr}
	if err := timing.readTiming(rec); err != nil {
		return ch, nil, err
	}
	ch.Timestamp = timing.Timestamp

	s := stream.NewDataStream(rec)
	_ = s.Seek(int(hdr.HeaderSize))
	if s.Remaining() < containerHeaderSize {
		return ch, nil, errors.Wrapf(ErrMalformedObject, "container of %d bytes has no room for its %d byte header", hdr.ObjectSize, containerHeaderSize)
	}
	ch.CompressionMethod, _ = s.ReadUint16()
	_ = s.Skip(6)
	ch.UncompressedSize, _ = s.ReadUint32()
	_ = s.Skip(4)

	payload, _ := s.ReadBytes(s.Remaining())
	ch.CompressedSize = uint32(len(payload))
	return ch, payload, nil
}

// framer reads the top level records of a file one at a time. Its buffers are reused,
// so a returned payload is only valid until the next call.
type framer struct {
	r       io.Reader
	log     *logrus.Logger
	maxSize int
	stats   *Stats

	// offset is the file offset of the next record.
	offset int64

	record   []uint8
	inflated []uint8
}

func newFramer(r io.Reader, offset int64, maxSize int, log *logrus.Logger, stats *Stats) *framer {
	return &framer{
		r:       r,
		log:     log,
		maxSize: maxSize,
		stats:   stats,
		offset:  offset,
	}
}

// next returns the object bytes carried by the next top level record: the inflated
// payload of a log container, or the record itself for any other object type.
// io.EOF is returned only at a clean record boundary.
func (f *framer) next() ([]uint8, error) {
	start := f.offset
	var base [ObjectHeaderBaseSize]uint8
	n, err := io.ReadFull(f.r, base[:])
	f.offset += int64(n)
	switch {
	case err == io.EOF:
		return nil, io.EOF
	case err == io.ErrUnexpectedEOF && allZero(base[:n]):
		// trailing alignment after the last record
		return nil, io.EOF
	case err == io.ErrUnexpectedEOF:
		return nil, errors.Wrapf(ErrTruncated, "record header at offset %d has %d of %d bytes", start, n, ObjectHeaderBaseSize)
	case err != nil:
		return nil, errors.Wrapf(err, "reading record at offset %d", start)
	}

	hdr, ok := parseObjectHeader(base[:])
	if !ok && allZero(base[:]) {
		zeros, err := f.skipZeros()
		if err == nil {
			f.log.Debugf("%d bytes of zero padding at offset %d end the file", zeros+ObjectHeaderBaseSize, start)
			return nil, io.EOF
		}
		if errors.Cause(err) != ErrBadContainerSignature {
			return nil, err
		}
	}
	if !ok {
		return nil, errors.Wrapf(ErrBadContainerSignature, "offset %d: expected %q, got %q", start, ObjectSignature, base[:len(ObjectSignature)])
	}
	if err := hdr.validate(f.maxSize); err != nil {
		return nil, errors.WithMessagef(err, "offset %d", start)
	}

	size := int(hdr.ObjectSize)
	if cap(f.record) < size {
		f.record = make([]uint8, size)
	}
	rec := f.record[:size]
	copy(rec, base[:])
	n, err = io.ReadFull(f.r, rec[ObjectHeaderBaseSize:])
	f.offset += int64(n)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return nil, errors.Wrapf(ErrTruncated, "%s at offset %d declares %d bytes, file ends after %d", hdr.ObjectType, start, size, ObjectHeaderBaseSize+n)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading record at offset %d", start)
	}

	padding, err := io.CopyN(io.Discard, f.r, int64(hdr.ObjectSize%4))
	f.offset += padding
	if err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "reading record at offset %d", start)
	}

	if hdr.ObjectType != ObjectTypeLogContainer {
		f.log.Debugf("top level %s object at offset %d", hdr.ObjectType, start)
		return rec, nil
	}
	return f.unpack(start, hdr, rec)
}

// unpack returns the object bytes of a container record, inflating them when needed.
func (f *framer) unpack(start int64, hdr ObjectHeader, rec []uint8) ([]uint8, error) {
	ch, payload, err := parseContainerHeader(hdr, rec)
	if err != nil {
		return nil, errors.WithMessagef(err, "container at offset %d", start)
	}

	f.log.WithFields(logrus.Fields{
		"offset":       start,
		"compression":  ch.CompressionMethod,
		"compressed":   ch.CompressedSize,
		"uncompressed": ch.UncompressedSize,
	}).Debug("log container")

	f.stats.Containers++
	f.stats.CompressedBytes += int64(ch.CompressedSize)

	switch ch.CompressionMethod {
	case CompressionNone:
		f.stats.UncompressedBytes += int64(len(payload))
		return payload, nil
	case CompressionZlib:
		if uint64(ch.UncompressedSize) > uint64(f.maxSize) {
			return nil, errors.Wrapf(ErrMalformedObject, "container at offset %d: uncompressed size %d exceeds limit %d", start, ch.UncompressedSize, f.maxSize)
		}
		out, err := Inflate(f.inflated, payload, int(ch.UncompressedSize))
		if err != nil {
			return nil, errors.WithMessagef(err, "container at offset %d", start)
		}
		f.inflated = out
		f.stats.UncompressedBytes += int64(len(out))
		return out, nil
	default:
		f.log.Warnf("container at offset %d uses unsupported compression method %d", start, ch.CompressionMethod)
		return nil, errors.Wrapf(ErrDecompression, "container at offset %d: unsupported compression method %d", start, ch.CompressionMethod)
	}
}

// skipZeros consumes the rest of the file. It fails with ErrBadContainerSignature when
// anything but zero bytes follows.
func (f *framer) skipZeros() (int64, error) {
	var buf [512]uint8
	var total int64
	for {
		n, err := f.r.Read(buf[:])
		if !allZero(buf[:n]) {
			return total, errors.Wrapf(ErrBadContainerSignature, "data after %d zero bytes at offset %d", total+ObjectHeaderBaseSize, f.offset-ObjectHeaderBaseSize)
		}
		total += int64(n)
		f.offset += int64(n)
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, errors.Wrapf(err, "reading padding at offset %d", f.offset)
		}
	}
}

func allZero(b []uint8) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
