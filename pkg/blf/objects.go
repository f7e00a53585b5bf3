package blf

import (
	"time"

	"github.com/pkg/errors"

	"github.com/boatkit-io/blf/pkg/stream"
)

const (
	// ObjectSignature starts every object header, containers included.
	ObjectSignature = "LOBJ"

	// ObjectHeaderBaseSize is the size of the header part common to every object.
	ObjectHeaderBaseSize = 16

	objectHeaderV1Size = 16
	objectHeaderV2Size = 24
)

// Timestamp unit flags in the version 1 and 2 object headers.
const (
	timeTenMicros = 0x00000001
	timeOneNanos  = 0x00000002
)

// TimeUnit is the unit of an object's raw timestamp.
type TimeUnit uint8

const (
	TimeUnitNanos TimeUnit = iota
	TimeUnitTenMicros
)

func (u TimeUnit) String() string {
	if u == TimeUnitTenMicros {
		return "10us"
	}
	return "ns"
}

// Duration converts a raw timestamp count in this unit to nanoseconds.
func (u TimeUnit) Duration(count uint64) time.Duration {
	if u == TimeUnitTenMicros {
		return time.Duration(count) * 10 * time.Microsecond
	}
	return time.Duration(count)
}

// errNeedMore tells the iterator the current payload has no complete object left.
var errNeedMore = errors.New("need more data")

// ObjectHeader is the header part shared by every object.
type ObjectHeader struct {
	HeaderSize    uint16
	HeaderVersion uint16
	ObjectSize    uint32
	ObjectType    ObjectType
}

// parseObjectHeader decodes a base header. ok is false when the signature does not match.
func parseObjectHeader(b []uint8) (hdr ObjectHeader, ok bool) {
	s := stream.NewDataStream(b)
	sig, err := s.ReadBytes(len(ObjectSignature))
	if err != nil || string(sig) != ObjectSignature {
		return hdr, false
	}
	if s.Remaining() < ObjectHeaderBaseSize-len(ObjectSignature) {
		return hdr, false
	}
	hdr.HeaderSize, _ = s.ReadUint16()
	hdr.HeaderVersion, _ = s.ReadUint16()
	hdr.ObjectSize, _ = s.ReadUint32()
	typ, _ := s.ReadUint32()
	hdr.ObjectType = ObjectType(typ)
	return hdr, true
}

// validate checks the declared sizes against each other and against maxSize.
func (h ObjectHeader) validate(maxSize int) error {
	if h.HeaderSize < ObjectHeaderBaseSize {
		return errors.Wrapf(ErrMalformedObject, "%s header size %d is smaller than %d", h.ObjectType, h.HeaderSize, ObjectHeaderBaseSize)
	}
	if h.ObjectSize < uint32(h.HeaderSize) {
		return errors.Wrapf(ErrMalformedObject, "%s object size %d is smaller than its header size %d", h.ObjectType, h.ObjectSize, h.HeaderSize)
	}
	if uint64(h.ObjectSize) > uint64(maxSize) {
		return errors.Wrapf(ErrMalformedObject, "%s object size %d exceeds limit %d", h.ObjectType, h.ObjectSize, maxSize)
	}
	return nil
}

// RawObject is one framed object: its headers and a view of its body. It is only valid
// until the iterator moves to the next container.
type RawObject struct {
	ObjectHeader

	Flags             uint32
	ClientIndex       uint16
	ObjectVersion     uint16
	TimestampStatus   uint8
	Timestamp         uint64
	OriginalTimestamp uint64

	// UnknownHeader is set when HeaderVersion is neither 1 nor 2; the timing fields are zero.
	UnknownHeader bool

	Data []uint8
}

// TimeUnit returns the unit of Timestamp.
func (o *RawObject) TimeUnit() TimeUnit {
	if o.Flags&timeTenMicros != 0 {
		return TimeUnitTenMicros
	}
	return TimeUnitNanos
}

// Time returns the object timestamp in nanoseconds from measurement start.
func (o *RawObject) Time() time.Duration {
	return o.TimeUnit().Duration(o.Timestamp)
}

// readTiming parses the version specific header that follows the base header in rec.
// A header that is exactly the base size carries no timing at all.
func (o *RawObject) readTiming(rec []uint8) error {
	s := stream.NewDataStream(rec[:o.HeaderSize])
	_ = s.Seek(ObjectHeaderBaseSize)
	if s.Remaining() == 0 {
		return nil
	}
	switch o.HeaderVersion {
	case 1:
		if s.Remaining() < objectHeaderV1Size {
			return errors.Wrapf(ErrMalformedObject, "%s v1 header needs %d bytes, have %d", o.ObjectType, ObjectHeaderBaseSize+objectHeaderV1Size, o.HeaderSize)
		}
		o.Flags, _ = s.ReadUint32()
		o.ClientIndex, _ = s.ReadUint16()
		o.ObjectVersion, _ = s.ReadUint16()
		o.Timestamp, _ = s.ReadUint64()
	case 2:
		if s.Remaining() < objectHeaderV2Size {
			return errors.Wrapf(ErrMalformedObject, "%s v2 header needs %d bytes, have %d", o.ObjectType, ObjectHeaderBaseSize+objectHeaderV2Size, o.HeaderSize)
		}
		o.Flags, _ = s.ReadUint32()
		o.TimestampStatus, _ = s.ReadUint8()
		_ = s.Skip(1)
		o.ObjectVersion, _ = s.ReadUint16()
		o.Timestamp, _ = s.ReadUint64()
		o.OriginalTimestamp, _ = s.ReadUint64()
	default:
		o.UnknownHeader = true
	}
	return nil
}

// objectStream frames the objects inside container payloads. An object that runs past
// the end of one payload is carried over and completed from the next one. Alignment
// padding between objects is zero filled and skipped by skipPadding. A zero filled tail
// of any length is held back until the next payload shows whether data follows it.
type objectStream struct {
	s *stream.DataStream
}

// retain copies unconsumed bytes out of the framer's buffers before they are reused.
func (o *objectStream) retain() {
	if o.s == nil || o.s.Remaining() == 0 {
		o.s = nil
		return
	}
	tail, _ := o.s.ReadBytes(o.s.Remaining())
	o.s = stream.NewDataStream(append([]uint8(nil), tail...))
}

// feed appends the next payload. Unconsumed bytes retained from the previous payload
// are copied in front of it.
func (o *objectStream) feed(payload []uint8) {
	if o.s != nil && o.s.Remaining() > 0 {
		tail, _ := o.s.ReadBytes(o.s.Remaining())
		buf := make([]uint8, 0, len(tail)+len(payload))
		buf = append(buf, tail...)
		payload = append(buf, payload...)
	}
	o.s = stream.NewDataStream(payload)
}

// pending returns the number of unconsumed bytes that are not alignment padding. A
// remainder of nothing but zeros counts as padding whatever its length.
func (o *objectStream) pending() int {
	if o.s == nil {
		return 0
	}
	o.skipPadding()
	if o.zeroTail() {
		return 0
	}
	return o.s.Remaining()
}

// zeroTail reports whether every unconsumed byte is zero.
func (o *objectStream) zeroTail() bool {
	rest, _ := o.s.Peek(o.s.Remaining())
	return allZero(rest)
}

// skipPadding skips a run of zero bytes shorter than one base header.
func (o *objectStream) skipPadding() {
	rest, _ := o.s.Peek(o.s.Remaining())
	zeros := 0
	for zeros < len(rest) && rest[zeros] == 0 {
		zeros++
	}
	if zeros > 0 && zeros < ObjectHeaderBaseSize {
		_ = o.s.Skip(zeros)
	}
}

// next frames the next object, or returns errNeedMore when the payload holds no
// complete object.
func (o *objectStream) next(maxSize int) (*RawObject, error) {
	if o.s == nil {
		return nil, errNeedMore
	}
	o.skipPadding()
	s := o.s
	if s.Remaining() < ObjectHeaderBaseSize || o.zeroTail() {
		// a zero filled tail is either end of file padding or a malformed run once more
		// data follows
		return nil, errNeedMore
	}
	offset := s.Offset()
	b, _ := s.Peek(ObjectHeaderBaseSize)
	hdr, ok := parseObjectHeader(b)
	if !ok {
		return nil, errors.Wrapf(ErrMalformedObject, "payload offset %d: expected %q, got %q", offset, ObjectSignature, b[:len(ObjectSignature)])
	}
	if err := hdr.validate(maxSize); err != nil {
		return nil, errors.WithMessagef(err, "payload offset %d", offset)
	}
	if s.Remaining() < int(hdr.ObjectSize) {
		return nil, errNeedMore
	}
	rec, _ := s.ReadBytes(int(hdr.ObjectSize))
	obj := &RawObject{
		ObjectHeader: hdr,
		Data:         rec[hdr.HeaderSize:],
	}
	if err := obj.readTiming(rec); err != nil {
		return nil, errors.WithMessagef(err, "payload offset %d", offset)
	}
	return obj, nil
}
