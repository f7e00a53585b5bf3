// Package converter provides routines that convert between decoded BLF frames, can.Frames
// and the canboat RAW text format.
package converter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/brutella/can"
	"github.com/pkg/errors"
)

// RawTimeLayout is the timestamp layout of a RAW line.
const RawTimeLayout = "2006-01-02T15:04:05.000Z"

// canIDMask strips the SocketCAN flag bits from can.Frame.ID.
const canIDMask = 0x1FFFFFFF

// CanFrameFromRaw parses one RAW line into a can.Frame and the time it was recorded.
// Lines carry at most 8 data bytes.
func CanFrameFromRaw(in string) (can.Frame, time.Time, error) {
	var f can.Frame
	elems := strings.Split(strings.TrimSpace(in), ",")
	if len(elems) < 6 {
		return f, time.Time{}, errors.New("invalid raw format: insufficient elements")
	}

	ts, err := time.Parse(RawTimeLayout, elems[0])
	if err != nil {
		// older logs only carry whole seconds
		if ts, err = time.Parse(time.RFC3339, elems[0]); err != nil {
			return f, time.Time{}, errors.Wrap(err, "invalid timestamp")
		}
	}
	priority, err := strconv.ParseUint(elems[1], 10, 8)
	if err != nil {
		return f, ts, errors.Wrap(err, "invalid priority")
	}
	pgn, err := strconv.ParseUint(elems[2], 10, 32)
	if err != nil {
		return f, ts, errors.Wrap(err, "invalid pgn")
	}
	source, err := strconv.ParseUint(elems[3], 10, 8)
	if err != nil {
		return f, ts, errors.Wrap(err, "invalid source")
	}
	destination, err := strconv.ParseUint(elems[4], 10, 8)
	if err != nil {
		return f, ts, errors.Wrap(err, "invalid destination")
	}
	length, err := strconv.ParseUint(elems[5], 10, 8)
	if err != nil {
		return f, ts, errors.Wrap(err, "invalid length")
	}
	if length > can.MaxFrameDataLength {
		return f, ts, errors.Errorf("invalid length %d: a frame carries at most %d bytes", length, can.MaxFrameDataLength)
	}
	if int(length) > len(elems)-6 {
		return f, ts, errors.New("invalid raw format: data length exceeds available bytes")
	}

	f.ID = CanIdFromData(uint32(pgn), uint8(source), uint8(priority), uint8(destination))
	f.Length = uint8(length)
	for i := 0; i < int(length); i++ {
		b, err := strconv.ParseUint(elems[i+6], 16, 8)
		if err != nil {
			return f, ts, errors.Wrapf(err, "invalid data byte at position %d", i)
		}
		f.Data[i] = uint8(b)
	}
	return f, ts, nil
}

// CanIdFromData returns an encoded ID from its inputs. The destination only takes the
// PS byte for addressed (PDU1) PGNs; broadcast PGNs ignore it.
func CanIdFromData(pgn uint32, sourceId uint8, priority uint8, destination uint8) uint32 {
	id := uint32(sourceId) | (pgn << 8) | (uint32(priority) << 26)
	if uint8(pgn>>8) < 240 {
		id |= uint32(destination) << 8
	}
	return id
}

// FrameHeader holds the RAW fields packed into a 29 bit CAN identifier.
type FrameHeader struct {
	SourceId uint8
	PGN      uint32
	Priority uint8
	TargetId uint8
}

// DecodeCanId splits an identifier into its RAW fields. Flag bits are ignored.
func DecodeCanId(id uint32) FrameHeader {
	id &= canIDMask
	r := FrameHeader{
		SourceId: uint8(id & 0xFF),
		PGN:      (id & 0x3FFFF00) >> 8,
		Priority: uint8((id & 0x1C000000) >> 26),
	}

	pduFormat := uint8((r.PGN & 0xFF00) >> 8)
	if pduFormat < 240 {
		// addressed PGN, the lower byte is the destination
		r.TargetId = uint8(r.PGN & 0xFF)
		r.PGN &= 0x3FF00
	} else {
		r.TargetId = 255
	}
	return r
}

// RawFromCanFrame returns a RAW line, newline terminated, for a frame recorded at ts.
func RawFromCanFrame(f can.Frame, ts time.Time) string {
	h := DecodeCanId(f.ID)
	var b strings.Builder
	fmt.Fprintf(&b, "%s,%d,%d,%d,%d,%d", ts.UTC().Format(RawTimeLayout), h.Priority, h.PGN, h.SourceId, h.TargetId, f.Length)
	for i := 0; i < int(f.Length) && i < can.MaxFrameDataLength; i++ {
		fmt.Fprintf(&b, ",%02x", f.Data[i])
	}
	b.WriteByte('\n')
	return b.String()
}
