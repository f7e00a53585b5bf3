package blf

import (
	"bytes"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"

	"github.com/boatkit-io/blf/pkg/frame"
	"github.com/boatkit-io/blf/pkg/stream"
)

// CAN message flag and id bits.
const (
	canMsgFlagTX  = 0x01
	canMsgFlagRTR = 0x80
	canMsgExt     = 0x80000000
	canIDMask     = 0x1FFFFFFF

	canFDFlagEDL = 0x01
	canFDFlagBRS = 0x02
	canFDFlagESI = 0x04

	canFD64FlagRTR = 0x0010
	canFD64FlagEDL = 0x1000
	canFD64FlagBRS = 0x2000
	canFD64FlagESI = 0x4000
)

// Fixed body sizes.
const (
	canMessageSize   = 16
	canErrorSize     = 4
	canOverloadSize  = 2
	canErrorExtSize  = 32
	canFDMessageSize = 84
	canFD64HeadSize  = 40
	appTextHeadSize  = 16
	markerHeadSize   = 40
	classicDataBytes = 8
	fdDataBytes      = 64
)

// decodeFunc turns an object body into a frame. h is already filled in.
type decodeFunc func(h frame.Header, s *stream.DataStream) (frame.Frame, error)

// decoderLookup maps the object types with a typed frame to their decoders.
var decoderLookup = map[ObjectType]decodeFunc{
	ObjectTypeCANMessage:     decodeCANMessage,
	ObjectTypeCANMessage2:    decodeCANMessage,
	ObjectTypeCANError:       decodeCANError,
	ObjectTypeCANOverload:    decodeCANOverload,
	ObjectTypeAppText:        decodeAppText,
	ObjectTypeCANErrorExt:    decodeCANErrorExt,
	ObjectTypeGlobalMarker:   decodeGlobalMarker,
	ObjectTypeCANFDMessage:   decodeCANFDMessage,
	ObjectTypeCANFDMessage64: decodeCANFDMessage64,
}

// IsDecoded reports whether objects of type t decode to a typed frame rather than
// frame.Unknown.
func IsDecoded(t ObjectType) bool {
	_, ok := decoderLookup[t]
	return ok
}

// DecodeObject turns a framed object into a frame. Types without a decoder become
// frame.Unknown. The returned frame never aliases obj.Data.
func DecodeObject(obj *RawObject) (frame.Frame, error) {
	h := frame.Header{
		Timestamp:  obj.Time(),
		ObjectType: uint32(obj.ObjectType),
	}
	decoder, ok := decoderLookup[obj.ObjectType]
	if !ok {
		return &frame.Unknown{
			Header:   h,
			TypeCode: uint32(obj.ObjectType),
			Raw:      clone(obj.Data),
		}, nil
	}
	f, err := decoder(h, stream.NewDataStream(obj.Data))
	if err != nil {
		return nil, errors.WithMessagef(err, "%s", obj.ObjectType)
	}
	return f, nil
}

// need checks that the body holds at least n more bytes.
func need(s *stream.DataStream, n int, what string) error {
	if s.Remaining() < n {
		return errors.Wrapf(ErrMalformedObject, "%s needs %d bytes, body has %d", what, n, s.Remaining())
	}
	return nil
}

func clone(b []uint8) []uint8 {
	return append(make([]uint8, 0, len(b)), b...)
}

// fdPayloadLength returns the data byte count of a CAN FD object. Some writers leave
// valid_data_bytes at zero, then the data length code decides.
func fdPayloadLength(dlc uint8, validBytes uint8) int {
	if validBytes == 0 && dlc != 0 {
		return frame.DLCToLength(dlc, true)
	}
	return int(validBytes)
}

// fdDLC returns dlc, or the code matching length when the writer left dlc at zero.
func fdDLC(dlc uint8, length int) uint8 {
	if dlc == 0 && length > 0 {
		return frame.LengthToDLC(length)
	}
	return dlc
}

func decodeCANMessage(h frame.Header, s *stream.DataStream) (frame.Frame, error) {
	if err := need(s, canMessageSize, "CAN message"); err != nil {
		return nil, err
	}
	channel, _ := s.ReadUint16()
	flags, _ := s.ReadUint8()
	dlc, _ := s.ReadUint8()
	id, _ := s.ReadUint32()
	data, _ := s.ReadBytes(classicDataBytes)

	f := &frame.CANData{
		Header:   h,
		Channel:  channel,
		ID:       id & canIDMask,
		Extended: id&canMsgExt != 0,
		Remote:   flags&canMsgFlagRTR != 0,
		Transmit: flags&canMsgFlagTX != 0,
		DLC:      dlc,
	}
	if f.Remote {
		f.Data = []uint8{}
	} else {
		f.Data = clone(data[:frame.DLCToLength(dlc, false)])
	}
	return f, nil
}

func decodeCANFDMessage(h frame.Header, s *stream.DataStream) (frame.Frame, error) {
	if err := need(s, canFDMessageSize, "CAN FD message"); err != nil {
		return nil, err
	}
	channel, _ := s.ReadUint16()
	flags, _ := s.ReadUint8()
	dlc, _ := s.ReadUint8()
	id, _ := s.ReadUint32()
	_ = s.Skip(4) // frame length in ns
	_ = s.Skip(1) // bit count
	fdFlags, _ := s.ReadUint8()
	validBytes, _ := s.ReadUint8()
	_ = s.Skip(5)
	data, _ := s.ReadBytes(fdDataBytes)

	length := fdPayloadLength(dlc, validBytes)
	if length > fdDataBytes {
		length = fdDataBytes
	}
	f := &frame.CANData{
		Header:              h,
		Channel:             channel,
		ID:                  id & canIDMask,
		Extended:            id&canMsgExt != 0,
		Remote:              flags&canMsgFlagRTR != 0,
		Transmit:            flags&canMsgFlagTX != 0,
		FD:                  fdFlags&canFDFlagEDL != 0,
		BitRateSwitch:       fdFlags&canFDFlagBRS != 0,
		ErrorStateIndicator: fdFlags&canFDFlagESI != 0,
		DLC:                 fdDLC(dlc, length),
		Data:                clone(data[:length]),
	}
	return f, nil
}

func decodeCANFDMessage64(h frame.Header, s *stream.DataStream) (frame.Frame, error) {
	if err := need(s, canFD64HeadSize, "CAN FD 64 message"); err != nil {
		return nil, err
	}
	channel, _ := s.ReadUint8()
	dlc, _ := s.ReadUint8()
	validBytes, _ := s.ReadUint8()
	_ = s.Skip(1) // tx count
	id, _ := s.ReadUint32()
	_ = s.Skip(4) // frame length in ns
	flags, _ := s.ReadUint32()
	_ = s.Skip(16) // arbitration and data phase bit timing, brs and crc delimiter offsets
	_ = s.Skip(2)  // bit count
	dir, _ := s.ReadUint8()
	_ = s.Skip(1) // extended data offset
	_ = s.Skip(4) // crc

	length := fdPayloadLength(dlc, validBytes)
	if validBytes == 0 && length > s.Remaining() {
		length = s.Remaining()
	}
	data, err := s.ReadBytes(length)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedObject, "CAN FD 64 message declares %d data bytes, body has %d", validBytes, s.Remaining())
	}
	f := &frame.CANData{
		Header:              h,
		Channel:             uint16(channel),
		ID:                  id & canIDMask,
		Extended:            id&canMsgExt != 0,
		Remote:              flags&canFD64FlagRTR != 0,
		Transmit:            dir != 0,
		FD:                  flags&canFD64FlagEDL != 0,
		BitRateSwitch:       flags&canFD64FlagBRS != 0,
		ErrorStateIndicator: flags&canFD64FlagESI != 0,
		DLC:                 fdDLC(dlc, length),
		Data:                clone(data),
	}
	return f, nil
}

func decodeCANError(h frame.Header, s *stream.DataStream) (frame.Frame, error) {
	if err := need(s, canErrorSize, "CAN error"); err != nil {
		return nil, err
	}
	channel, _ := s.ReadUint16()
	length, _ := s.ReadUint16()
	return &frame.CANError{
		Header:  h,
		Channel: channel,
		Length:  length,
		Data:    []uint8{},
	}, nil
}

func decodeCANErrorExt(h frame.Header, s *stream.DataStream) (frame.Frame, error) {
	if err := need(s, canErrorExtSize, "CAN extended error"); err != nil {
		return nil, err
	}
	channel, _ := s.ReadUint16()
	length, _ := s.ReadUint16()
	flags, _ := s.ReadUint32()
	ecc, _ := s.ReadUint8()
	position, _ := s.ReadUint8()
	dlc, _ := s.ReadUint8()
	_ = s.Skip(1)
	_ = s.Skip(4) // frame length in ns
	id, _ := s.ReadUint32()
	_ = s.Skip(2) // extended flags
	_ = s.Skip(2)
	data, _ := s.ReadBytes(classicDataBytes)

	return &frame.CANError{
		Header:    h,
		Channel:   channel,
		Length:    length,
		ErrorCode: ecc,
		Position:  position,
		Flags:     flags,
		ID:        id & canIDMask,
		Extended:  id&canMsgExt != 0,
		DLC:       dlc,
		Data:      clone(data[:frame.DLCToLength(dlc, false)]),
	}, nil
}

func decodeCANOverload(h frame.Header, s *stream.DataStream) (frame.Frame, error) {
	if err := need(s, canOverloadSize, "CAN overload"); err != nil {
		return nil, err
	}
	channel, _ := s.ReadUint16()
	return &frame.CANOverload{
		Header:  h,
		Channel: channel,
	}, nil
}

func decodeAppText(h frame.Header, s *stream.DataStream) (frame.Frame, error) {
	if err := need(s, appTextHeadSize, "application text"); err != nil {
		return nil, err
	}
	source, _ := s.ReadUint32()
	_ = s.Skip(4)
	textLength, _ := s.ReadUint32()
	_ = s.Skip(4)

	text, err := readText(s, textLength, "application text")
	if err != nil {
		return nil, err
	}
	return &frame.LogMessage{
		Header: h,
		Source: source,
		Text:   text,
	}, nil
}

func decodeGlobalMarker(h frame.Header, s *stream.DataStream) (frame.Frame, error) {
	if err := need(s, markerHeadSize, "global marker"); err != nil {
		return nil, err
	}
	eventType, _ := s.ReadUint32()
	fg, _ := s.ReadUint32()
	bg, _ := s.ReadUint32()
	relocatable, _ := s.ReadUint8()
	_ = s.Skip(3)
	groupLength, _ := s.ReadUint32()
	markerLength, _ := s.ReadUint32()
	descLength, _ := s.ReadUint32()
	_ = s.Skip(12)

	m := &frame.Marker{
		Header:             h,
		CommentedEventType: eventType,
		ForegroundColor:    fg,
		BackgroundColor:    bg,
		Relocatable:        relocatable != 0,
	}
	var err error
	if m.Group, err = readText(s, groupLength, "marker group"); err != nil {
		return nil, err
	}
	if m.Name, err = readText(s, markerLength, "marker name"); err != nil {
		return nil, err
	}
	if m.Description, err = readText(s, descLength, "marker description"); err != nil {
		return nil, err
	}
	return m, nil
}

// readText reads a length prefixed Windows-1252 string and trims trailing NULs.
func readText(s *stream.DataStream, length uint32, what string) (string, error) {
	if uint64(length) > uint64(s.Remaining()) {
		return "", errors.Wrapf(ErrMalformedObject, "%s declares %d bytes, body has %d", what, length, s.Remaining())
	}
	raw, _ := s.ReadBytes(int(length))
	raw = bytes.TrimRight(raw, "\x00")
	text, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", errors.Wrapf(ErrMalformedObject, "%s: %v", what, err)
	}
	return string(text), nil
}
