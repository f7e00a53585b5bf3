// Package frame defines the decoded, user facing records produced by the BLF reader.
//
// Frame is a closed set of variants: CANData, CANError, CANOverload, LogMessage, Marker and
// Unknown. Consumers switch on the concrete type:
//
//	switch f := fr.(type) {
//	case *frame.CANData:
//	case *frame.LogMessage:
//	case *frame.Unknown:
//	}
package frame

import (
	"fmt"
	"strings"
	"time"

	"github.com/brutella/can"
	"github.com/pkg/errors"
)

// SocketCAN flag bits carried in can.Frame.ID.
const (
	canEFFFlag = 0x80000000
	canRTRFlag = 0x40000000
)

// Header carries the fields every frame shares.
type Header struct {
	// Timestamp is the offset from measurement start, normalized to nanoseconds.
	Timestamp time.Duration

	// ObjectType is the BLF object type code the frame was decoded from.
	ObjectType uint32
}

// Frame is implemented by every decoded record type.
type Frame interface {
	fmt.Stringer

	// FrameHeader returns the shared timestamp and type information.
	FrameHeader() Header

	sealed()
}

// FrameHeader returns the frame's shared header.
func (h Header) FrameHeader() Header {
	return h
}

func (Header) sealed() {}

// CANData is a classic CAN or CAN FD data (or remote) frame.
type CANData struct {
	Header

	Channel  uint16
	ID       uint32 // 11 or 29 bit identifier, flag bits removed
	Extended bool
	Remote   bool
	Transmit bool // recorded as sent by the logging node

	FD                  bool
	BitRateSwitch       bool
	ErrorStateIndicator bool

	DLC  uint8
	Data []uint8
}

// Length returns the number of payload bytes.
func (f *CANData) Length() int {
	return len(f.Data)
}

// CanFrame converts a classic frame into a brutella/can frame. The extended and remote
// flags are encoded in the ID the way SocketCAN expects them.
func (f *CANData) CanFrame() (can.Frame, error) {
	if len(f.Data) > can.MaxFrameDataLength {
		return can.Frame{}, errors.Errorf("frame with %d data bytes does not fit a classic CAN frame", len(f.Data))
	}
	id := f.ID
	if f.Extended {
		id |= canEFFFlag
	}
	if f.Remote {
		id |= canRTRFlag
	}
	cf := can.Frame{
		ID:     id,
		Length: uint8(len(f.Data)),
	}
	copy(cf.Data[:], f.Data)
	return cf, nil
}

func (f *CANData) String() string {
	var flags []string
	if f.Extended {
		flags = append(flags, "X")
	}
	if f.Remote {
		flags = append(flags, "R")
	}
	if f.FD {
		flags = append(flags, "F")
	}
	if f.BitRateSwitch {
		flags = append(flags, "BS")
	}
	if f.ErrorStateIndicator {
		flags = append(flags, "EI")
	}
	dir := "Rx"
	if f.Transmit {
		dir = "Tx"
	}
	idFmt := "%03x"
	if f.Extended {
		idFmt = "%08x"
	}
	return fmt.Sprintf("Timestamp: %s    ID: "+idFmt+"    %-4s %s    DL: %2d    %s    Channel: %d",
		formatTimestamp(f.Timestamp), f.ID, strings.Join(flags, ""), dir, len(f.Data), hexBytes(f.Data), f.Channel)
}

// CANError is an error frame. CAN_ERROR objects only carry the channel and length;
// extended error objects also carry the error code capture and the frame under transmission.
type CANError struct {
	Header

	Channel   uint16
	Length    uint16
	ErrorCode uint8 // error code capture register (ECC)
	Position  uint8
	Flags     uint32
	ID        uint32
	Extended  bool
	DLC       uint8
	Data      []uint8
}

func (f *CANError) String() string {
	return fmt.Sprintf("Timestamp: %s    Error frame    ECC: %02x    Channel: %d",
		formatTimestamp(f.Timestamp), f.ErrorCode, f.Channel)
}

// CANOverload is an overload frame.
type CANOverload struct {
	Header

	Channel uint16
}

func (f *CANOverload) String() string {
	return fmt.Sprintf("Timestamp: %s    Overload frame    Channel: %d", formatTimestamp(f.Timestamp), f.Channel)
}

// LogMessage is a text object written by the logging application.
type LogMessage struct {
	Header

	Source uint32
	Text   string
}

func (f *LogMessage) String() string {
	return fmt.Sprintf("Timestamp: %s    Text: %q", formatTimestamp(f.Timestamp), f.Text)
}

// Marker is a global marker placed in the measurement.
type Marker struct {
	Header

	CommentedEventType uint32
	ForegroundColor    uint32
	BackgroundColor    uint32
	Relocatable        bool
	Group              string
	Name               string
	Description        string
}

func (f *Marker) String() string {
	return fmt.Sprintf("Timestamp: %s    Marker: %s/%s %q", formatTimestamp(f.Timestamp), f.Group, f.Name, f.Description)
}

// Unknown holds an object whose type this package does not decode.
type Unknown struct {
	Header

	TypeCode uint32
	Raw      []uint8
}

func (f *Unknown) String() string {
	return fmt.Sprintf("Timestamp: %s    Unknown object type %d    %d bytes", formatTimestamp(f.Timestamp), f.TypeCode, len(f.Raw))
}

// formatTimestamp renders a duration as fractional seconds.
func formatTimestamp(d time.Duration) string {
	return fmt.Sprintf("%15.6f", d.Seconds())
}

func hexBytes(data []uint8) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, " ")
}
