package blf

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/boatkit-io/blf/pkg/stream"
)

const (
	// FileSignature starts every BLF file.
	FileSignature = "LOGG"

	// FileHeaderSize is the header size written by current loggers. Readers honour the
	// size declared in the header instead.
	FileHeaderSize = 144

	// fileHeaderFixedSize is the part of the header this package understands.
	fileHeaderFixedSize = 72

	// MaxFormatMajor is the newest format major version this package reads.
	MaxFormatMajor = 4
)

// Version is a four part version number as stored in the file header.
type Version struct {
	Major uint8
	Minor uint8
	Build uint8
	Patch uint8
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Build, v.Patch)
}

// Application identifies the program that wrote the file.
type Application struct {
	ID    uint8
	Major uint8
	Minor uint8
	Build uint8
}

var applicationNames = map[uint8]string{
	0: "Unknown",
	1: "CANalyzer",
	2: "CANoe",
	3: "CANstress",
	4: "CANlog",
	5: "CANape",
	6: "CANcaseXL log",
	7: "Vector Logger Configurator",
}

func (a Application) String() string {
	name, ok := applicationNames[a.ID]
	if !ok {
		name = fmt.Sprintf("application %d", a.ID)
	}
	return fmt.Sprintf("%s %d.%d.%d", name, a.Major, a.Minor, a.Build)
}

// SystemTime is the broken down date and time layout used for the measurement
// start and stop times.
type SystemTime struct {
	Year        uint16
	Month       uint16
	DayOfWeek   uint16
	Day         uint16
	Hour        uint16
	Minute      uint16
	Second      uint16
	Millisecond uint16
}

// IsZero reports whether the structure was left empty by the writer.
func (t SystemTime) IsZero() bool {
	return t == SystemTime{}
}

// Time converts to a UTC time.Time. An empty structure converts to the zero time.
func (t SystemTime) Time() time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return time.Date(int(t.Year), time.Month(t.Month), int(t.Day), int(t.Hour), int(t.Minute), int(t.Second),
		int(t.Millisecond)*int(time.Millisecond), time.UTC)
}

func readSystemTime(s *stream.DataStream) (SystemTime, error) {
	var fields [8]uint16
	for i := range fields {
		v, err := s.ReadUint16()
		if err != nil {
			return SystemTime{}, err
		}
		fields[i] = v
	}
	return SystemTime{
		Year:        fields[0],
		Month:       fields[1],
		DayOfWeek:   fields[2],
		Day:         fields[3],
		Hour:        fields[4],
		Minute:      fields[5],
		Second:      fields[6],
		Millisecond: fields[7],
	}, nil
}

// FileHeader is the file level header. It is immutable once parsed.
type FileHeader struct {
	HeaderSize       uint32
	Application      Application
	FormatVersion    Version
	FileSize         uint64
	UncompressedSize uint64
	ObjectCount      uint32
	ObjectsRead      uint32
	Start            SystemTime
	Stop             SystemTime
}

// ParseFileHeader parses the fixed part of a file header from s. The signature is
// checked before anything else so a short non-BLF input reports ErrBadMagic.
func ParseFileHeader(s *stream.DataStream) (*FileHeader, error) {
	sig, err := s.ReadBytes(len(FileSignature))
	if err != nil {
		return nil, errors.Wrap(ErrTruncated, "file header")
	}
	if string(sig) != FileSignature {
		return nil, errors.Wrapf(ErrBadMagic, "got %q", sig)
	}
	if s.Remaining() < fileHeaderFixedSize-len(FileSignature) {
		return nil, errors.Wrapf(ErrTruncated, "file header needs %d bytes, %d available from its signature on", fileHeaderFixedSize, len(FileSignature)+s.Remaining())
	}

	// The length check above covers every read below.
	h := &FileHeader{}
	h.HeaderSize, _ = s.ReadUint32()
	h.Application.ID, _ = s.ReadUint8()
	h.Application.Major, _ = s.ReadUint8()
	h.Application.Minor, _ = s.ReadUint8()
	h.Application.Build, _ = s.ReadUint8()
	h.FormatVersion.Major, _ = s.ReadUint8()
	h.FormatVersion.Minor, _ = s.ReadUint8()
	h.FormatVersion.Build, _ = s.ReadUint8()
	h.FormatVersion.Patch, _ = s.ReadUint8()
	h.FileSize, _ = s.ReadUint64()
	h.UncompressedSize, _ = s.ReadUint64()
	h.ObjectCount, _ = s.ReadUint32()
	h.ObjectsRead, _ = s.ReadUint32()
	h.Start, _ = readSystemTime(s)
	h.Stop, _ = readSystemTime(s)

	if h.FormatVersion.Major > MaxFormatMajor {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "format version %s, newest supported major is %d", h.FormatVersion, MaxFormatMajor)
	}
	if h.HeaderSize < fileHeaderFixedSize {
		return nil, errors.Wrapf(ErrMalformedObject, "file header size %d is smaller than %d", h.HeaderSize, fileHeaderFixedSize)
	}
	return h, nil
}

// ReadFileHeader reads and parses a file header from r, leaving r positioned at the
// first record after the declared header size.
func ReadFileHeader(r io.Reader) (*FileHeader, error) {
	buf := make([]uint8, fileHeaderFixedSize)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, errors.Wrap(err, "reading file header")
	}
	h, err := ParseFileHeader(stream.NewDataStream(buf[:n]))
	if err != nil {
		return nil, err
	}
	skip := int64(h.HeaderSize) - fileHeaderFixedSize
	copied, err := io.CopyN(io.Discard, r, skip)
	if err == io.EOF {
		return nil, errors.Wrapf(ErrTruncated, "file header declares %d bytes, file has %d", h.HeaderSize, fileHeaderFixedSize+copied)
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading file header")
	}
	return h, nil
}
