package blf

import (
	"bytes"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boatkit-io/blf/internal/blftest"
	"github.com/boatkit-io/blf/pkg/stream"
)

func TestReadFileHeader(t *testing.T) {
	f := blftest.NewFile(42)
	r := bytes.NewReader(append(f.Bytes(), 'L', 'O', 'B', 'J'))

	h, err := ReadFileHeader(r)
	require.NoError(t, err)
	assert.Equal(t, uint32(FileHeaderSize), h.HeaderSize)
	assert.Equal(t, Version{2, 6, 8, 1}, h.FormatVersion)
	assert.Equal(t, "2.6.8.1", h.FormatVersion.String())
	assert.Equal(t, uint8(5), h.Application.ID)
	assert.Equal(t, "CANape 0.0.0", h.Application.String())
	assert.Equal(t, uint32(42), h.ObjectCount)
	assert.Equal(t, uint64(FileHeaderSize), h.FileSize)
	assert.Equal(t, time.Date(2024, 5, 17, 12, 30, 15, 250*int(time.Millisecond), time.UTC), h.Start.Time())

	// the reader is left at the first record
	rest := make([]byte, 4)
	_, err = r.Read(rest)
	require.NoError(t, err)
	assert.Equal(t, "LOBJ", string(rest))
}

func TestReadFileHeaderErrors(t *testing.T) {
	valid := blftest.NewFile(0).Bytes()

	badMagic := blftest.NewFile(0)
	badMagic.Signature = "LOGX"

	tooNew := blftest.NewFile(0)
	tooNew.Version = [4]uint8{MaxFormatMajor + 1, 0, 0, 0}

	smallHeader := append([]byte(nil), valid...)
	smallHeader[4] = 16

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrTruncated},
		{"short signature", []byte("LO"), ErrTruncated},
		{"bad magic", badMagic.Bytes(), ErrBadMagic},
		{"bad magic short file", []byte("PK\x03\x04"), ErrBadMagic},
		{"unsupported version", tooNew.Bytes(), ErrUnsupportedVersion},
		{"truncated fixed part", valid[:40], ErrTruncated},
		{"truncated padding", valid[:100], ErrTruncated},
		{"header size too small", smallHeader, ErrMalformedObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := ReadFileHeader(bytes.NewReader(tt.data))
			assert.Nil(t, h)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestParseFileHeaderTruncatedMessage(t *testing.T) {
	valid := blftest.NewFile(0).Bytes()

	_, err := ReadFileHeader(bytes.NewReader(valid[:40]))
	assert.ErrorContains(t, err, "file header needs 72 bytes, 40 available from its signature on")

	// the header starts part way into the stream
	s := stream.NewDataStream(append(make([]byte, 10), valid[:50]...))
	require.NoError(t, s.Skip(10))
	_, err = ParseFileHeader(s)
	assert.ErrorContains(t, err, "file header needs 72 bytes, 50 available from its signature on")
}

func TestReadFileHeaderAcceptsNewerMinor(t *testing.T) {
	f := blftest.NewFile(0)
	f.Version = [4]uint8{MaxFormatMajor, 99, 99, 99}

	h, err := ReadFileHeader(bytes.NewReader(f.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, uint8(99), h.FormatVersion.Minor)
}

func TestSystemTime(t *testing.T) {
	assert.True(t, SystemTime{}.Time().IsZero())
	assert.True(t, SystemTime{}.IsZero())

	st := SystemTime{Year: 2020, Month: 2, Day: 29, Hour: 23, Minute: 59, Second: 58, Millisecond: 7}
	assert.Equal(t, time.Date(2020, 2, 29, 23, 59, 58, 7000000, time.UTC), st.Time())
}

func TestApplicationString(t *testing.T) {
	assert.Equal(t, "CANoe 12.0.3", Application{ID: 2, Major: 12, Minor: 0, Build: 3}.String())
	assert.Equal(t, "application 99 1.2.3", Application{ID: 99, Major: 1, Minor: 2, Build: 3}.String())
}

func TestObjectTypeNames(t *testing.T) {
	assert.Equal(t, "CAN_MESSAGE", ObjectTypeCANMessage.String())
	assert.Equal(t, "OBJECT_TYPE_999", ObjectType(999).String())

	typ, err := ParseObjectType("APP_TEXT")
	require.NoError(t, err)
	assert.Equal(t, ObjectTypeAppText, typ)

	typ, err = ParseObjectType("101")
	require.NoError(t, err)
	assert.Equal(t, ObjectTypeCANFDMessage64, typ)

	_, err = ParseObjectType("CAN_BOGUS")
	assert.Error(t, err)
}
