package converter

import (
	"bytes"
	"testing"
	"time"

	"github.com/brutella/can"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boatkit-io/blf/pkg/blf"
	"github.com/boatkit-io/blf/pkg/frame"
)

var recorded = time.Date(2023, 1, 21, 0, 4, 17, 125*int(time.Millisecond), time.UTC)

func TestCanFrameFromRaw(t *testing.T) {
	raw := "2023-01-21T00:04:17.125Z,3,127501,224,0,8,00,03,c0,ff,ff,ff,ff,ff"
	f, ts, err := CanFrameFromRaw(raw)
	require.NoError(t, err)
	assert.Equal(t, recorded, ts)
	assert.Equal(t, uint8(8), f.Length)
	assert.Equal(t, [8]uint8{0x00, 0x03, 0xc0, 0xff, 0xff, 0xff, 0xff, 0xff}, f.Data)

	h := DecodeCanId(f.ID)
	assert.Equal(t, FrameHeader{SourceId: 224, PGN: 127501, Priority: 3, TargetId: 255}, h)
}

func TestCanFrameFromRawBroadcast(t *testing.T) {
	tests := []struct {
		name string
		in   string
		id   uint32
		want FrameHeader
	}{
		{"broadcast to 255", "2023-01-21T00:04:17Z,2,130306,35,255,3,01,02,03", 0x09FD0223, FrameHeader{SourceId: 35, PGN: 130306, Priority: 2, TargetId: 255}},
		{"broadcast to 0", "2023-01-21T00:04:17Z,2,130306,35,0,3,01,02,03", 0x09FD0223, FrameHeader{SourceId: 35, PGN: 130306, Priority: 2, TargetId: 255}},
		{"addressed", "2023-01-21T00:04:17Z,6,59904,1,42,3,14,f0,01", 0x18EA2A01, FrameHeader{SourceId: 1, PGN: 59904, Priority: 6, TargetId: 42}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _, err := CanFrameFromRaw(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.id, f.ID)
			assert.Equal(t, tt.want, DecodeCanId(f.ID))
		})
	}
}

func TestCanFrameFromRawWholeSeconds(t *testing.T) {
	f, ts, err := CanFrameFromRaw("2023-01-21T00:04:17Z,2,129026,43,0,2,62,ff")
	require.NoError(t, err)
	assert.Equal(t, recorded.Truncate(time.Second), ts)
	assert.Equal(t, uint8(2), f.Length)
}

func TestCanFrameFromRawErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"too few fields", "2023-01-21T00:04:17Z,3,127501"},
		{"bad timestamp", "yesterday,3,127501,224,0,1,00"},
		{"bad priority", "2023-01-21T00:04:17Z,x,127501,224,0,1,00"},
		{"bad pgn", "2023-01-21T00:04:17Z,3,pgn,224,0,1,00"},
		{"bad source", "2023-01-21T00:04:17Z,3,127501,300,0,1,00"},
		{"bad destination", "2023-01-21T00:04:17Z,3,127501,224,-1,1,00"},
		{"length past data", "2023-01-21T00:04:17Z,3,127501,224,0,3,00,01"},
		{"length over 8", "2023-01-21T00:04:17Z,3,127501,224,0,9,0,1,2,3,4,5,6,7,8"},
		{"bad data byte", "2023-01-21T00:04:17Z,3,127501,224,0,1,zz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := CanFrameFromRaw(tt.in)
			assert.Error(t, err)
		})
	}
}

func TestRawRoundTrip(t *testing.T) {
	frames := []can.Frame{
		{ID: 0x123, Length: 3, Data: [8]uint8{1, 2, 3}},
		{ID: 0x18FEF100 | 0x80000000, Length: 8, Data: [8]uint8{8, 7, 6, 5, 4, 3, 2, 1}},
		{ID: 0x0CEA2A01, Length: 0},
		{ID: 0x7FF, Length: 1, Data: [8]uint8{0xff}},
		{ID: 0x09FD0223, Length: 3, Data: [8]uint8{1, 2, 3}},
		{ID: 0x09F80103, Length: 1, Data: [8]uint8{1}},
	}
	for _, f := range frames {
		line := RawFromCanFrame(f, recorded)
		got, ts, err := CanFrameFromRaw(line)
		require.NoError(t, err, line)
		assert.Equal(t, recorded, ts)
		assert.Equal(t, f.ID&canIDMask, got.ID, line)
		assert.Equal(t, f.Length, got.Length)
		assert.Equal(t, f.Data, got.Data)
	}
}

func TestRawFromCanFrame(t *testing.T) {
	f := can.Frame{ID: CanIdFromData(59904, 1, 6, 42), Length: 3, Data: [8]uint8{0x14, 0xf0, 0x01}}
	assert.Equal(t, "2023-01-21T00:04:17.125Z,6,59904,1,42,3,14,f0,01\n", RawFromCanFrame(f, recorded))

	f = can.Frame{ID: CanIdFromData(130306, 35, 2, 255), Length: 1, Data: [8]uint8{0x01}}
	assert.Equal(t, "2023-01-21T00:04:17.125Z,2,130306,35,255,1,01\n", RawFromCanFrame(f, recorded))
}

func TestTextFromFrame(t *testing.T) {
	f := &frame.LogMessage{Header: frame.Header{Timestamp: 2 * time.Second}, Text: "hi"}
	assert.Equal(t, "2023-01-21T00:04:17.125000Z "+f.String(), TextFromFrame(f, recorded))
}

func TestTemplateFormatter(t *testing.T) {
	f := &frame.CANData{
		Header: frame.Header{Timestamp: 1500 * time.Millisecond, ObjectType: uint32(blf.ObjectTypeCANMessage)},
		ID:     0x123,
		Data:   []uint8{0xde, 0xad},
	}
	tf, err := NewTemplateFormatter(`{{ .Index }} {{ .Type | lower }} {{ printf "%x" .Frame.ID }} {{ hexbytes .Frame.Data }} {{ .Offset }}`)
	require.NoError(t, err)

	var b bytes.Buffer
	require.NoError(t, tf.Format(&b, NewTemplateData(4, f, recorded)))
	assert.Equal(t, "4 can_message 123 de ad 1.5s\n", b.String())

	_, err = NewTemplateFormatter("{{ .Index ")
	assert.Error(t, err)

	tf, err = NewTemplateFormatter("{{ .Frame.Missing }}")
	require.NoError(t, err)
	assert.Error(t, tf.Format(&b, NewTemplateData(0, f, recorded)))
}

func TestDefaultTemplate(t *testing.T) {
	tf, err := NewTemplateFormatter(DefaultTemplate)
	require.NoError(t, err)
	f := &frame.CANOverload{Header: frame.Header{ObjectType: uint32(blf.ObjectTypeCANOverload)}, Channel: 2}

	var b bytes.Buffer
	require.NoError(t, tf.Format(&b, NewTemplateData(0, f, recorded)))
	assert.Contains(t, b.String(), f.String())
}
