package rawendpoint

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brutella/can"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ts = time.Date(2024, 5, 17, 12, 30, 15, 250*int(time.Millisecond), time.UTC)

func TestWriteFrame(t *testing.T) {
	var b bytes.Buffer
	r := NewRawWriter(&b, nil)
	r.WriteFrame(ts, can.Frame{ID: 0x09F80103, Length: 2, Data: [8]uint8{0x12, 0x34}})
	r.WriteFrame(ts.Add(time.Millisecond), can.Frame{ID: 0x123, Length: 0})

	// nothing is written until the buffer is flushed
	assert.Zero(t, b.Len())
	require.NoError(t, r.Close())
	assert.Equal(t, "2024-05-17T12:30:15.250Z,2,129025,3,255,2,12,34\n2024-05-17T12:30:15.251Z,0,0,35,1,0\n", b.String())
	assert.Equal(t, 2, r.Lines())

	// writes after Close are dropped
	r.WriteFrame(ts, can.Frame{ID: 1})
	assert.Equal(t, 2, r.Lines())
	assert.NoError(t, r.Close())
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.raw")
	r, err := NewRawEndpoint(path, nil)
	require.NoError(t, err)
	r.WriteFrame(ts, can.Frame{ID: 0x09F80103, Length: 1, Data: [8]uint8{0xff}})
	require.NoError(t, r.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-17T12:30:15.250Z,2,129025,3,255,1,ff\n", string(data))
}

func TestNewRawEndpointErrors(t *testing.T) {
	_, err := NewRawEndpoint(filepath.Join(t.TempDir(), "missing", "out.raw"), nil)
	assert.Error(t, err)
}
