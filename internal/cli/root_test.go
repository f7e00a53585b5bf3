package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boatkit-io/blf/internal/blftest"
	"github.com/boatkit-io/blf/pkg/blf"
	"github.com/boatkit-io/blf/pkg/converter"
)

func sampleFile(t *testing.T) string {
	t.Helper()
	return blftest.NewFile(4,
		blftest.Container(false, blftest.Concat(
			blftest.Object(blftest.TypeCANMessage, 1000000, blftest.CANMessage(1, 0, 0x123, []byte{0xde, 0xad})),
			blftest.Object(blftest.TypeAppText, 2000000, blftest.AppText(0, []byte("hello"))),
		)),
		blftest.Container(true, blftest.Concat(
			blftest.Object(blftest.TypeCANFDMessage, 3000000, blftest.CANFDMessage(1, 0, 0x01, 9, 0x200, make([]byte, 12))),
			blftest.Object(blftest.TypeCANMessage, 4000000, blftest.CANMessage(1, 0, 0x80000000|0x09F80103, []byte{1})),
		)),
	).WriteFile(t)
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"dump", "info", "raw", "version"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "blfdump dev\n", out)
}

func TestDump(t *testing.T) {
	out, _, err := run(t, "", "dump", "--template", "{{ .Index }} {{ .Type }} {{ .Offset }}", sampleFile(t))
	require.NoError(t, err)
	assert.Equal(t, "0 CAN_MESSAGE 1ms\n1 APP_TEXT 2ms\n2 CAN_FD_MESSAGE 3ms\n3 CAN_MESSAGE 4ms\n", out)
}

func TestDumpDefaultTemplate(t *testing.T) {
	out, _, err := run(t, "", "dump", "--limit", "2", sampleFile(t))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "ID: 123")
	assert.Contains(t, lines[1], `Text: "hello"`)

	path := sampleFile(t)
	lf, err := blf.Open(path)
	require.NoError(t, err)
	defer lf.Close()
	var want strings.Builder
	for i := 0; i < 2; i++ {
		f, err := lf.Next()
		require.NoError(t, err)
		want.WriteString(converter.TextFromFrame(f, lf.AbsoluteTime(f)) + "\n")
	}
	out, _, err = run(t, "", "dump", "--limit", "2", path)
	require.NoError(t, err)
	assert.Equal(t, want.String(), out)
}

func TestDumpTypeFilters(t *testing.T) {
	path := sampleFile(t)
	tmpl := "{{ .Type }}"

	out, _, err := run(t, "", "dump", "--template", tmpl, "--type", "CAN_MESSAGE", path)
	require.NoError(t, err)
	assert.Equal(t, "CAN_MESSAGE\nCAN_MESSAGE\n", out)

	out, _, err = run(t, "", "dump", "--template", tmpl, "--skip-type", "CAN_MESSAGE,100", path)
	require.NoError(t, err)
	assert.Equal(t, "APP_TEXT\n", out)

	_, _, err = run(t, "", "dump", "--type", "NOPE", path)
	assert.Error(t, err)
}

func TestDumpStep(t *testing.T) {
	out, stderr, err := run(t, "\n", "dump", "--step", "--template", "{{ .Index }}", sampleFile(t))
	require.NoError(t, err)
	// one Enter, then input ends and stepping stops
	assert.Equal(t, "0\n1\n", out)
	assert.Equal(t, 2, strings.Count(stderr, "Enter for next frame"))
}

func TestDumpProgress(t *testing.T) {
	out, _, err := run(t, "", "dump", "--progress", "--template", "{{ .Index }}", sampleFile(t))
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\n3\n", out)
}

func TestDumpConfigFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "blfdump.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("template: \"{{ .Type | lower }}\"\nskip_types: [APP_TEXT, CAN_FD_MESSAGE]\n"), 0o600))

	out, _, err := run(t, "", "dump", "--config", cfgPath, sampleFile(t))
	require.NoError(t, err)
	assert.Equal(t, "can_message\ncan_message\n", out)

	// flags win over the file
	out, _, err = run(t, "", "dump", "--config", cfgPath, "--template", "{{ .Index }}", sampleFile(t))
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n", out)
}

func TestDumpErrors(t *testing.T) {
	_, _, err := run(t, "", "dump")
	assert.Error(t, err)

	_, _, err = run(t, "", "dump", filepath.Join(t.TempDir(), "missing.blf"))
	assert.Error(t, err)

	_, _, err = run(t, "", "dump", "--template", "{{ .Nope", sampleFile(t))
	assert.Error(t, err)

	bad := blftest.NewFile(0)
	bad.Signature = "ABCD"
	_, _, err = run(t, "", "dump", bad.WriteFile(t))
	assert.ErrorContains(t, err, "bad file signature")
}

func TestInfo(t *testing.T) {
	out, _, err := run(t, "", "info", sampleFile(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Application:       CANape 0.0.0\n")
	assert.Contains(t, out, "Format version:    2.6.8.1\n")
	assert.Contains(t, out, "Declared objects:  4\n")
	assert.Contains(t, out, "Start:             2024-05-17T12:30:15.25Z\n")
	assert.Contains(t, out, "Containers:        2\n")
	assert.Contains(t, out, "Objects:           4\n")
	assert.Contains(t, out, "  CAN_MESSAGE            2\n")
	assert.Contains(t, out, "  CAN_FD_MESSAGE         1\n")

	out, _, err = run(t, "", "info", "--header-only", sampleFile(t))
	require.NoError(t, err)
	assert.NotContains(t, out, "Containers:")
}

func TestInfoReportsReadErrors(t *testing.T) {
	container := blftest.Container(false, blftest.Object(blftest.TypeCANMessage, 1, blftest.CANMessage(0, 0, 1, nil)))
	path := blftest.NewFile(2, container, container[:12]).WriteFile(t)

	out, _, err := run(t, "", "info", path)
	assert.ErrorContains(t, err, "truncated")
	assert.Contains(t, out, "Objects:           1\n")
}

func TestRaw(t *testing.T) {
	out, stderr, err := run(t, "", "raw", sampleFile(t))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	f, ts, err := converter.CanFrameFromRaw(lines[0])
	require.NoError(t, err)
	assert.Equal(t, uint32(0x123), f.ID)
	assert.Equal(t, "2024-05-17T12:30:15.251Z", ts.Format("2006-01-02T15:04:05.999Z"))
	assert.Equal(t, "2024-05-17T12:30:15.254Z,2,129025,3,255,1,01", lines[1])
	assert.Contains(t, stderr, "RAW conversion finished")
}

func TestRawToFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "out.raw")
	out, _, err := run(t, "", "raw", "--out", outPath, "--type", "CAN_MESSAGE", sampleFile(t))
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}
