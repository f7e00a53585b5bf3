// Package rawendpoint turns CAN frames written by a canadapter into RAW format lines.
package rawendpoint

import (
	"bufio"
	"io"
	"os"
	"time"

	"github.com/brutella/can"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/boatkit-io/blf/pkg/converter"
)

// RawEndpoint writes a RAW log from canbus frames, to a file or to stdout.
type RawEndpoint struct {
	log    *logrus.Logger
	file   *os.File
	out    *bufio.Writer
	lines  int
	err    error
	closed bool
}

// NewRawEndpoint creates a new RAW endpoint. An empty path writes to stdout.
func NewRawEndpoint(outFilePath string, log *logrus.Logger) (*RawEndpoint, error) {
	if outFilePath == "" {
		return NewRawWriter(os.Stdout, log), nil
	}
	file, err := os.Create(outFilePath) // #nosec G304 -- caller chooses the file
	if err != nil {
		return nil, errors.Wrap(err, "creating RAW output file")
	}
	r := NewRawWriter(file, log)
	r.file = file
	return r, nil
}

// NewRawWriter returns an endpoint writing to w. Close flushes but does not close w.
func NewRawWriter(w io.Writer, log *logrus.Logger) *RawEndpoint {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RawEndpoint{
		log: log,
		out: bufio.NewWriter(w),
	}
}

// WriteFrame is invoked by CanAdapter, converts the frame into a RAW string, and writes it.
// The first write error is kept and returned by Close; later frames are dropped.
func (r *RawEndpoint) WriteFrame(ts time.Time, frame can.Frame) {
	if r.err != nil || r.closed {
		return
	}
	if _, err := r.out.WriteString(converter.RawFromCanFrame(frame, ts)); err != nil {
		r.err = errors.Wrap(err, "writing RAW line")
		r.log.Warnf("RAW output failed after %d lines: %s", r.lines, err)
		return
	}
	r.lines++
}

// Lines returns the number of lines written.
func (r *RawEndpoint) Lines() int {
	return r.lines
}

// Close flushes buffered lines and closes the output file, if the endpoint opened one.
func (r *RawEndpoint) Close() error {
	if r.closed {
		return r.err
	}
	r.closed = true
	if err := r.out.Flush(); err != nil && r.err == nil {
		r.err = errors.Wrap(err, "flushing RAW output")
	}
	if r.file != nil {
		if err := r.file.Close(); err != nil && r.err == nil {
			r.err = errors.Wrap(err, "closing RAW output file")
		}
	}
	return r.err
}
