// Package canadapter turns decoded BLF frames into can.Frames for frame writers.
package canadapter

import (
	"time"

	"github.com/brutella/can"
	"github.com/sirupsen/logrus"

	"github.com/boatkit-io/blf/pkg/endpoint"
	"github.com/boatkit-io/blf/pkg/frame"
)

// CANAdapter receives messages from an endpoint and writes the classic CAN data frames
// among them to its FrameWriter. Everything else is counted and dropped.
type CANAdapter struct {
	log *logrus.Logger

	frameWriter FrameWriter
	written     int
	skipped     int
}

// FrameWriter is an interface for the endpoint frame writer for a CANAdapter
type FrameWriter interface {
	WriteFrame(time.Time, can.Frame)
}

// NewCANAdapter instantiates a new CanAdapter
func NewCANAdapter(log *logrus.Logger) *CANAdapter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CANAdapter{
		log: log,
	}
}

// SetWriter assigns the argument to the frameWriter field
func (c *CANAdapter) SetWriter(writer FrameWriter) {
	c.frameWriter = writer
}

// Written returns the number of frames passed to the writer.
func (c *CANAdapter) Written() int {
	return c.written
}

// Skipped returns the number of messages that were not classic CAN data frames.
func (c *CANAdapter) Skipped() int {
	return c.skipped
}

// HandleMessage converts the message's frame and hands it to the writer.
func (c *CANAdapter) HandleMessage(message endpoint.Message) {
	switch f := message.Frame.(type) {
	case *frame.CANData:
		if f.FD {
			c.skip("CAN FD frame 0x%x on channel %d has no classic representation", f.ID, f.Channel)
			return
		}
		cf, err := f.CanFrame()
		if err != nil {
			c.skip("frame 0x%x: %s", f.ID, err)
			return
		}
		c.written++
		if c.frameWriter != nil {
			c.frameWriter.WriteFrame(message.Time, cf)
		}
	default:
		c.skip("%T is not a CAN data frame", f)
	}
}

func (c *CANAdapter) skip(format string, args ...any) {
	c.skipped++
	c.log.Debugf("CANAdapter skipping: "+format, args...)
}
