// Package blfendpoint replays the frames of a BLF file to a message handler.
package blfendpoint

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/boatkit-io/blf/pkg/blf"
	"github.com/boatkit-io/blf/pkg/endpoint"
)

// BLFFileEndpoint reads a BLF file and hands every frame to its output.
type BLFFileEndpoint struct {
	path    string
	log     *logrus.Logger
	opts    []blf.Option
	handler endpoint.MessageHandler
	stats   blf.Stats
}

// NewBLFFileEndpoint creates an endpoint for the file at path. opts are passed to blf.Open.
func NewBLFFileEndpoint(path string, log *logrus.Logger, opts ...blf.Option) *BLFFileEndpoint {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &BLFFileEndpoint{
		path: path,
		log:  log,
		opts: append([]blf.Option{blf.WithLogger(log)}, opts...),
	}
}

// SetOutput sets the handler that receives each frame.
func (b *BLFFileEndpoint) SetOutput(mh endpoint.MessageHandler) {
	b.handler = mh
}

// Stats returns the reader counters of the last Run.
func (b *BLFFileEndpoint) Stats() blf.Stats {
	return b.stats
}

// Run opens the file and replays it. It returns nil at end of file, ctx.Err() when the
// context is cancelled between frames, and the reader's error otherwise.
func (b *BLFFileEndpoint) Run(ctx context.Context) error {
	lf, err := blf.Open(b.path, b.opts...)
	if err != nil {
		return err
	}
	defer func() {
		b.stats = lf.Stats()
		_ = lf.Close()
	}()

	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		f, err := lf.Next()
		if err == io.EOF {
			b.log.Debugf("replayed %d frames from %s", count, b.path)
			return nil
		}
		if err != nil {
			return errors.WithMessagef(err, "after %d frames", count)
		}
		count++
		if b.handler != nil {
			b.handler.HandleMessage(endpoint.Message{
				Time:  lf.AbsoluteTime(f),
				Frame: f,
			})
		}
	}
}
