// Package blf reads Vector Binary Logging Format (BLF) files.
//
// A LogFile parses the file header when it is opened and then decodes frames on demand:
//
//	lf, err := blf.Open("trace.blf")
//	if err != nil {
//		return err
//	}
//	defer lf.Close()
//	for {
//		f, err := lf.Next()
//		if err == io.EOF {
//			break
//		}
//		if err != nil {
//			return err
//		}
//		fmt.Println(f)
//	}
//
// At most one log container is held in memory at a time. A LogFile is not safe for
// concurrent use; open the file again for an independent pass.
package blf

import (
	"bufio"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/boatkit-io/blf/pkg/frame"
)

const readBufferSize = 64 << 10

// Stats counts what a LogFile has read so far.
type Stats struct {
	Containers        int
	CompressedBytes   int64
	UncompressedBytes int64
	Objects           int
	Skipped           int
	Unknown           int
	ByType            map[ObjectType]int
}

// Types returns the object types seen, in ascending order.
func (s Stats) Types() []ObjectType {
	types := make([]ObjectType, 0, len(s.ByType))
	for t := range s.ByType {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// LogFile is an open BLF file and the iterator over its frames.
type LogFile struct {
	header *FileHeader
	closer io.Closer
	log    *logrus.Logger
	opts   options

	framer  *framer
	objects objectStream
	stats   Stats

	// err is sticky: once set every call to Next returns it.
	err error
}

// Open opens the named file and parses its header. The LogFile owns the file and
// releases it on Close. Header errors close the file and return no LogFile.
func Open(path string, opts ...Option) (*LogFile, error) {
	file, err := os.Open(path) // #nosec G304 -- caller chooses the file
	if err != nil {
		return nil, errors.Wrap(err, "opening log file")
	}
	l, err := NewLogFile(bufio.NewReaderSize(file, readBufferSize), opts...)
	if err != nil {
		_ = file.Close()
		return nil, errors.WithMessagef(err, "%s", path)
	}
	l.closer = file
	return l, nil
}

// NewLogFile parses the file header from r and returns a LogFile reading frames from
// the rest of r. The caller keeps ownership of r.
func NewLogFile(r io.Reader, opts ...Option) (*LogFile, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	header, err := ReadFileHeader(r)
	if err != nil {
		return nil, err
	}
	o.log.WithFields(logrus.Fields{
		"application": header.Application.String(),
		"version":     header.FormatVersion.String(),
		"objects":     header.ObjectCount,
	}).Debug("opened log file")

	l := &LogFile{
		header: header,
		log:    o.log,
		opts:   o,
		stats:  Stats{ByType: make(map[ObjectType]int)},
	}
	l.framer = newFramer(r, int64(header.HeaderSize), o.maxObjectSize, o.log, &l.stats)
	return l, nil
}

// Header returns the parsed file header.
func (l *LogFile) Header() FileHeader {
	return *l.header
}

// Stats returns a snapshot of the counters.
func (l *LogFile) Stats() Stats {
	s := l.stats
	s.ByType = make(map[ObjectType]int, len(l.stats.ByType))
	for t, n := range l.stats.ByType {
		s.ByType[t] = n
	}
	return s
}

// AbsoluteTime returns the wall clock time of f using the measurement start time from
// the header. Files without a start time give offsets from the zero time.
func (l *LogFile) AbsoluteTime(f frame.Frame) time.Time {
	return l.header.Start.Time().Add(f.FrameHeader().Timestamp)
}

// countReached reports whether the declared object count has been consumed.
func (l *LogFile) countReached() bool {
	if l.opts.ignoreCount || l.header.ObjectCount == 0 {
		return false
	}
	return uint64(l.stats.Objects) >= uint64(l.header.ObjectCount)
}

// Next returns the next frame, or io.EOF after the last one. Any other error ends the
// iteration; later calls return the same error.
func (l *LogFile) Next() (frame.Frame, error) {
	for l.err == nil {
		if l.countReached() {
			l.err = io.EOF
			break
		}

		obj, err := l.objects.next(l.opts.maxObjectSize)
		if err == errNeedMore {
			l.objects.retain()
			payload, err := l.framer.next()
			if err == io.EOF {
				if pending := l.objects.pending(); pending > 0 {
					err = errors.Wrapf(ErrTruncated, "file ends inside an object, %d bytes left over", pending)
				}
			}
			if err != nil {
				l.err = err
				break
			}
			l.objects.feed(payload)
			continue
		}
		if err != nil {
			l.err = errors.WithMessagef(err, "container %d", l.stats.Containers)
			break
		}

		l.stats.Objects++
		l.stats.ByType[obj.ObjectType]++
		if obj.UnknownHeader {
			l.log.Warnf("%s object %d has unknown header version %d, timestamp unavailable", obj.ObjectType, l.stats.Objects, obj.HeaderVersion)
		}
		if l.opts.skip[obj.ObjectType] {
			l.stats.Skipped++
			continue
		}
		if !IsDecoded(obj.ObjectType) {
			l.stats.Unknown++
		}

		f, err := DecodeObject(obj)
		if err != nil {
			l.err = errors.WithMessagef(err, "object %d", l.stats.Objects)
			break
		}
		return f, nil
	}
	return nil, l.err
}

// ReadAll drains the iterator. It returns the frames decoded before any error.
func (l *LogFile) ReadAll() ([]frame.Frame, error) {
	var frames []frame.Frame
	for {
		f, err := l.Next()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
	}
}

// Close releases the underlying file when the LogFile was created by Open. It is safe
// to call more than once. Next returns an error after Close.
func (l *LogFile) Close() error {
	if l.err == nil {
		l.err = errors.New("log file closed")
	}
	if l.closer == nil {
		return nil
	}
	c := l.closer
	l.closer = nil
	return c.Close()
}
