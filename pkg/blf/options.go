package blf

import "github.com/sirupsen/logrus"

// DefaultMaxObjectSize bounds the size of a single record and of an inflated container.
const DefaultMaxObjectSize = 64 << 20

// Option configures a LogFile.
type Option func(*options)

type options struct {
	log           *logrus.Logger
	skip          map[ObjectType]bool
	ignoreCount   bool
	maxObjectSize int
}

func defaultOptions() options {
	return options{
		log:           logrus.StandardLogger(),
		skip:          make(map[ObjectType]bool),
		maxObjectSize: DefaultMaxObjectSize,
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(log *logrus.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithSkipTypes drops objects of the given types. Skipped objects still count toward
// the object count declared in the file header.
func WithSkipTypes(types ...ObjectType) Option {
	return func(o *options) {
		for _, t := range types {
			o.skip[t] = true
		}
	}
}

// WithIgnoreObjectCount reads to end of file even when the header declares an
// object count.
func WithIgnoreObjectCount() Option {
	return func(o *options) {
		o.ignoreCount = true
	}
}

// WithMaxObjectSize overrides DefaultMaxObjectSize.
func WithMaxObjectSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxObjectSize = n
		}
	}
}
