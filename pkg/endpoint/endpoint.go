// Package endpoint defines the interfaces shared by frame sources and sinks.
package endpoint

import (
	"context"
	"time"

	"github.com/boatkit-io/blf/pkg/frame"
)

// Message is one frame handed from an endpoint to its output, together with its wall
// clock time.
type Message struct {
	Time  time.Time
	Frame frame.Frame
}

// MessageHandler receives messages from an endpoint.
type MessageHandler interface {
	HandleMessage(Message)
}

// Endpoint is a source of messages.
type Endpoint interface {
	Run(ctx context.Context) error
	SetOutput(MessageHandler)
}

// HandlerFunc adapts a function to MessageHandler.
type HandlerFunc func(Message)

// HandleMessage calls f(m).
func (f HandlerFunc) HandleMessage(m Message) {
	f(m)
}
