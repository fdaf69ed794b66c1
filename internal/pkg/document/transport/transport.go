// Package transport carries protocol envelopes between the authority process
// and its dependent workers.
//
// The coordination core depends only on the Channel contract. Two
// implementations are provided: an in-process pair for workers living in the
// authority's process, and a JSON-lines pipe for spawned child processes.
package transport

import (
	"context"

	"github.com/docwire/docwire/internal/pkg/document/protocol"
)

// Envelope carries either a request or a response.
type Envelope struct {
	Request  *protocol.Request  `json:"request,omitempty"`
	Response *protocol.Response `json:"response,omitempty"`
}

// Channel is one end of a bidirectional message stream.
type Channel interface {
	// Send delivers the envelope to the peer.
	Send(ctx context.Context, envelope *Envelope) error
	// Receive returns the stream of incoming envelopes.
	Receive() <-chan *Envelope
	// Done is closed when the channel is no longer usable.
	Done() <-chan struct{}
	Close() error
}
