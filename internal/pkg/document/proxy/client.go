// Package proxy implements the worker-side view of a coordinated document.
// Every operation is forwarded to the authority process as a correlated
// request and the caller blocks until the matching response arrives, the
// channel dies, or the call times out.
package proxy

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/docwire/docwire/internal/pkg/document/coorderrors"
	"github.com/docwire/docwire/internal/pkg/document/protocol"
	"github.com/docwire/docwire/internal/pkg/document/transport"
	"github.com/docwire/docwire/internal/pkg/idgenerator"
	"github.com/docwire/docwire/internal/pkg/log"
)

type Config struct {
	// CallTimeout bounds the wait for each response.
	CallTimeout time.Duration `configKey:"callTimeout"`
}

func NewConfig() Config {
	return Config{CallTimeout: 5 * time.Second}
}

// Client multiplexes correlated calls over one channel to the authority.
type Client struct {
	logger  log.Logger
	clock   clockwork.Clock
	config  Config
	channel transport.Channel

	mu      sync.Mutex
	pending map[string]chan *protocol.Response
}

func NewClient(logger log.Logger, clock clockwork.Clock, config Config, channel transport.Channel) *Client {
	c := &Client{
		logger:  logger.WithComponent("proxy"),
		clock:   clock,
		config:  config,
		channel: channel,
		pending: make(map[string]chan *protocol.Response),
	}
	go c.receiveLoop()
	return c
}

// Call sends the request and blocks for the matching response.
func (c *Client) Call(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	if req.CorrelationID == "" {
		req.CorrelationID = idgenerator.CorrelationID()
	}

	wait := c.register(req.CorrelationID)
	defer c.deregister(req.CorrelationID)

	if err := c.channel.Send(ctx, &transport.Envelope{Request: req}); err != nil {
		return nil, err
	}

	timeout := c.clock.NewTimer(c.config.CallTimeout)
	defer timeout.Stop()

	select {
	case resp := <-wait:
		return resp, nil
	case <-timeout.Chan():
		return nil, coorderrors.NewTransportTimeoutError(req.CorrelationID, c.config.CallTimeout)
	case <-c.channel.Done():
		return nil, coorderrors.NewTransportClosedError()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) Close() error {
	return c.channel.Close()
}

func (c *Client) register(correlationID string) chan *protocol.Response {
	c.mu.Lock()
	defer c.mu.Unlock()
	wait := make(chan *protocol.Response, 1)
	c.pending[correlationID] = wait
	return wait
}

func (c *Client) deregister(correlationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, correlationID)
}

// receiveLoop routes incoming responses to the pending calls. A response
// with no pending call belongs to a caller that already gave up, it is
// logged and dropped. Pending callers learn about a dead channel from its
// Done signal, so the loop just ends.
func (c *Client) receiveLoop() {
	for {
		select {
		case envelope, ok := <-c.channel.Receive():
			if !ok {
				return
			}
			if envelope.Response == nil {
				continue
			}
			c.mu.Lock()
			wait, found := c.pending[envelope.Response.CorrelationID]
			c.mu.Unlock()
			if !found {
				c.logger.Debugf(context.Background(), `dropped response with unknown correlation id "%s"`, envelope.Response.CorrelationID)
				continue
			}
			wait <- envelope.Response
		case <-c.channel.Done():
			return
		}
	}
}
