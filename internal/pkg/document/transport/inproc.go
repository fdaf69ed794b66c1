package transport

import (
	"context"
	"sync"

	"github.com/docwire/docwire/internal/pkg/document/coorderrors"
)

const inprocBuffer = 64

// Pair returns two connected in-process channel ends.
// Closing either end closes both.
func Pair() (Channel, Channel) {
	ab := make(chan *Envelope, inprocBuffer)
	ba := make(chan *Envelope, inprocBuffer)
	done := make(chan struct{})
	once := &sync.Once{}

	a := &inprocChannel{out: ab, in: ba, done: done, closeOnce: once}
	b := &inprocChannel{out: ba, in: ab, done: done, closeOnce: once}
	return a, b
}

type inprocChannel struct {
	out       chan *Envelope
	in        chan *Envelope
	done      chan struct{}
	closeOnce *sync.Once
}

func (c *inprocChannel) Send(ctx context.Context, envelope *Envelope) error {
	select {
	case <-c.done:
		return coorderrors.NewTransportClosedError()
	case <-ctx.Done():
		return ctx.Err()
	case c.out <- envelope:
		return nil
	}
}

func (c *inprocChannel) Receive() <-chan *Envelope {
	return c.in
}

func (c *inprocChannel) Done() <-chan struct{} {
	return c.done
}

func (c *inprocChannel) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	return nil
}
