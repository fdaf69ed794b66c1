package transport

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/docwire/docwire/internal/pkg/document/coorderrors"
	"github.com/docwire/docwire/internal/pkg/encoding/json"
	"github.com/docwire/docwire/internal/pkg/log"
	"github.com/docwire/docwire/internal/pkg/utils/errors"
)

// maxLineSize bounds one serialized envelope, and so one document mutation.
const maxLineSize = 16 * 1024 * 1024

// NewPipe builds a channel over a reader/writer pair, one JSON envelope per
// line. It fits a spawned child's stdin/stdout, see Spawn and NewStdio.
func NewPipe(logger log.Logger, reader io.Reader, writer io.Writer) Channel {
	c := &pipeChannel{
		logger: logger.WithComponent("transport.pipe"),
		writer: writer,
		in:     make(chan *Envelope, inprocBuffer),
		done:   make(chan struct{}),
	}
	go c.readLoop(reader)
	return c
}

type pipeChannel struct {
	logger    log.Logger
	writeLock sync.Mutex
	writer    io.Writer
	in        chan *Envelope
	done      chan struct{}
	closeOnce sync.Once
}

func (c *pipeChannel) Send(ctx context.Context, envelope *Envelope) error {
	select {
	case <-c.done:
		return coorderrors.NewTransportClosedError()
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	data, err := json.Encode(envelope, false)
	if err != nil {
		return errors.Wrap(err, "cannot encode envelope")
	}
	data = append(data, '\n')

	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	if _, err := c.writer.Write(data); err != nil {
		c.close()
		return coorderrors.NewTransportClosedError()
	}
	return nil
}

func (c *pipeChannel) Receive() <-chan *Envelope {
	return c.in
}

func (c *pipeChannel) Done() <-chan struct{} {
	return c.done
}

func (c *pipeChannel) Close() error {
	c.close()
	return nil
}

func (c *pipeChannel) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *pipeChannel) readLoop(reader io.Reader) {
	defer c.close()

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		envelope := &Envelope{}
		if err := json.Decode(line, envelope); err != nil {
			c.logger.Warnf(context.Background(), "dropping malformed envelope: %s", err)
			continue
		}

		select {
		case c.in <- envelope:
		case <-c.done:
			return
		}
	}
}
