package transport

import (
	"context"
	"os"
	"os/exec"

	"github.com/docwire/docwire/internal/pkg/log"
	"github.com/docwire/docwire/internal/pkg/utils/errors"
)

// Spawn starts a child process and returns the parent-side channel, bridged
// over the child's stdin/stdout. The child's stderr is inherited. The channel
// closes when the child exits.
func Spawn(ctx context.Context, logger log.Logger, name string, args ...string) (Channel, *exec.Cmd, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot open worker stdin")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot open worker stdout")
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, errors.Wrapf(err, `cannot spawn worker "%s"`, name)
	}

	channel := NewPipe(logger, stdout, stdin)
	go func() {
		err := cmd.Wait()
		if err != nil {
			logger.Warnf(ctx, `worker "%s" exited: %s`, name, err)
		}
		_ = channel.Close()
	}()
	return channel, cmd, nil
}

// NewStdio returns the spawned process's own end of the bridge.
func NewStdio(logger log.Logger) Channel {
	return NewPipe(logger, os.Stdin, os.Stdout)
}
