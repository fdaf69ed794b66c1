package distlock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docwire/docwire/internal/pkg/distlock"
	"github.com/docwire/docwire/internal/pkg/log"
	"github.com/docwire/docwire/internal/pkg/utils/etcdhelper"
)

func TestProvider_NewMutex(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := etcdhelper.ClientForTest(t)
	logger := log.NewDebugLogger()

	// Two providers act as two separate hosts, each with its own session.
	p1, err := distlock.NewProvider(ctx, distlock.NewConfig(), logger, client)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, p1.Close(ctx))
	}()

	p2, err := distlock.NewProvider(ctx, distlock.NewConfig(), logger, client)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, p2.Close(ctx))
	}()

	mtx1 := p1.NewMutex("foo/bar")
	mtx2 := p2.NewMutex("foo/bar")

	require.NoError(t, mtx1.Lock(ctx))
	require.ErrorAs(t, mtx2.TryLock(ctx), &distlock.AlreadyLockedError{})
	require.NoError(t, mtx1.Unlock(ctx))

	// Lockable by the other host after release.
	require.NoError(t, mtx2.TryLock(ctx))
	require.NoError(t, mtx2.Unlock(ctx))
}
