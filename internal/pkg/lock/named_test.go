package lock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docwire/docwire/internal/pkg/lock"
)

func TestRegistry_SameNameIsSerialized(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	registry := lock.NewRegistry()

	release1, err := registry.Acquire(ctx, "doc-1", time.Second)
	require.NoError(t, err)

	// Second acquisition of the same name times out while the first is held.
	_, err = registry.Acquire(ctx, "doc-1", 10*time.Millisecond)
	require.ErrorIs(t, err, lock.ErrTimeout)

	// A different name is independent.
	release2, err := registry.Acquire(ctx, "doc-2", time.Second)
	require.NoError(t, err)
	release2()

	release1()
	release3, err := registry.Acquire(ctx, "doc-1", time.Second)
	require.NoError(t, err)
	release3()
}

func TestRegistry_ReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	registry := lock.NewRegistry()

	release, err := registry.Acquire(ctx, "doc", time.Second)
	require.NoError(t, err)
	release()
	release() // no panic

	release, err = registry.Acquire(ctx, "doc", time.Second)
	require.NoError(t, err)
	release()
}

func TestRegistry_MutualExclusion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	registry := lock.NewRegistry()

	const workers = 20
	counter := 0
	wg := sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := registry.Acquire(ctx, "counter", 5*time.Second)
			assert.NoError(t, err)
			defer release()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}
