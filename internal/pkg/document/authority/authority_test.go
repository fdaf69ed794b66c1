package authority_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docwire/docwire/internal/pkg/document"
	"github.com/docwire/docwire/internal/pkg/document/authority"
	"github.com/docwire/docwire/internal/pkg/document/coorderrors"
	"github.com/docwire/docwire/internal/pkg/document/protocol"
	"github.com/docwire/docwire/internal/pkg/document/selector"
	"github.com/docwire/docwire/internal/pkg/document/store"
	"github.com/docwire/docwire/internal/pkg/lock"
	"github.com/docwire/docwire/internal/pkg/log"
	"github.com/docwire/docwire/internal/pkg/utils/errors"
)

func newTestAuthority(t *testing.T, config authority.Config, initial any) *authority.Authority {
	t.Helper()
	s := store.NewMemory()
	require.NoError(t, s.Seed(context.Background(), initial))
	return authority.New(log.NewNopLogger(), clockwork.NewRealClock(), config, "test-doc", s, lock.NewRegistry(), nil)
}

func TestAuthority_GetSet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := newTestAuthority(t, authority.NewConfig(), map[string]any{
		"config": map[string]any{"retries": 3},
	})

	value, err := a.Get(ctx, selector.Parse("config.retries"))
	require.NoError(t, err)
	assert.Equal(t, float64(3), value)

	// Missing path reads as nil.
	value, err = a.Get(ctx, selector.Parse("config.missing.deep"))
	require.NoError(t, err)
	assert.Nil(t, value)

	ok, err := a.Set(ctx, selector.Parse("config"), "retries", 5)
	require.NoError(t, err)
	assert.True(t, ok)

	value, err = a.Get(ctx, selector.Parse("config.retries"))
	require.NoError(t, err)
	assert.Equal(t, float64(5), value)

	// Set into a non-record is a soft failure, not an error.
	ok, err = a.Set(ctx, selector.Parse("config.retries"), "x", 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthority_SequenceOps(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := newTestAuthority(t, authority.NewConfig(), map[string]any{
		"queue": []any{"b", "c"},
	})

	sel := selector.Parse("queue")

	ok, err := a.Push(ctx, sel, "d")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Unshift(ctx, sel, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	value, err := a.Get(ctx, sel)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "c", "d"}, value)

	last, ok, err := a.Pop(ctx, sel)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "d", last)

	first, ok, err := a.Shift(ctx, sel)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", first)

	// Push into a non-sequence is a soft failure.
	ok, err = a.Push(ctx, selector.Parse("queue.0"), "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthority_PopEmptySequence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := newTestAuthority(t, authority.NewConfig(), map[string]any{"queue": []any{}})

	value, ok, err := a.Pop(ctx, selector.Parse("queue"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, value)
}

func TestAuthority_Splice(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := newTestAuthority(t, authority.NewConfig(), map[string]any{
		"items": []any{"a", "b", "c", "d", "e"},
	})

	removed, ok, err := a.Splice(ctx, selector.Parse("items"), 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []any{"b", "c"}, removed)

	value, err := a.Get(ctx, selector.Parse("items"))
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "d", "e"}, value)

	// The window is clamped to the sequence bounds.
	removed, ok, err = a.Splice(ctx, selector.Parse("items"), 2, 100)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []any{"e"}, removed)
}

func TestAuthority_ItemOps(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := newTestAuthority(t, authority.NewConfig(), map[string]any{
		"jobs": []any{
			map[string]any{"id": "1", "state": "waiting"},
			map[string]any{"id": "2", "state": "waiting"},
		},
	})

	sel := selector.Parse("jobs")

	// Update by match key merges onto the located record.
	ok, err := a.UpdateItemInArray(ctx, sel, map[string]any{"id": "2"}, map[string]any{"state": "running"}, "id")
	require.NoError(t, err)
	assert.True(t, ok)

	value, err := a.Get(ctx, selector.Parse("jobs.1"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "2", "state": "running"}, value)

	ok, err = a.RemoveItemFromArray(ctx, sel, map[string]any{"id": "1"}, "id")
	require.NoError(t, err)
	assert.True(t, ok)

	value, err = a.Get(ctx, sel)
	require.NoError(t, err)
	assert.Len(t, value, 1)

	// No match leaves the sequence unchanged.
	ok, err = a.RemoveItemFromArray(ctx, sel, map[string]any{"id": "9"}, "id")
	require.NoError(t, err)
	assert.False(t, ok)

	// Without a match key, whole-value equality is used.
	ok, err = a.Push(ctx, sel, "plain")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = a.RemoveItemFromArray(ctx, sel, "plain", "")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAuthority_Batch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := newTestAuthority(t, authority.NewConfig(), map[string]any{
		"config": map[string]any{},
		"queue":  []any{},
	})

	err := a.Batch(ctx, []protocol.Query{
		{Op: protocol.OpSet, Selector: []string{"config"}, Key: "mode", Value: "fast"},
		{Op: protocol.OpPush, Selector: []string{"queue"}, Value: "job-1"},
		{Op: protocol.OpUnshift, Selector: []string{"queue"}, Value: "job-0"},
	})
	require.NoError(t, err)

	value, err := a.Get(ctx, selector.Parse("config.mode"))
	require.NoError(t, err)
	assert.Equal(t, "fast", value)

	value, err = a.Get(ctx, selector.Parse("queue"))
	require.NoError(t, err)
	assert.Equal(t, []any{"job-0", "job-1"}, value)

	// Unsupported sub-operation fails the batch.
	err = a.Batch(ctx, []protocol.Query{{Op: protocol.OpPop, Selector: []string{"queue"}}})
	require.Error(t, err)
	var configErr coorderrors.ConfigurationError
	assert.True(t, errors.As(err, &configErr))
}

func TestAuthority_ReplaceAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := newTestAuthority(t, authority.NewConfig(), map[string]any{"old": true})

	require.NoError(t, a.ReplaceAll(ctx, map[string]any{"new": true}))

	value, err := a.Get(ctx, selector.Selector{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"new": true}, value)
}

func TestAuthority_ConcurrentPush(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := newTestAuthority(t, authority.NewConfig(), map[string]any{"items": []any{}})

	workers := 50
	wg := sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := a.Push(ctx, selector.Parse("items"), "item")
			assert.NoError(t, err)
			assert.True(t, ok)
		}()
	}
	wg.Wait()

	value, err := a.Get(ctx, selector.Parse("items"))
	require.NoError(t, err)
	assert.Len(t, value, workers)
}

func TestAuthority_Transaction(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := newTestAuthority(t, authority.NewConfig(), map[string]any{"counter": 0})

	err := a.Transaction(ctx, 0, func(ctx context.Context, doc document.Document) error {
		value, err := doc.Get(ctx, selector.Parse("counter"))
		if err != nil {
			return err
		}
		ok, err := doc.Set(ctx, selector.Selector{}, "counter", value.(float64)+1)
		if err != nil {
			return err
		}
		assert.True(t, ok)

		// A nested transaction runs directly in the outer window.
		return doc.Transaction(ctx, 0, func(ctx context.Context, doc document.Document) error {
			_, err := doc.Set(ctx, selector.Selector{}, "nested", true)
			return err
		})
	})
	require.NoError(t, err)

	value, err := a.Get(ctx, selector.Parse("counter"))
	require.NoError(t, err)
	assert.Equal(t, float64(1), value)

	value, err = a.Get(ctx, selector.Parse("nested"))
	require.NoError(t, err)
	assert.Equal(t, true, value)
}

func TestAuthority_TransactionCallbackError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := newTestAuthority(t, authority.NewConfig(), map[string]any{})

	expected := errors.New("callback failed")
	err := a.Transaction(ctx, 0, func(ctx context.Context, doc document.Document) error {
		return expected
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, expected))
}

func TestAuthority_TransactionsDoNotOverlap(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := newTestAuthority(t, authority.NewConfig(), map[string]any{"counter": 0})

	workers := 10
	wg := sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := a.Transaction(ctx, 0, func(ctx context.Context, doc document.Document) error {
				value, err := doc.Get(ctx, selector.Parse("counter"))
				if err != nil {
					return err
				}
				time.Sleep(time.Millisecond)
				_, err = doc.Set(ctx, selector.Selector{}, "counter", value.(float64)+1)
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Lost updates would leave the counter short.
	value, err := a.Get(ctx, selector.Parse("counter"))
	require.NoError(t, err)
	assert.Equal(t, float64(workers), value)
}
