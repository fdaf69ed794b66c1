package store_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docwire/docwire/internal/pkg/document/store"
)

func TestFileStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "document.json")
	s := store.NewFile(afero.NewOsFs(), path)
	assert.Equal(t, store.KindFile, s.Kind())

	// Seed
	require.NoError(t, s.Seed(ctx, map[string]any{"items": []any{}}))
	content, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"items": []any{}}, content)

	// Save rewrites the whole file
	require.NoError(t, s.Save(ctx, map[string]any{"items": []any{"a"}}))
	content, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"items": []any{"a"}}, content)

	// Seed on an existing file keeps the content
	require.NoError(t, s.Seed(ctx, map[string]any{"items": []any{}}))
	content, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"items": []any{"a"}}, content)

	// The persisted layout is compact JSON
	data, err := afero.ReadFile(afero.NewOsFs(), path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":["a"]}`, string(data))
	assert.NotContains(t, string(data), "\n  ")
}

func TestFileStore_MemMapFs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fs := afero.NewMemMapFs()
	s := store.NewFile(fs, "document.json")

	require.NoError(t, s.Seed(ctx, map[string]any{"counter": 0}))
	require.NoError(t, s.Save(ctx, map[string]any{"counter": 1}))
	content, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"counter": 1.0}, content)
}

func TestFileStore_ConcurrentSeed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "document.json")

	// All seeders share the file, exactly one initial content survives.
	wg := sync.WaitGroup{}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := store.NewFile(afero.NewOsFs(), path)
			assert.NoError(t, s.Seed(ctx, map[string]any{"seeded": true}))
		}()
	}
	wg.Wait()

	s := store.NewFile(afero.NewOsFs(), path)
	content, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"seeded": true}, content)
}
