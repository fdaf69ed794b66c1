package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docwire/docwire/internal/pkg/document/store"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemory()
	assert.Equal(t, store.KindMemory, s.Kind())

	// Empty before seeding
	content, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, content)

	// Seed
	require.NoError(t, s.Seed(ctx, map[string]any{"counter": 0}))
	content, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"counter": 0.0}, content)

	// Second seed is a no-op
	require.NoError(t, s.Seed(ctx, map[string]any{"other": true}))
	content, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"counter": 0.0}, content)

	// Save and load
	require.NoError(t, s.Save(ctx, map[string]any{"counter": 5}))
	content, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"counter": 5.0}, content)

	// Loaded snapshots do not alias each other
	first, err := s.Load(ctx)
	require.NoError(t, err)
	first.(map[string]any)["counter"] = 99.0
	second, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5.0, second.(map[string]any)["counter"])
}
