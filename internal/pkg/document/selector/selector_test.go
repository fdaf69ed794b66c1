package selector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docwire/docwire/internal/pkg/document/selector"
)

func TestParse(t *testing.T) {
	t.Parallel()

	assert.Nil(t, selector.Parse(""))
	assert.Equal(t, selector.Selector{"a"}, selector.Parse("a"))
	assert.Equal(t, selector.Selector{"a", "b", "0"}, selector.Parse("a.b.0"))
	assert.True(t, selector.Parse("").IsRoot())
	assert.False(t, selector.Parse("a").IsRoot())
}

func TestResolve(t *testing.T) {
	t.Parallel()

	root := map[string]any{
		"config": map[string]any{
			"retries": 3.0,
			"hosts":   []any{"a", "b", "c"},
		},
		"items": []any{
			map[string]any{"id": "x"},
		},
	}

	// Root
	value, found := selector.Resolve(root, nil)
	require.True(t, found)
	assert.Equal(t, root, value)

	// Nested record
	value, found = selector.Resolve(root, selector.Parse("config.retries"))
	require.True(t, found)
	assert.Equal(t, 3.0, value)

	// Sequence index
	value, found = selector.Resolve(root, selector.Parse("config.hosts.1"))
	require.True(t, found)
	assert.Equal(t, "b", value)

	// Record inside a sequence
	value, found = selector.Resolve(root, selector.Parse("items.0.id"))
	require.True(t, found)
	assert.Equal(t, "x", value)

	// Missing key
	_, found = selector.Resolve(root, selector.Parse("config.missing"))
	assert.False(t, found)

	// Index out of range
	_, found = selector.Resolve(root, selector.Parse("config.hosts.9"))
	assert.False(t, found)

	// Non-numeric index into a sequence
	_, found = selector.Resolve(root, selector.Parse("config.hosts.first"))
	assert.False(t, found)

	// Walking through a scalar
	_, found = selector.Resolve(root, selector.Parse("config.retries.deeper"))
	assert.False(t, found)
}

func TestPut(t *testing.T) {
	t.Parallel()

	// Root replacement
	root, ok := selector.Put(map[string]any{"a": 1.0}, nil, "new")
	require.True(t, ok)
	assert.Equal(t, "new", root)

	// Write into a record
	doc := map[string]any{"config": map[string]any{}}
	root, ok = selector.Put(doc, selector.Parse("config.retries"), 5.0)
	require.True(t, ok)
	assert.Equal(t, 5.0, doc["config"].(map[string]any)["retries"])
	assert.Equal(t, doc, root)

	// Write into a sequence
	doc = map[string]any{"hosts": []any{"a", "b"}}
	_, ok = selector.Put(doc, selector.Parse("hosts.1"), "z")
	require.True(t, ok)
	assert.Equal(t, []any{"a", "z"}, doc["hosts"])

	// Unreachable parent
	_, ok = selector.Put(map[string]any{}, selector.Parse("missing.key"), 1.0)
	assert.False(t, ok)
}
