package values_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docwire/docwire/internal/pkg/document/values"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	type item struct {
		ID    string `json:"id"`
		Count int    `json:"count"`
	}

	out, err := values.Normalize(map[string]any{"items": []item{{ID: "a", Count: 1}}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"items": []any{
			map[string]any{"id": "a", "count": 1.0},
		},
	}, out)
}

func TestClone(t *testing.T) {
	t.Parallel()

	original := map[string]any{
		"nested": map[string]any{"list": []any{1.0, 2.0}},
	}
	clone := values.Clone(original).(map[string]any)
	require.Equal(t, original, clone)

	// Mutating the clone must not touch the original.
	clone["nested"].(map[string]any)["list"].([]any)[0] = 99.0
	assert.Equal(t, 1.0, original["nested"].(map[string]any)["list"].([]any)[0])
}

func TestCoercions(t *testing.T) {
	t.Parallel()

	_, ok := values.Record(map[string]any{})
	assert.True(t, ok)
	_, ok = values.Record([]any{})
	assert.False(t, ok)

	_, ok = values.Sequence([]any{})
	assert.True(t, ok)
	_, ok = values.Sequence(map[string]any{})
	assert.False(t, ok)
	_, ok = values.Sequence("scalar")
	assert.False(t, ok)
}
