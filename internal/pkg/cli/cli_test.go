package cli_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docwire/docwire/internal/pkg/cli"
	"github.com/docwire/docwire/internal/pkg/document/coorderrors"
	"github.com/docwire/docwire/internal/pkg/utils/errors"
)

func run(t *testing.T, fs afero.Fs, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := cli.NewRootCommand(&stdout, &stderr, fs)
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestCLI_GetSetPushRemove(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "state.json", []byte(`{"config":{"retries":3},"queue":["a"]}`), 0o644))

	out, err := run(t, fs, "get", "--file", "state.json", "--selector", "config.retries")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)

	_, err = run(t, fs, "set", "--file", "state.json", "--selector", "config", "--key", "retries", "5")
	require.NoError(t, err)

	out, err = run(t, fs, "get", "--file", "state.json", "--selector", "config.retries")
	require.NoError(t, err)
	assert.Equal(t, "5\n", out)

	_, err = run(t, fs, "push", "--file", "state.json", "--selector", "queue", "b")
	require.NoError(t, err)

	_, err = run(t, fs, "remove", "--file", "state.json", "--selector", "queue", "a")
	require.NoError(t, err)

	out, err = run(t, fs, "get", "--file", "state.json", "--selector", "queue")
	require.NoError(t, err)
	assert.JSONEq(t, `["b"]`, out)
}

func TestCLI_StructuralMismatch(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "state.json", []byte(`{"scalar":1}`), 0o644))

	_, err := run(t, fs, "push", "--file", "state.json", "--selector", "scalar", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sequence")
}

func TestCLI_GetMissingFile(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()

	// A read must fail on a missing document and must not create the file.
	_, err := run(t, fs, "get", "--file", "missing.json")
	require.Error(t, err)
	var notFoundErr coorderrors.DocumentNotFoundError
	assert.True(t, errors.As(err, &notFoundErr))

	exists, err := afero.Exists(fs, "missing.json")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCLI_FileIsRequired(t *testing.T) {
	t.Parallel()
	_, err := run(t, afero.NewMemMapFs(), "get")
	require.Error(t, err)
}
