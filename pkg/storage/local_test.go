package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalWrite(t *testing.T) {
	base := t.TempDir()
	b := NewLocalBackend()

	path, err := b.Write(context.Background(), filepath.Join(base, "sub", "data.csv"), strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(content))

	// No temp remnants in the destination directory.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "data.csv", entries[0].Name())
}

func TestLocalWriteCancelledLeavesNothing(t *testing.T) {
	base := t.TempDir()
	b := NewLocalBackend()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	target := filepath.Join(base, "data.csv")
	_, err := b.Write(ctx, target, strings.NewReader("partial"))
	require.Error(t, err)

	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr), "cancelled write must not leave a visible file")

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Empty(t, entries, "cancelled write must clean up its temp file")
}

func TestLocalIsDir(t *testing.T) {
	base := t.TempDir()
	b := NewLocalBackend()

	assert.True(t, b.IsDir(base))
	assert.True(t, b.IsDir("anything/"))
	assert.True(t, b.IsDir("."))
	assert.True(t, b.IsDir(""))
	assert.False(t, b.IsDir(filepath.Join(base, "missing.zip")))
}

func TestLocalJoin(t *testing.T) {
	b := NewLocalBackend()
	assert.Equal(t, filepath.Join("out", "x.zip"), b.Join("out", "x.zip"))
	assert.Equal(t, "x.zip", b.Join("", "x.zip"))
}
