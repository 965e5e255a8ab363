package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAferoStore(t *testing.T) {
	memFs := afero.NewMemMapFs()
	store := NewAferoStore(memFs)
	ctx := context.Background()

	path := "resources/group-1/notes.pdf"
	content := "pretend this is a pdf"

	t.Run("Save", func(t *testing.T) {
		written, err := store.Save(ctx, path, bytes.NewReader([]byte(content)))
		require.NoError(t, err)
		assert.Equal(t, int64(len(content)), written)

		exists, err := afero.Exists(memFs, path)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("Open", func(t *testing.T) {
		f, err := store.Open(ctx, path)
		require.NoError(t, err)
		defer f.Close()

		read, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, content, string(read))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, path))

		exists, err := afero.Exists(memFs, path)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Open missing file fails", func(t *testing.T) {
		_, err := store.Open(ctx, "nope/missing.txt")
		assert.Error(t, err)
	})
}
