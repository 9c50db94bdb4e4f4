package storage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	payload := []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0xff, 0x10}
	require.NoError(t, store.Put(ctx, "abc.pdf", payload))

	got, err := store.Get(ctx, "abc.pdf")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	require.NoError(t, store.Delete(ctx, "abc.pdf"))
	_, err = store.Get(ctx, "abc.pdf")
	assert.ErrorIs(t, err, ErrBlobNotFound)

	// deleting again is a no-op
	assert.NoError(t, store.Delete(ctx, "abc.pdf"))
}

func TestLocalStoreRejectsPathKeys(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	assert.ErrorIs(t, store.Put(ctx, "../escape.txt", []byte("x")), ErrBlobNotFound)
	_, err = store.Get(ctx, "sub/../../etc/passwd")
	assert.ErrorIs(t, err, ErrBlobNotFound)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
