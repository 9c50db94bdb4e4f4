package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tieubaoca/studytool-be/types"
	"github.com/tieubaoca/studytool-be/utils"
)

func TestFileServiceStoreFetchRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := asUser("alice")
	payload := buildPDF("Photosynthesis")

	stored, err := f.files.Store(ctx, "../../Biology Notes.PDF", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.True(t, utils.IsStorageName(stored.StoredFilename))
	assert.True(t, strings.HasSuffix(stored.StoredFilename, ".pdf"))
	assert.Equal(t, "Biology Notes.PDF", stored.OriginalFilename)
	assert.Equal(t, int64(len(payload)), stored.FileSize)
	assert.Equal(t, "alice", stored.UserID)

	data, meta, err := f.files.Fetch(ctx, stored.StoredFilename)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, stored.ID, meta.ID)

	files, err := f.files.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, stored.StoredFilename, files[0].StoredFilename)
}

func TestFileServiceStoreValidation(t *testing.T) {
	f := newFixture(t)
	ctx := asUser("alice")

	_, err := f.files.Store(ctx, "slides.pptx", strings.NewReader("x"))
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = f.files.Store(ctx, "empty.txt", strings.NewReader(""))
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = f.files.Store(ctx, "   ", strings.NewReader("x"))
	assert.ErrorIs(t, err, types.ErrValidation)

	big := bytes.Repeat([]byte("a"), int(DefaultDocumentServiceConfig.MaxUploadBytes)+1)
	_, err = f.files.Store(ctx, "big.txt", bytes.NewReader(big))
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = f.files.Store(context.Background(), "notes.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, types.ErrUnauthenticated)

	files, err := f.files.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFileServiceOwnerIsolation(t *testing.T) {
	f := newFixture(t)
	alice := asUser("alice")
	bob := asUser("bob")
	name := f.store(t, alice, "notes.txt", []byte("alice's notes"))

	_, _, err := f.files.Fetch(bob, name)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = f.files.ExtractText(bob, name)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, f.files.Delete(bob, name), types.ErrNotFound)

	files, err := f.files.List(bob)
	require.NoError(t, err)
	assert.Empty(t, files)

	// still intact for the owner
	text, err := f.files.ExtractText(alice, name)
	require.NoError(t, err)
	assert.Equal(t, "alice's notes", text)
}

func TestFileServiceRejectsNonStorageNames(t *testing.T) {
	f := newFixture(t)
	ctx := asUser("alice")
	f.store(t, ctx, "notes.txt", []byte("hello"))

	for _, name := range []string{"../notes.txt", "notes.txt", "", "a/b.txt"} {
		_, _, err := f.files.Fetch(ctx, name)
		assert.ErrorIs(t, err, types.ErrNotFound, name)
	}
}

func TestFileServiceDelete(t *testing.T) {
	f := newFixture(t)
	ctx := asUser("alice")
	name := f.store(t, ctx, "notes.md", []byte("# Heading"))

	require.NoError(t, f.files.Delete(ctx, name))

	_, _, err := f.files.Fetch(ctx, name)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = f.blobs.Get(context.Background(), name)
	assert.Error(t, err)

	assert.ErrorIs(t, f.files.Delete(ctx, name), types.ErrNotFound)
}

func TestFileServiceExtractTextUsesCache(t *testing.T) {
	f := newFixture(t)
	ctx := asUser("alice")
	name := f.store(t, ctx, "lesson.txt", []byte("Mitosis has four phases"))

	text, err := f.files.ExtractText(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, "Mitosis has four phases", text)
	assert.Equal(t, 0, f.cache.hits)

	text, err = f.files.ExtractText(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, "Mitosis has four phases", text)
	assert.Equal(t, 1, f.cache.hits)

	require.NoError(t, f.files.Delete(ctx, name))
	_, cached := f.cache.entries[name]
	assert.False(t, cached)
}

func TestFileServiceExtractTextErrors(t *testing.T) {
	f := newFixture(t)
	ctx := asUser("alice")

	binary := f.store(t, ctx, "broken.txt", []byte{0xff, 0xfe, 0x00, 0x81})
	_, err := f.files.ExtractText(ctx, binary)
	assert.ErrorIs(t, err, types.ErrDecode)

	scanned := f.store(t, ctx, "scan.pdf", buildPDF(""))
	_, err = f.files.ExtractText(ctx, scanned)
	assert.ErrorIs(t, err, types.ErrExtraction)

	// metadata whose payload vanished reads as missing
	orphan := f.store(t, ctx, "gone.txt", []byte("soon gone"))
	require.NoError(t, f.blobs.Delete(context.Background(), orphan))
	_, err = f.files.ExtractText(ctx, orphan)
	assert.ErrorIs(t, err, types.ErrNotFound)
}
