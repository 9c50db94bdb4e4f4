package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tieubaoca/studytool-be/testutil"
	"github.com/tieubaoca/studytool-be/types"
)

func newFile(userID, stored string, at time.Time) *types.StoredFile {
	return &types.StoredFile{
		ID:               uuid.NewString(),
		UserID:           userID,
		OriginalFilename: "notes.txt",
		StoredFilename:   stored,
		FileSize:         12,
		UploadTime:       at,
	}
}

func noop() error { return nil }

func TestFileRepoCreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewFileRepo(testutil.DB(t))

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, newFile("alice", "b.txt", base.Add(time.Second)), noop))
	require.NoError(t, repo.Create(ctx, newFile("alice", "a.txt", base), noop))
	require.NoError(t, repo.Create(ctx, newFile("bob", "c.txt", base), noop))

	files, err := repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.txt", files[0].StoredFilename)
	assert.Equal(t, "b.txt", files[1].StoredFilename)

	files, err = repo.ListByUser(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFileRepoCreateRollsBackWhenPayloadFails(t *testing.T) {
	ctx := context.Background()
	repo := NewFileRepo(testutil.DB(t))

	boom := errors.New("disk full")
	err := repo.Create(ctx, newFile("alice", "x.pdf", time.Now().UTC()), func() error { return boom })
	assert.ErrorIs(t, err, boom)

	_, err = repo.GetByStoredName(ctx, "alice", "x.pdf")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestFileRepoOwnershipIsolation(t *testing.T) {
	ctx := context.Background()
	repo := NewFileRepo(testutil.DB(t))
	require.NoError(t, repo.Create(ctx, newFile("alice", "x.pdf", time.Now().UTC()), noop))

	_, err := repo.GetByStoredName(ctx, "bob", "x.pdf")
	assert.ErrorIs(t, err, types.ErrNotFound)

	err = repo.Delete(ctx, "bob", "x.pdf", noop)
	assert.ErrorIs(t, err, types.ErrNotFound)

	got, err := repo.GetByStoredName(ctx, "alice", "x.pdf")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserID)
}

func TestFileRepoDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewFileRepo(testutil.DB(t))
	require.NoError(t, repo.Create(ctx, newFile("alice", "x.pdf", time.Now().UTC()), noop))

	boom := errors.New("blob store down")
	err := repo.Delete(ctx, "alice", "x.pdf", func() error { return boom })
	assert.ErrorIs(t, err, boom)
	_, err = repo.GetByStoredName(ctx, "alice", "x.pdf")
	require.NoError(t, err, "metadata must survive a failed payload removal")

	require.NoError(t, repo.Delete(ctx, "alice", "x.pdf", noop))
	assert.ErrorIs(t, repo.Delete(ctx, "alice", "x.pdf", noop), types.ErrNotFound)
}

func TestFileRepoDeleteCommitsBeforePayloadRemoval(t *testing.T) {
	ctx := context.Background()
	repo := NewFileRepo(testutil.DB(t))
	original := newFile("alice", "x.pdf", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, original, noop))

	var seenDuringRemoval error
	boom := errors.New("blob store down")
	err := repo.Delete(ctx, "alice", "x.pdf", func() error {
		_, seenDuringRemoval = repo.GetByStoredName(ctx, "alice", "x.pdf")
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, seenDuringRemoval, types.ErrNotFound)

	restored, err := repo.GetByStoredName(ctx, "alice", "x.pdf")
	require.NoError(t, err)
	assert.Equal(t, *original, *restored)
}
