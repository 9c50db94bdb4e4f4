package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tieubaoca/studytool-be/testutil"
	"github.com/tieubaoca/studytool-be/types"
)

func TestArtifactRepoFlashcardSet(t *testing.T) {
	ctx := context.Background()
	repo := NewArtifactRepo(testutil.DB(t))
	now := time.Now().UTC()

	set := &types.FlashcardSet{ID: uuid.NewString(), UserID: "alice", Source: types.SOURCE_TEXT, CreatedAt: now}
	for _, front := range []string{"third", "first", "second"} {
		set.Cards = append(set.Cards, types.Flashcard{ID: uuid.NewString(), SetID: set.ID, Front: front, Back: "b", CreatedAt: now})
	}
	require.NoError(t, repo.CreateFlashcardSet(ctx, set))

	got, err := repo.GetFlashcardSet(ctx, "alice", set.ID)
	require.NoError(t, err)
	require.Len(t, got.Cards, 3)
	assert.Equal(t, "third", got.Cards[0].Front)
	assert.Equal(t, "first", got.Cards[1].Front)
	assert.Equal(t, "second", got.Cards[2].Front)

	_, err = repo.GetFlashcardSet(ctx, "bob", set.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	sets, err := repo.ListFlashcardSets(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, 3, sets[0].CardCount)
	assert.Equal(t, set.ID, sets[0].SetID)

	sets, err = repo.ListFlashcardSets(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestArtifactRepoQuiz(t *testing.T) {
	ctx := context.Background()
	repo := NewArtifactRepo(testutil.DB(t))

	quiz := &types.Quiz{
		ID:        uuid.NewString(),
		UserID:    "alice",
		Title:     types.DEFAULT_QUIZ_TITLE,
		CreatedAt: time.Now().UTC(),
		Questions: []types.QuizQuestion{
			{ID: uuid.NewString(), Question: "2+2?", OptionA: "3", OptionB: "4", OptionC: "5", OptionD: "6", CorrectOption: 2},
			{ID: uuid.NewString(), Question: "Capital of France?", OptionA: "Paris", OptionB: "Rome", OptionC: "Oslo", OptionD: "Bern", CorrectOption: 1},
		},
	}
	require.NoError(t, repo.CreateQuiz(ctx, quiz))

	got, err := repo.GetQuiz(ctx, "alice", quiz.ID)
	require.NoError(t, err)
	require.Len(t, got.Questions, 2)
	assert.Equal(t, "2+2?", got.Questions[0].Question)
	assert.Equal(t, 2, got.Questions[0].CorrectOption)

	_, err = repo.GetQuiz(ctx, "bob", quiz.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	quizzes, err := repo.ListQuizzes(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	assert.Len(t, quizzes[0].Questions, 2)
}

func TestArtifactRepoSummaries(t *testing.T) {
	ctx := context.Background()
	repo := NewArtifactRepo(testutil.DB(t))

	older := &types.Summary{ID: uuid.NewString(), UserID: "alice", Summary: "old", SourceLength: 10, CreatedAt: time.Now().UTC().Add(-time.Hour)}
	newer := &types.Summary{ID: uuid.NewString(), UserID: "alice", Summary: "new", SourceLength: 20, CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.CreateSummary(ctx, older))
	require.NoError(t, repo.CreateSummary(ctx, newer))
	require.NoError(t, repo.CreateSummary(ctx, &types.Summary{ID: uuid.NewString(), UserID: "bob", Summary: "x", CreatedAt: time.Now().UTC()}))

	list, err := repo.ListSummaries(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].Summary)
	assert.Equal(t, "old", list[1].Summary)
}
