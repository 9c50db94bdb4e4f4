package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tieubaoca/studytool-be/database"
	"github.com/tieubaoca/studytool-be/types"
)

// ArtifactRepo persists generated study artifacts. Every read is scoped to a
// user id; a row owned by someone else reads as types.ErrNotFound.
type ArtifactRepo interface {
	CreateFlashcardSet(ctx context.Context, set *types.FlashcardSet) error
	ListFlashcardSets(ctx context.Context, userID string) ([]types.FlashcardSetSummary, error)
	GetFlashcardSet(ctx context.Context, userID, setID string) (*types.FlashcardSet, error)

	CreateQuiz(ctx context.Context, quiz *types.Quiz) error
	ListQuizzes(ctx context.Context, userID string) ([]types.Quiz, error)
	GetQuiz(ctx context.Context, userID, quizID string) (*types.Quiz, error)

	CreateSummary(ctx context.Context, summary *types.Summary) error
	ListSummaries(ctx context.Context, userID string) ([]types.Summary, error)
}

type artifactRepo struct {
	db *gorm.DB
}

func NewArtifactRepo(db *gorm.DB) ArtifactRepo {
	return &artifactRepo{db: db}
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *artifactRepo) CreateFlashcardSet(ctx context.Context, set *types.FlashcardSet) error {
	row := database.FlashcardSet{
		ID:        set.ID,
		UserID:    set.UserID,
		Source:    set.Source,
		CreatedAt: set.CreatedAt,
		Cards:     make([]database.Flashcard, 0, len(set.Cards)),
	}
	for i, card := range set.Cards {
		row.Cards = append(row.Cards, database.Flashcard{
			ID:        card.ID,
			SetID:     set.ID,
			Position:  i,
			Front:     card.Front,
			Back:      card.Back,
			CreatedAt: card.CreatedAt,
		})
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Cards").Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create flashcard set: %w", err)
		}
		if len(row.Cards) > 0 {
			if err := tx.Create(&row.Cards).Error; err != nil {
				return fmt.Errorf("failed to create flashcards: %w", err)
			}
		}
		return nil
	})
}

func (r *artifactRepo) ListFlashcardSets(ctx context.Context, userID string) ([]types.FlashcardSetSummary, error) {
	var rows []database.FlashcardSet
	if err := r.db.WithContext(ctx).
		Preload("Cards", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "set_id")
		}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]types.FlashcardSetSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, types.FlashcardSetSummary{
			SetID:     row.ID,
			Source:    row.Source,
			CreatedAt: row.CreatedAt.UTC(),
			CardCount: len(row.Cards),
		})
	}
	return out, nil
}

func (r *artifactRepo) GetFlashcardSet(ctx context.Context, userID, setID string) (*types.FlashcardSet, error) {
	var row database.FlashcardSet
	err := r.db.WithContext(ctx).
		Preload("Cards", byPosition).
		Where("id = ? AND user_id = ?", setID, userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	set := &types.FlashcardSet{
		ID:        row.ID,
		UserID:    row.UserID,
		Source:    row.Source,
		CreatedAt: row.CreatedAt.UTC(),
		Cards:     make([]types.Flashcard, 0, len(row.Cards)),
	}
	for _, c := range row.Cards {
		set.Cards = append(set.Cards, types.Flashcard{
			ID:        c.ID,
			SetID:     c.SetID,
			Front:     c.Front,
			Back:      c.Back,
			CreatedAt: c.CreatedAt.UTC(),
		})
	}
	return set, nil
}

func (r *artifactRepo) CreateQuiz(ctx context.Context, quiz *types.Quiz) error {
	row := database.Quiz{
		ID:        quiz.ID,
		UserID:    quiz.UserID,
		Title:     quiz.Title,
		CreatedAt: quiz.CreatedAt,
		Questions: make([]database.QuizQuestion, 0, len(quiz.Questions)),
	}
	for i, q := range quiz.Questions {
		row.Questions = append(row.Questions, database.QuizQuestion{
			ID:            q.ID,
			QuizID:        quiz.ID,
			Position:      i,
			Question:      q.Question,
			OptionA:       q.OptionA,
			OptionB:       q.OptionB,
			OptionC:       q.OptionC,
			OptionD:       q.OptionD,
			CorrectOption: q.CorrectOption,
		})
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Questions").Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create quiz: %w", err)
		}
		if len(row.Questions) > 0 {
			if err := tx.Create(&row.Questions).Error; err != nil {
				return fmt.Errorf("failed to create quiz questions: %w", err)
			}
		}
		return nil
	})
}

func (r *artifactRepo) ListQuizzes(ctx context.Context, userID string) ([]types.Quiz, error) {
	var rows []database.Quiz
	if err := r.db.WithContext(ctx).
		Preload("Questions", byPosition).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]types.Quiz, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToQuiz(row))
	}
	return out, nil
}

func (r *artifactRepo) GetQuiz(ctx context.Context, userID, quizID string) (*types.Quiz, error) {
	var row database.Quiz
	err := r.db.WithContext(ctx).
		Preload("Questions", byPosition).
		Where("id = ? AND user_id = ?", quizID, userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	quiz := rowToQuiz(row)
	return &quiz, nil
}

func (r *artifactRepo) CreateSummary(ctx context.Context, summary *types.Summary) error {
	row := database.Summary{
		ID:           summary.ID,
		UserID:       summary.UserID,
		Summary:      summary.Summary,
		SourceLength: summary.SourceLength,
		CreatedAt:    summary.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create summary: %w", err)
	}
	return nil
}

func (r *artifactRepo) ListSummaries(ctx context.Context, userID string) ([]types.Summary, error) {
	var rows []database.Summary
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]types.Summary, 0, len(rows))
	for _, row := range rows {
		out = append(out, types.Summary{
			ID:           row.ID,
			UserID:       row.UserID,
			Summary:      row.Summary,
			SourceLength: row.SourceLength,
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return out, nil
}

func rowToQuiz(row database.Quiz) types.Quiz {
	quiz := types.Quiz{
		ID:        row.ID,
		UserID:    row.UserID,
		Title:     row.Title,
		CreatedAt: row.CreatedAt.UTC(),
		Questions: make([]types.QuizQuestion, 0, len(row.Questions)),
	}
	for _, q := range row.Questions {
		quiz.Questions = append(quiz.Questions, types.QuizQuestion{
			ID:            q.ID,
			Question:      q.Question,
			OptionA:       q.OptionA,
			OptionB:       q.OptionB,
			OptionC:       q.OptionC,
			OptionD:       q.OptionD,
			CorrectOption: q.CorrectOption,
		})
	}
	return quiz
}
