package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tieubaoca/studytool-be/logger"
	"github.com/tieubaoca/studytool-be/repository"
	"github.com/tieubaoca/studytool-be/types"
)

// ArtifactService stores validated study artifacts for the principal in ctx.
type ArtifactService interface {
	SaveFlashcardSet(ctx context.Context, source string, cards []types.Flashcard) (*types.FlashcardSet, error)
	SaveQuiz(ctx context.Context, title string, questions []types.QuizQuestion) (*types.Quiz, error)
	SaveSummary(ctx context.Context, summary string, sourceLength int) (*types.Summary, error)

	ListFlashcardSets(ctx context.Context) ([]types.FlashcardSetSummary, error)
	GetFlashcardSet(ctx context.Context, setID string) (*types.FlashcardSet, error)
	ListQuizzes(ctx context.Context) ([]types.Quiz, error)
	GetQuiz(ctx context.Context, quizID string) (*types.Quiz, error)
	ListSummaries(ctx context.Context) ([]types.Summary, error)
}

type artifactService struct {
	repo repository.ArtifactRepo
	log  *logger.Logger
}

func NewArtifactService(repo repository.ArtifactRepo, log *logger.Logger) ArtifactService {
	return &artifactService{
		repo: repo,
		log:  log.With("service", "ArtifactService"),
	}
}

func (s *artifactService) SaveFlashcardSet(ctx context.Context, source string, cards []types.Flashcard) (*types.FlashcardSet, error) {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: flashcard set is empty", types.ErrValidation)
	}

	now := time.Now().UTC()
	set := &types.FlashcardSet{
		ID:        uuid.NewString(),
		UserID:    userID,
		Source:    source,
		CreatedAt: now,
		Cards:     make([]types.Flashcard, 0, len(cards)),
	}
	for i, card := range cards {
		if strings.TrimSpace(card.Front) == "" || strings.TrimSpace(card.Back) == "" {
			return nil, fmt.Errorf("%w: flashcard %d has an empty side", types.ErrValidation, i)
		}
		set.Cards = append(set.Cards, types.Flashcard{
			ID:        uuid.NewString(),
			SetID:     set.ID,
			Front:     card.Front,
			Back:      card.Back,
			CreatedAt: now,
		})
	}
	if err := s.repo.CreateFlashcardSet(ctx, set); err != nil {
		return nil, err
	}
	s.log.Info("Saved flashcard set", "user_id", userID, "set_id", set.ID, "cards", len(set.Cards))
	return set, nil
}

func (s *artifactService) SaveQuiz(ctx context.Context, title string, questions []types.QuizQuestion) (*types.Quiz, error) {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: quiz has no questions", types.ErrValidation)
	}
	if title = strings.TrimSpace(title); title == "" {
		title = types.DEFAULT_QUIZ_TITLE
	}

	quiz := &types.Quiz{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
		Questions: make([]types.QuizQuestion, 0, len(questions)),
	}
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		q.ID = uuid.NewString()
		quiz.Questions = append(quiz.Questions, q)
	}
	if err := s.repo.CreateQuiz(ctx, quiz); err != nil {
		return nil, err
	}
	s.log.Info("Saved quiz", "user_id", userID, "quiz_id", quiz.ID, "questions", len(quiz.Questions))
	return quiz, nil
}

func (s *artifactService) SaveSummary(ctx context.Context, summary string, sourceLength int) (*types.Summary, error) {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return nil, err
	}
	row := &types.Summary{
		ID:           uuid.NewString(),
		UserID:       userID,
		Summary:      summary,
		SourceLength: sourceLength,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateSummary(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *artifactService) ListFlashcardSets(ctx context.Context) ([]types.FlashcardSetSummary, error) {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListFlashcardSets(ctx, userID)
}

func (s *artifactService) GetFlashcardSet(ctx context.Context, setID string) (*types.FlashcardSet, error) {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetFlashcardSet(ctx, userID, setID)
}

func (s *artifactService) ListQuizzes(ctx context.Context) ([]types.Quiz, error) {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListQuizzes(ctx, userID)
}

func (s *artifactService) GetQuiz(ctx context.Context, quizID string) (*types.Quiz, error) {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetQuiz(ctx, userID, quizID)
}

func (s *artifactService) ListSummaries(ctx context.Context) ([]types.Summary, error) {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListSummaries(ctx, userID)
}
