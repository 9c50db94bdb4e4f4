package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/tieubaoca/studytool-be/database"
	"github.com/tieubaoca/studytool-be/types"
)

type flashcardDocument struct {
	ID        string    `bson:"id"`
	Front     string    `bson:"front"`
	Back      string    `bson:"back"`
	CreatedAt time.Time `bson:"created_at"`
}

type flashcardSetDocument struct {
	ID        string              `bson:"_id"`
	UserID    string              `bson:"user_id"`
	Source    string              `bson:"source"`
	CreatedAt time.Time           `bson:"created_at"`
	Cards     []flashcardDocument `bson:"cards"`
}

type quizQuestionDocument struct {
	ID            string `bson:"id"`
	Question      string `bson:"question"`
	OptionA       string `bson:"option_a"`
	OptionB       string `bson:"option_b"`
	OptionC       string `bson:"option_c"`
	OptionD       string `bson:"option_d"`
	CorrectOption int    `bson:"correct_option"`
}

type quizDocument struct {
	ID        string                 `bson:"_id"`
	UserID    string                 `bson:"user_id"`
	Title     string                 `bson:"title"`
	CreatedAt time.Time              `bson:"created_at"`
	Questions []quizQuestionDocument `bson:"questions"`
}

type summaryDocument struct {
	ID           string    `bson:"_id"`
	UserID       string    `bson:"user_id"`
	Summary      string    `bson:"summary"`
	SourceLength int       `bson:"source_length"`
	CreatedAt    time.Time `bson:"created_at"`
}

// mongoArtifactRepo stores each artifact as one document with its items
// embedded, so a single insert is all-or-nothing.
type mongoArtifactRepo struct {
	sets      *mongo.Collection
	quizzes   *mongo.Collection
	summaries *mongo.Collection
}

func NewMongoArtifactRepo(db *mongo.Database) ArtifactRepo {
	return &mongoArtifactRepo{
		sets:      db.Collection(database.FLASHCARD_SETS_COLLECTION),
		quizzes:   db.Collection(database.QUIZZES_COLLECTION),
		summaries: db.Collection(database.SUMMARIES_COLLECTION),
	}
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

func (r *mongoArtifactRepo) CreateFlashcardSet(ctx context.Context, set *types.FlashcardSet) error {
	doc := flashcardSetDocument{
		ID:        set.ID,
		UserID:    set.UserID,
		Source:    set.Source,
		CreatedAt: set.CreatedAt,
		Cards:     make([]flashcardDocument, 0, len(set.Cards)),
	}
	for _, c := range set.Cards {
		doc.Cards = append(doc.Cards, flashcardDocument{ID: c.ID, Front: c.Front, Back: c.Back, CreatedAt: c.CreatedAt})
	}
	if _, err := r.sets.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create flashcard set: %w", err)
	}
	return nil
}

func (r *mongoArtifactRepo) ListFlashcardSets(ctx context.Context, userID string) ([]types.FlashcardSetSummary, error) {
	cursor, err := r.sets.Find(ctx, bson.M{"user_id": userID}, newestFirst)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []types.FlashcardSetSummary{}
	for cursor.Next(ctx) {
		var doc flashcardSetDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, types.FlashcardSetSummary{
			SetID:     doc.ID,
			Source:    doc.Source,
			CreatedAt: doc.CreatedAt.UTC(),
			CardCount: len(doc.Cards),
		})
	}
	return out, cursor.Err()
}

func (r *mongoArtifactRepo) GetFlashcardSet(ctx context.Context, userID, setID string) (*types.FlashcardSet, error) {
	var doc flashcardSetDocument
	err := r.sets.FindOne(ctx, bson.M{"_id": setID, "user_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	set := &types.FlashcardSet{
		ID:        doc.ID,
		UserID:    doc.UserID,
		Source:    doc.Source,
		CreatedAt: doc.CreatedAt.UTC(),
		Cards:     make([]types.Flashcard, 0, len(doc.Cards)),
	}
	for _, c := range doc.Cards {
		set.Cards = append(set.Cards, types.Flashcard{
			ID:        c.ID,
			SetID:     doc.ID,
			Front:     c.Front,
			Back:      c.Back,
			CreatedAt: c.CreatedAt.UTC(),
		})
	}
	return set, nil
}

func (r *mongoArtifactRepo) CreateQuiz(ctx context.Context, quiz *types.Quiz) error {
	doc := quizDocument{
		ID:        quiz.ID,
		UserID:    quiz.UserID,
		Title:     quiz.Title,
		CreatedAt: quiz.CreatedAt,
		Questions: make([]quizQuestionDocument, 0, len(quiz.Questions)),
	}
	for _, q := range quiz.Questions {
		doc.Questions = append(doc.Questions, quizQuestionDocument{
			ID:            q.ID,
			Question:      q.Question,
			OptionA:       q.OptionA,
			OptionB:       q.OptionB,
			OptionC:       q.OptionC,
			OptionD:       q.OptionD,
			CorrectOption: q.CorrectOption,
		})
	}
	if _, err := r.quizzes.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	return nil
}

func (r *mongoArtifactRepo) ListQuizzes(ctx context.Context, userID string) ([]types.Quiz, error) {
	cursor, err := r.quizzes.Find(ctx, bson.M{"user_id": userID}, newestFirst)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []types.Quiz{}
	for cursor.Next(ctx) {
		var doc quizDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, docToQuiz(doc))
	}
	return out, cursor.Err()
}

func (r *mongoArtifactRepo) GetQuiz(ctx context.Context, userID, quizID string) (*types.Quiz, error) {
	var doc quizDocument
	err := r.quizzes.FindOne(ctx, bson.M{"_id": quizID, "user_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	quiz := docToQuiz(doc)
	return &quiz, nil
}

func (r *mongoArtifactRepo) CreateSummary(ctx context.Context, summary *types.Summary) error {
	doc := summaryDocument{
		ID:           summary.ID,
		UserID:       summary.UserID,
		Summary:      summary.Summary,
		SourceLength: summary.SourceLength,
		CreatedAt:    summary.CreatedAt,
	}
	if _, err := r.summaries.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create summary: %w", err)
	}
	return nil
}

func (r *mongoArtifactRepo) ListSummaries(ctx context.Context, userID string) ([]types.Summary, error) {
	cursor, err := r.summaries.Find(ctx, bson.M{"user_id": userID}, newestFirst)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []types.Summary{}
	for cursor.Next(ctx) {
		var doc summaryDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, types.Summary{
			ID:           doc.ID,
			UserID:       doc.UserID,
			Summary:      doc.Summary,
			SourceLength: doc.SourceLength,
			CreatedAt:    doc.CreatedAt.UTC(),
		})
	}
	return out, cursor.Err()
}

func docToQuiz(doc quizDocument) types.Quiz {
	quiz := types.Quiz{
		ID:        doc.ID,
		UserID:    doc.UserID,
		Title:     doc.Title,
		CreatedAt: doc.CreatedAt.UTC(),
		Questions: make([]types.QuizQuestion, 0, len(doc.Questions)),
	}
	for _, q := range doc.Questions {
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
