package types

import "time"

// GenerationKind selects the prompt template and the output parser used for a
// generation request.
type GenerationKind string

const (
	KindSummary    GenerationKind = "summary"
	KindFlashcards GenerationKind = "flashcards"
	KindQuiz       GenerationKind = "quiz"
	KindExplain    GenerationKind = "explain"
)

const (
	SOURCE_TEXT  = "text"
	SOURCE_FILES = "files"
)

const (
	MIN_ITEM_COUNT     = 1
	MAX_ITEM_COUNT     = 20
	DEFAULT_QUIZ_TITLE = "Generated Quiz"
)

// StoredFile is the metadata of an uploaded document. StoredFilename is the
// only key used against the blob store.
type StoredFile struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	OriginalFilename string    `json:"originalFilename"`
	StoredFilename   string    `json:"storedFilename"`
	FileSize         int64     `json:"fileSize"`
	UploadTime       time.Time `json:"uploadTime"`
}

type Flashcard struct {
	ID        string    `json:"id"`
	SetID     string    `json:"setId"`
	Front     string    `json:"front"`
	Back      string    `json:"back"`
	CreatedAt time.Time `json:"createdAt"`
}

type FlashcardSet struct {
	ID        string      `json:"setId"`
	UserID    string      `json:"-"`
	Source    string      `json:"source"`
	CreatedAt time.Time   `json:"createdAt"`
	Cards     []Flashcard `json:"cards"`
}

// FlashcardSetSummary is the list view of a flashcard set.
type FlashcardSetSummary struct {
	SetID     string    `json:"setId"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
	CardCount int       `json:"cardCount"`
}

type QuizQuestion struct {
	ID            string `json:"id"`
	Question      string `json:"question"`
	OptionA       string `json:"optionA"`
	OptionB       string `json:"optionB"`
	OptionC       string `json:"optionC"`
	OptionD       string `json:"optionD"`
	CorrectOption int    `json:"correctOption"`
}

type Quiz struct {
	ID        string         `json:"id"`
	UserID    string         `json:"-"`
	Title     string         `json:"title"`
	Questions []QuizQuestion `json:"questions"`
	CreatedAt time.Time      `json:"createdAt"`
}

type Summary struct {
	ID           string    `json:"id"`
	UserID       string    `json:"-"`
	Summary      string    `json:"summary"`
	SourceLength int       `json:"sourceLength"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Validate checks the persisted-question invariant: non-empty question text,
// four non-empty options and a correct option in 1..4.
func (q QuizQuestion) Validate() error {
	if q.Question == "" {
		return ErrValidation
	}
	for _, opt := range []string{q.OptionA, q.OptionB, q.OptionC, q.OptionD} {
		if opt == "" {
			return ErrValidation
		}
	}
	if q.CorrectOption < 1 || q.CorrectOption > 4 {
		return ErrValidation
	}
	return nil
}
