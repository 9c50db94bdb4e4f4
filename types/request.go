package types

type SummarizeRequest struct {
	Content string   `json:"content"`
	UserID  string   `json:"userId"`
	Files   []string `json:"files,omitempty"`
}

type FlashcardRequest struct {
	Content string   `json:"content"`
	UserID  string   `json:"userId"`
	Count   int      `json:"count"`
	Files   []string `json:"files,omitempty"`
}

type QuizRequest struct {
	Content       string   `json:"content"`
	UserID        string   `json:"userId"`
	QuestionCount int      `json:"questionCount"`
	Title         string   `json:"title,omitempty"`
	Files         []string `json:"files,omitempty"`
}

type ExplainRequest struct {
	Concept string `json:"concept"`
	Context string `json:"context"`
}

// GenerationRequest is the per-invocation input of the pipeline. It is never
// persisted.
type GenerationRequest struct {
	Kind    GenerationKind
	Content string
	Files   []string
	Count   int
	Title   string
}

func (r GenerationRequest) FileBased() bool {
	return len(r.Files) > 0
}
