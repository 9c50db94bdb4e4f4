package types

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UploadResponse struct {
	ID               string    `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"originalFilename"`
	Size             int64     `json:"size"`
	UploadTime       time.Time `json:"uploadTime"`
}

type FileListResponse struct {
	Files []StoredFile `json:"files"`
}

type SummarizeResponse struct {
	ID        string    `json:"id"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
}

type ExplainResponse struct {
	Explanation string `json:"explanation"`
}

type FlashcardSetListResponse struct {
	Sets []FlashcardSetSummary `json:"sets"`
}

type QuizListResponse struct {
	Quizzes []Quiz `json:"quizzes"`
}

type SummaryListResponse struct {
	Summaries []Summary `json:"summaries"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
