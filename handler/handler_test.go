package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tieubaoca/studytool-be/middleware"
	"github.com/tieubaoca/studytool-be/repository"
	"github.com/tieubaoca/studytool-be/service"
	"github.com/tieubaoca/studytool-be/storage"
	"github.com/tieubaoca/studytool-be/testutil"
	"github.com/tieubaoca/studytool-be/types"
	"github.com/tieubaoca/studytool-be/utils"
)

const testSecret = "test-secret"

type scriptedAI struct {
	mu    sync.Mutex
	reply string
	calls int
}

func (a *scriptedAI) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return a.reply, nil
}

func newTestRouter(t *testing.T, ai service.AIService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.DB(t)
	blobs, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	log := testutil.Logger(t)

	files := service.NewFileService(service.DefaultDocumentServiceConfig, repository.NewFileRepo(db), blobs, service.NewTextExtractor(), nil, log)
	artifacts := service.NewArtifactService(repository.NewArtifactRepo(db), log)
	pipeline := service.NewPipeline(
		service.NewContentAggregator(files, 2, log),
		service.NewGenerationRequester(ai, time.Second, time.Millisecond, log),
		artifacts,
		log,
	)

	fileHandler := NewFileHandler(files, service.DefaultDocumentServiceConfig.MaxUploadBytes, log)
	aiHandler := NewAIHandler(pipeline, artifacts, true, log)

	router := gin.New()
	router.Use(middleware.Identity(middleware.IdentityConfig{JWTSecret: testSecret, TrustUserHeader: true}, log))
	router.GET("/healthz", HandleHealth)

	fg := router.Group("/api/files", middleware.RequirePrincipal())
	fg.POST("/upload", fileHandler.HandleUpload)
	fg.GET("", fileHandler.HandleList)
	fg.GET("/text/:name", fileHandler.HandleText)
	fg.GET("/:name", fileHandler.HandleDownload)
	fg.DELETE("/:name", fileHandler.HandleDelete)

	ag := router.Group("/api/ai")
	ag.POST("/summarize", aiHandler.HandleSummarize)
	ag.POST("/flashcards", aiHandler.HandleFlashcards)
	ag.POST("/quiz", aiHandler.HandleQuiz)
	ag.POST("/explain", aiHandler.HandleExplain)
	ag.GET("/flashcards", aiHandler.HandleListFlashcardSets)
	ag.GET("/flashcards/:setId", aiHandler.HandleGetFlashcardSet)
	ag.GET("/quizzes", aiHandler.HandleListQuizzes)
	ag.GET("/quizzes/:id", aiHandler.HandleGetQuiz)
	ag.GET("/summaries", aiHandler.HandleListSummaries)
	return router
}

func upload(t *testing.T, router http.Handler, userID, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(middleware.UserIDHeader, userID)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func do(router http.Handler, method, path, userID string, payload any) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(middleware.UserIDHeader, userID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// onePagePDF is a minimal single-page PDF whose text layer is text.
func onePagePDF(text string) []byte {
	var buf bytes.Buffer
	var offsets []int
	object := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}
	content := fmt.Sprintf("BT /F1 24 Tf 72 720 Td (%s) Tj ET", text)

	buf.WriteString("%PDF-1.4\n")
	object("<< /Type /Catalog /Pages 2 0 R >>")
	object("<< /Type /Pages /Kids [4 0 R] /Count 1 >>")
	object("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	object("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents 5 0 R >>")
	object(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, &scriptedAI{})
	rec := do(router, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestUploadTextThenFlashcards(t *testing.T) {
	ai := &scriptedAI{reply: "```json\n[{\"front\":\"Photosynthesis\",\"back\":\"Light to sugar\"},{\"front\":\"Chlorophyll\",\"back\":\"Green pigment\"}]\n```"}
	router := newTestRouter(t, ai)
	pdf := onePagePDF("Photosynthesis")

	rec := upload(t, router, "alice", "bio.pdf", pdf)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var uploaded types.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))
	assert.True(t, utils.IsStorageName(uploaded.Filename))
	assert.Equal(t, "bio.pdf", uploaded.OriginalFilename)
	assert.Equal(t, int64(len(pdf)), uploaded.Size)

	rec = do(router, http.MethodGet, "/api/files/text/"+uploaded.Filename, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Photosynthesis")

	rec = do(router, http.MethodGet, "/api/files/"+uploaded.Filename, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pdf, rec.Body.Bytes())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "bio.pdf")

	rec = do(router, http.MethodPost, "/api/ai/flashcards", "alice", map[string]any{
		"files": []string{uploaded.Filename},
		"count": 3,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cards []types.Flashcard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cards))
	require.Len(t, cards, 2)
	assert.Equal(t, "Photosynthesis", cards[0].Front)
	assert.Equal(t, "3", rec.Header().Get(HeaderRequestedCount))
	assert.Equal(t, "2", rec.Header().Get(HeaderReturnedCount))
	assert.NotEmpty(t, rec.Header().Get(HeaderGenerationWarning))

	rec = do(router, http.MethodGet, "/api/ai/flashcards", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sets types.FlashcardSetListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sets))
	require.Len(t, sets.Sets, 1)
	assert.Equal(t, 2, sets.Sets[0].CardCount)

	rec = do(router, http.MethodGet, "/api/ai/flashcards/"+sets.Sets[0].SetID, "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFileOwnershipAndDelete(t *testing.T) {
	router := newTestRouter(t, &scriptedAI{})

	rec := upload(t, router, "alice", "notes.txt", []byte("private notes"))
	require.Equal(t, http.StatusOK, rec.Code)
	var uploaded types.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))

	rec = do(router, http.MethodGet, "/api/files/"+uploaded.Filename, "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(router, http.MethodDelete, "/api/files/"+uploaded.Filename, "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(router, http.MethodGet, "/api/files", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"files":[]}`, rec.Body.String())

	rec = do(router, http.MethodDelete, "/api/files/"+uploaded.Filename, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"File deleted successfully"}`, rec.Body.String())

	rec = do(router, http.MethodDelete, "/api/files/"+uploaded.Filename, "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadRejections(t *testing.T) {
	router := newTestRouter(t, &scriptedAI{})

	rec := upload(t, router, "alice", "slides.pptx", []byte("x"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload(t, router, "alice", "empty.txt", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload(t, router, "", "notes.txt", []byte("x"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/files/upload", strings.NewReader("not multipart"))
	req.Header.Set(middleware.UserIDHeader, "alice")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUndecodableTextIs422(t *testing.T) {
	router := newTestRouter(t, &scriptedAI{})
	rec := upload(t, router, "alice", "binary.txt", []byte{0xff, 0xfe, 0xfd})
	require.Equal(t, http.StatusOK, rec.Code)
	var uploaded types.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))

	rec = do(router, http.MethodGet, "/api/files/text/"+uploaded.Filename, "alice", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(router, http.MethodPost, "/api/ai/summarize", "alice", map[string]any{"files": []string{uploaded.Filename}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, uploaded.Filename, rec.Header().Get(HeaderSkippedFiles))
}

func TestQuizValidation(t *testing.T) {
	ai := &scriptedAI{reply: "[]"}
	router := newTestRouter(t, ai)

	rec := do(router, http.MethodPost, "/api/ai/quiz", "alice", map[string]any{"content": "", "questionCount": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodPost, "/api/ai/quiz", "alice", map[string]any{"content": "cells", "questionCount": 21})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodPost, "/api/ai/quiz", "", map[string]any{"content": "cells", "questionCount": 3})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, 0, ai.calls)
}

func TestQuizWithBodyUserID(t *testing.T) {
	ai := &scriptedAI{reply: `[{"question":"Q?","optionA":"a","optionB":"b","optionC":"c","optionD":"d","correctOption":"D"}]`}
	router := newTestRouter(t, ai)

	rec := do(router, http.MethodPost, "/api/ai/quiz", "", map[string]any{
		"content":       "cells",
		"questionCount": 1,
		"title":         "Cells",
		"userId":        "carol",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var quiz types.Quiz
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quiz))
	assert.Equal(t, "Cells", quiz.Title)
	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, 4, quiz.Questions[0].CorrectOption)
	assert.Empty(t, rec.Header().Get(HeaderGenerationWarning))

	rec = do(router, http.MethodGet, "/api/ai/quizzes/"+quiz.ID+"?userId=carol", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGenerationParseFailureIs502(t *testing.T) {
	router := newTestRouter(t, &scriptedAI{reply: "I'd rather not."})

	rec := do(router, http.MethodPost, "/api/ai/flashcards", "alice", map[string]any{"content": "cells", "count": 2})
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = do(router, http.MethodGet, "/api/ai/flashcards", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sets":[]}`, rec.Body.String())
}

func TestSummarizeAndExplain(t *testing.T) {
	router := newTestRouter(t, &scriptedAI{reply: "Short summary."})

	rec := do(router, http.MethodPost, "/api/ai/summarize", "alice", map[string]any{"content": "Long text."})
	require.Equal(t, http.StatusOK, rec.Code)
	var summary types.SummarizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "Short summary.", summary.Summary)
	assert.NotEmpty(t, summary.ID)

	rec = do(router, http.MethodGet, "/api/ai/summaries", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Short summary.")

	rec = do(router, http.MethodPost, "/api/ai/explain", "", map[string]any{"concept": "osmosis"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"explanation":"Short summary."}`, rec.Body.String())

	rec = do(router, http.MethodPost, "/api/ai/explain", "", map[string]any{"concept": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBearerToken(t *testing.T) {
	router := newTestRouter(t, &scriptedAI{})

	token, err := utils.GenerateUserToken(testSecret, "dave", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
