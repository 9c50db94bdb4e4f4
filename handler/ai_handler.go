package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tieubaoca/studytool-be/logger"
	"github.com/tieubaoca/studytool-be/service"
	"github.com/tieubaoca/studytool-be/types"
)

const (
	HeaderRequestedCount    = "X-Requested-Count"
	HeaderReturnedCount     = "X-Returned-Count"
	HeaderGenerationWarning = "X-Generation-Warning"
	HeaderSkippedFiles      = "X-Skipped-Files"
)

type AIHandler struct {
	pipeline  service.Pipeline
	artifacts service.ArtifactService
	// trustBodyUserID lets the legacy userId body/query field stand in for
	// identity when no header or token is present.
	trustBodyUserID bool
	log             *logger.Logger
}

func NewAIHandler(pipeline service.Pipeline, artifacts service.ArtifactService, trustBodyUserID bool, log *logger.Logger) *AIHandler {
	return &AIHandler{
		pipeline:        pipeline,
		artifacts:       artifacts,
		trustBodyUserID: trustBodyUserID,
		log:             log.With("handler", "AIHandler"),
	}
}

// principalContext returns the request context carrying a principal, or
// writes a 401 and returns false.
func (h *AIHandler) principalContext(c *gin.Context, legacyUserID string) (context.Context, bool) {
	ctx := c.Request.Context()
	if _, ok := types.PrincipalFromContext(ctx); ok {
		return ctx, true
	}
	if h.trustBodyUserID {
		if userID := strings.TrimSpace(legacyUserID); userID != "" {
			return types.WithPrincipal(ctx, types.Principal{UserID: userID}), true
		}
	}
	c.JSON(http.StatusUnauthorized, types.ErrorResponse{Error: "User ID is required"})
	return nil, false
}

func writeOutcomeHeaders(c *gin.Context, out service.Outcome) {
	if len(out.Skipped) > 0 {
		names := make([]string, 0, len(out.Skipped))
		for _, s := range out.Skipped {
			names = append(names, s.StorageName)
		}
		c.Header(HeaderSkippedFiles, strings.Join(names, ","))
	}
	if out.Requested == 0 {
		return
	}
	c.Header(HeaderRequestedCount, strconv.Itoa(out.Requested))
	c.Header(HeaderReturnedCount, strconv.Itoa(out.Returned))
	if out.Shortfall() {
		c.Header(HeaderGenerationWarning, fmt.Sprintf("returned %d of %d requested items", out.Returned, out.Requested))
	}
}

func (h *AIHandler) HandleSummarize(c *gin.Context) {
	var req types.SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Invalid request body"})
		return
	}
	ctx, ok := h.principalContext(c, req.UserID)
	if !ok {
		return
	}

	res, err := h.pipeline.Summarize(ctx, types.GenerationRequest{
		Content: req.Content,
		Files:   req.Files,
	})
	writeOutcomeHeaders(c, res.Outcome)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, types.SummarizeResponse{
		ID:        res.Summary.ID,
		Summary:   res.Summary.Summary,
		CreatedAt: res.Summary.CreatedAt,
	})
}

func (h *AIHandler) HandleFlashcards(c *gin.Context) {
	var req types.FlashcardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Invalid request body"})
		return
	}
	ctx, ok := h.principalContext(c, req.UserID)
	if !ok {
		return
	}

	res, err := h.pipeline.GenerateFlashcards(ctx, types.GenerationRequest{
		Content: req.Content,
		Files:   req.Files,
		Count:   req.Count,
	})
	writeOutcomeHeaders(c, res.Outcome)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res.Set.Cards)
}

func (h *AIHandler) HandleQuiz(c *gin.Context) {
	var req types.QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Invalid request body"})
		return
	}
	ctx, ok := h.principalContext(c, req.UserID)
	if !ok {
		return
	}

	res, err := h.pipeline.GenerateQuiz(ctx, types.GenerationRequest{
		Content: req.Content,
		Files:   req.Files,
		Count:   req.QuestionCount,
		Title:   req.Title,
	})
	writeOutcomeHeaders(c, res.Outcome)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res.Quiz)
}

func (h *AIHandler) HandleExplain(c *gin.Context) {
	var req types.ExplainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "Invalid request body"})
		return
	}
	explanation, err := h.pipeline.Explain(c.Request.Context(), req.Concept, req.Context)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, types.ExplainResponse{Explanation: explanation})
}

func (h *AIHandler) HandleListFlashcardSets(c *gin.Context) {
	ctx, ok := h.principalContext(c, c.Query("userId"))
	if !ok {
		return
	}
	sets, err := h.artifacts.ListFlashcardSets(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, types.FlashcardSetListResponse{Sets: sets})
}

func (h *AIHandler) HandleGetFlashcardSet(c *gin.Context) {
	ctx, ok := h.principalContext(c, c.Query("userId"))
	if !ok {
		return
	}
	set, err := h.artifacts.GetFlashcardSet(ctx, c.Param("setId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

func (h *AIHandler) HandleListQuizzes(c *gin.Context) {
	ctx, ok := h.principalContext(c, c.Query("userId"))
	if !ok {
		return
	}
	quizzes, err := h.artifacts.ListQuizzes(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, types.QuizListResponse{Quizzes: quizzes})
}

func (h *AIHandler) HandleGetQuiz(c *gin.Context) {
	ctx, ok := h.principalContext(c, c.Query("userId"))
	if !ok {
		return
	}
	quiz, err := h.artifacts.GetQuiz(ctx, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

func (h *AIHandler) HandleListSummaries(c *gin.Context) {
	ctx, ok := h.principalContext(c, c.Query("userId"))
	if !ok {
		return
	}
	summaries, err := h.artifacts.ListSummaries(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, types.SummaryListResponse{Summaries: summaries})
}
