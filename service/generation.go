package service

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/tieubaoca/studytool-be/logger"
	"github.com/tieubaoca/studytool-be/types"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var promptTemplates = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

// PromptData fills a prompt template. Count is ignored by the summary and
// explain templates; Concept is only used by explain.
type PromptData struct {
	Content string
	Count   int
	Concept string
}

// GenerationRequester renders the prompt for a kind and returns the model's
// raw, unvalidated output.
type GenerationRequester interface {
	Request(ctx context.Context, kind types.GenerationKind, data PromptData) (string, error)
}

type generationRequester struct {
	ai      AIService
	timeout time.Duration
	backoff time.Duration
	log     *logger.Logger
}

func NewGenerationRequester(ai AIService, timeout, backoff time.Duration, log *logger.Logger) GenerationRequester {
	return &generationRequester{
		ai:      ai,
		timeout: timeout,
		backoff: backoff,
		log:     log.With("service", "GenerationRequester"),
	}
}

func renderPrompt(kind types.GenerationKind, data PromptData) (string, error) {
	tmpl := promptTemplates.Lookup(string(kind) + ".tmpl")
	if tmpl == nil {
		return "", fmt.Errorf("no prompt template for kind %q", kind)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", kind, err)
	}
	return buf.String(), nil
}

func systemPrompt() string {
	var buf bytes.Buffer
	_ = promptTemplates.ExecuteTemplate(&buf, "system.tmpl", nil)
	return strings.TrimSpace(buf.String())
}

// Request makes at most two attempts, each bounded by the configured
// timeout, with one backoff pause between them. Cancellation of ctx ends the
// call at once and is returned as is.
func (r *generationRequester) Request(ctx context.Context, kind types.GenerationKind, data PromptData) (string, error) {
	prompt, err := renderPrompt(kind, data)
	if err != nil {
		return "", err
	}
	system := systemPrompt()

	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		start := time.Now()
		raw, err := r.attempt(ctx, system, prompt)
		if err == nil {
			r.log.Debug("Model call succeeded", "kind", kind, "attempt", attempt, "elapsed", time.Since(start), "output_len", len(raw))
			return raw, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		lastErr = err
		r.log.Warn("Model call failed", "kind", kind, "attempt", attempt, "elapsed", time.Since(start), "error", err)

		if attempt == 1 {
			select {
			case <-time.After(r.backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", fmt.Errorf("%w: %v", types.ErrGenerationUnavailable, lastErr)
}

func (r *generationRequester) attempt(ctx context.Context, system, prompt string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.ai.Generate(attemptCtx, system, prompt)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("model call timed out after %s", r.timeout)
		}
		return "", err
	}
	return raw, nil
}
