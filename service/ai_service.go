package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/tieubaoca/studytool-be/config"
)

// AIService is a text-to-text model backend. The output is untrusted and is
// never interpreted here.
type AIService interface {
	Generate(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// NewAIService builds the backend selected by cfg.Provider.
func NewAIService(cfg config.AIConfig) (AIService, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIService(cfg.Endpoint, cfg.OpenAIAPIKey, cfg.Model, cfg.Temperature), nil
	case "gemini":
		return NewGeminiService(splitKeys(cfg.GeminiAPIKey), cfg.Model, cfg.Temperature)
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.Provider)
	}
}

func splitKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
