package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// geminiClient is one authenticated connection to Gemini.
type geminiClient interface {
	generate(ctx context.Context, modelName string, temperature float32, systemPrompt, prompt string) (string, error)
	Close() error
}

type dialGemini func(ctx context.Context, apiKey string) (geminiClient, error)

// GeminiService rotates through its API keys whenever a call fails, so the
// caller's retry goes out on the next key. Each key keeps its own client for
// the life of the service, so rotating never closes a connection another
// request is still using.
type GeminiService struct {
	apiKeys     []string
	clients     []geminiClient
	currentKey  int
	dial        dialGemini
	modelName   string
	temperature float32
	mu          sync.Mutex
}

func NewGeminiService(apiKeys []string, modelName string, temperature float32) (*GeminiService, error) {
	return newGeminiService(apiKeys, modelName, temperature, dialGenAI)
}

func newGeminiService(apiKeys []string, modelName string, temperature float32, dial dialGemini) (*GeminiService, error) {
	if len(apiKeys) == 0 {
		return nil, errors.New("no API keys provided")
	}

	service := &GeminiService{
		apiKeys:     apiKeys,
		clients:     make([]geminiClient, len(apiKeys)),
		dial:        dial,
		modelName:   modelName,
		temperature: temperature,
	}
	if _, _, err := service.acquire(context.Background()); err != nil {
		return nil, err
	}
	return service, nil
}

// acquire returns the current key index and its client, dialing it on first
// use.
func (s *GeminiService) acquire(ctx context.Context) (int, geminiClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.currentKey
	if s.clients[idx] == nil {
		client, err := s.dial(ctx, s.apiKeys[idx])
		if err != nil {
			return idx, nil, err
		}
		s.clients[idx] = client
	}
	return idx, s.clients[idx], nil
}

// rotateFrom moves to the next key only if failed is still the current one,
// so concurrent failures on the same key advance it once.
func (s *GeminiService) rotateFrom(failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.apiKeys) > 1 && s.currentKey == failed {
		s.currentKey = (failed + 1) % len(s.apiKeys)
	}
}

func (s *GeminiService) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	idx, client, err := s.acquire(ctx)
	if err != nil {
		s.rotateFrom(idx)
		return "", err
	}
	text, err := client.generate(ctx, s.modelName, s.temperature, systemPrompt, prompt)
	if err != nil {
		if ctx.Err() == nil {
			s.rotateFrom(idx)
		}
		return "", err
	}
	return text, nil
}

// Close releases every client dialed so far.
func (s *GeminiService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for i, client := range s.clients {
		if client == nil {
			continue
		}
		errs = append(errs, client.Close())
		s.clients[i] = nil
	}
	return errors.Join(errs...)
}

type genaiClient struct {
	client *genai.Client
}

func dialGenAI(ctx context.Context, apiKey string) (geminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &genaiClient{client: client}, nil
}

func (c *genaiClient) Close() error { return c.client.Close() }

func (c *genaiClient) generate(ctx context.Context, modelName string, temperature float32, systemPrompt, prompt string) (string, error) {
	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	if systemPrompt != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("no response generated")
	}

	var content strings.Builder
	for _, cand := range resp.Candidates[:1] {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				content.WriteString(string(text))
			}
		}
	}
	if content.Len() == 0 {
		return "", errors.New("empty response")
	}
	return content.String(), nil
}
