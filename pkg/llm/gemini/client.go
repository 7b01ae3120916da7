package gemini

import (
	"context"
	"fmt"
	"strings"

	"mentor/pkg/llm"

	"google.golang.org/genai"
)

// GeminiClient wraps the Google Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini client with a single model and API key.
func NewGeminiClient(apiKey string, model string) (*GeminiClient, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

func (g *GeminiClient) Provider() string {
	return "gemini"
}

// Complete implements llm.Client.Complete with a single-shot generation call.
func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.2),
		TopP:            genai.Ptr[float32](0.9),
		MaxOutputTokens: 1024,
	}
	return g.generate(ctx, prompt, cfg)
}

// CompleteStructured forces JSON output and decodes the quiz payload.
func (g *GeminiClient) CompleteStructured(ctx context.Context, prompt string) (*llm.QuizPayload, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.35),
		TopP:             genai.Ptr[float32](0.9),
		MaxOutputTokens:  512,
		ResponseMIMEType: "application/json",
	}
	text, err := g.generate(ctx, prompt, cfg)
	if err != nil {
		return nil, err
	}
	return llm.DecodeQuizPayload(g.Provider(), text)
}

func (g *GeminiClient) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", llm.NewError(llm.KindUnavailable, g.Provider(), err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", llm.NewError(llm.KindBlocked, g.Provider(),
			fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason))
	}

	for _, cand := range resp.Candidates {
		if cand.FinishReason == genai.FinishReasonSafety {
			return "", llm.NewError(llm.KindBlocked, g.Provider(),
				fmt.Errorf("candidate blocked: %s", cand.FinishReason))
		}
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", llm.NewError(llm.KindEmpty, g.Provider(), nil)
	}
	return text, nil
}

// IsTransientError implements llm.Client.
func (g *GeminiClient) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())

	if strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "timeout") {
		return true
	}

	// 429 / 5xx are worth retrying; 400/401/403 are not.
	if strings.Contains(msg, "429") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "500") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "unavailable") ||
		strings.Contains(msg, "overloaded") {
		return true
	}

	return false
}
