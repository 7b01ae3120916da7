package openailm

import (
	"context"
	"fmt"
	"strings"

	"mentor/pkg/llm"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Client is a wrapper around the official OpenAI Go SDK. It also serves
// OpenAI-compatible endpoints via a custom base URL.
type Client struct {
	client   *openai.Client
	provider string
	model    string
}

// NewClient creates a new OpenAI client.
func NewClient(provider string, apiKey string, model string, baseURL string) (*Client, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(opts...)

	return &Client{
		client:   &client,
		provider: provider,
		model:    model,
	}, nil
}

func (c *Client) Provider() string {
	return c.provider
}

// Complete implements llm.Client.Complete.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.chat(ctx, prompt)
}

// CompleteStructured implements llm.Client.CompleteStructured. The prompt
// itself demands strict JSON; the decoder tolerates fences and extra prose.
func (c *Client) CompleteStructured(ctx context.Context, prompt string) (*llm.QuizPayload, error) {
	text, err := c.chat(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return llm.DecodeQuizPayload(c.provider, text)
}

func (c *Client) chat(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", llm.NewError(llm.KindUnavailable, c.provider, err)
	}

	if len(resp.Choices) == 0 {
		return "", llm.NewError(llm.KindEmpty, c.provider, nil)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return "", llm.NewError(llm.KindBlocked, c.provider,
			fmt.Errorf("finish_reason: %s", choice.FinishReason))
	}

	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		return "", llm.NewError(llm.KindEmpty, c.provider, nil)
	}
	return text, nil
}

// IsTransientError implements llm.Client.
func (c *Client) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())

	// Transient: network-level issues
	if strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "timeout") {
		return true
	}

	// Transient: server-side temporary failures
	if strings.Contains(msg, "429") ||
		strings.Contains(msg, "500 internal") ||
		strings.Contains(msg, "502 bad gateway") ||
		strings.Contains(msg, "503 service unavailable") ||
		strings.Contains(msg, "overloaded") {
		return true
	}

	// Everything else (400 Bad Request, 401 Unauthorized, etc.) is non-transient
	return false
}
