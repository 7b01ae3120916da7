package ollama

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mentor/pkg/llm"

	"github.com/ollama/ollama/api"
)

// OllamaClient wraps a local or remote Ollama server.
type OllamaClient struct {
	client  *api.Client
	model   string
	options map[string]any
}

// NewOllamaClient creates an Ollama client.
func NewOllamaClient(model string, baseURL string, options map[string]any) (*OllamaClient, error) {
	var client *api.Client
	var err error

	// Custom Transport to ensure no timeouts are imposed by the client;
	// deadlines come from the request context.
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 0,
	}

	customClient := &http.Client{
		Transport: transport,
		Timeout:   0,
	}

	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL: %w", err)
		}
		client = api.NewClient(u, customClient)
	} else {
		client, err = api.ClientFromEnvironment()
	}

	if err != nil {
		return nil, err
	}

	slog.Info("Ollama client initialized", "model", model, "base_url", baseURL)

	return &OllamaClient{
		client:  client,
		model:   model,
		options: options,
	}, nil
}

func (o *OllamaClient) Provider() string {
	return "ollama"
}

// Complete implements llm.Client.Complete with a non-streaming chat call.
func (o *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	return o.chat(ctx, prompt, "")
}

// CompleteStructured asks Ollama for JSON output and decodes the quiz payload.
func (o *OllamaClient) CompleteStructured(ctx context.Context, prompt string) (*llm.QuizPayload, error) {
	text, err := o.chat(ctx, prompt, "json")
	if err != nil {
		return nil, err
	}
	return llm.DecodeQuizPayload(o.Provider(), text)
}

func (o *OllamaClient) chat(ctx context.Context, prompt string, format string) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model: o.model,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
		Options: o.options,
		Stream:  &stream,
	}
	if format != "" {
		req.Format = []byte(fmt.Sprintf("%q", format))
	}

	var sb strings.Builder
	err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", llm.NewError(llm.KindUnavailable, o.Provider(), err)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", llm.NewError(llm.KindEmpty, o.Provider(), nil)
	}
	return text, nil
}

// IsTransientError implements llm.Client.
func (o *OllamaClient) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())

	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout") {
		return true
	}

	if strings.Contains(msg, "overloaded") {
		return true
	}

	return false
}
