package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ErrorKind classifies completion failures. The router maps every kind to the
// degraded-mode message; the quiz pipeline maps every kind to the local bank.
type ErrorKind int

const (
	// KindUnavailable covers transport, auth and provider-down failures.
	KindUnavailable ErrorKind = iota
	// KindBlocked means the provider refused to answer (safety filter).
	KindBlocked
	// KindEmpty means the provider returned no usable text.
	KindEmpty
	// KindMalformed means a structured response did not match the required shape.
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindBlocked:
		return "blocked"
	case KindEmpty:
		return "empty"
	case KindMalformed:
		return "malformed"
	default:
		return "unavailable"
	}
}

// Error is the typed failure returned by every Client implementation.
type Error struct {
	Kind     ErrorKind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llm %s (%s): %v", e.Kind, e.Provider, e.Err)
	}
	return fmt.Sprintf("llm %s (%s)", e.Kind, e.Provider)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a typed completion error.
func NewError(kind ErrorKind, provider string, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Err: err}
}

// QuizPayload is the strict shape required from structured quiz generation.
type QuizPayload struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
}

// Validate reports whether the payload satisfies the quiz contract:
// non-empty question, exactly four non-empty options, correct index in range.
func (p *QuizPayload) Validate() error {
	if p == nil {
		return fmt.Errorf("nil payload")
	}
	if p.Question == "" {
		return fmt.Errorf("empty question")
	}
	if len(p.Options) != 4 {
		return fmt.Errorf("expected 4 options, got %d", len(p.Options))
	}
	for i, o := range p.Options {
		if o == "" {
			return fmt.Errorf("empty option %d", i)
		}
	}
	if p.CorrectIndex < 0 || p.CorrectIndex > 3 {
		return fmt.Errorf("correct_index out of range: %d", p.CorrectIndex)
	}
	return nil
}

// Client is the common LLM collaborator contract. Implementations return
// *Error for every failure; they never panic on malformed provider output.
type Client interface {
	// Provider returns the provider name ("gemini", "openai", "ollama").
	Provider() string

	// Complete sends one prompt and returns the full response text.
	Complete(ctx context.Context, prompt string) (string, error)

	// CompleteStructured sends one prompt that demands strict quiz JSON and
	// returns the validated payload. Any shape deviation is KindMalformed.
	CompleteStructured(ctx context.Context, prompt string) (*QuizPayload, error)

	// IsTransientError reports whether the error is worth retrying
	// (rate limits, 5xx, timeouts).
	IsTransientError(err error) bool
}

// FallbackClient tries multiple clients in order, retrying transient errors
// per client before moving to the next one.
type FallbackClient struct {
	Clients    []Client
	MaxRetries int
	RetryDelay time.Duration
}

func (f *FallbackClient) Provider() string { return "multi" }

// attempt walks providers in order, retrying transient failures per provider,
// and stops at the first successful call.
func (f *FallbackClient) attempt(ctx context.Context, call func(Client) error) error {
	var lastErr error
	for i, client := range f.Clients {
		if i > 0 {
			slog.Warn("Previous provider failed, trying fallback provider", "index", i+1)
		}

		maxRetries := f.MaxRetries
		if maxRetries <= 0 {
			maxRetries = 1
		}

		for retry := 1; retry <= maxRetries; retry++ {
			if retry > 1 {
				select {
				case <-ctx.Done():
					return NewError(KindUnavailable, "multi", ctx.Err())
				case <-time.After(time.Duration(retry-1) * f.RetryDelay):
				}
			}

			err := call(client)
			if err == nil {
				return nil
			}
			lastErr = err

			if client.IsTransientError(err) && retry < maxRetries {
				slog.Warn("Provider failed with transient error, retrying", "provider", client.Provider(), "error", err)
				continue
			}
			slog.Warn("Provider failed", "provider", client.Provider(), "error", err)
			break
		}
	}
	if lastErr == nil {
		lastErr = NewError(KindUnavailable, "multi", fmt.Errorf("no clients configured"))
	}
	return lastErr
}

func (f *FallbackClient) Complete(ctx context.Context, prompt string) (string, error) {
	var text string
	err := f.attempt(ctx, func(c Client) error {
		t, err := c.Complete(ctx, prompt)
		if err == nil {
			text = t
		}
		return err
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func (f *FallbackClient) CompleteStructured(ctx context.Context, prompt string) (*QuizPayload, error) {
	var payload *QuizPayload
	err := f.attempt(ctx, func(c Client) error {
		p, err := c.CompleteStructured(ctx, prompt)
		if err == nil {
			payload = p
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// IsTransientError implements Client. A FallbackClient failure means every
// child already exhausted its retries, so it is treated as final.
func (f *FallbackClient) IsTransientError(err error) bool {
	return false
}
