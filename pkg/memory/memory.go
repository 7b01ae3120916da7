// Package memory assembles the short conversational context injected into
// model prompts: the k most recent turns for a (user, topic) pair, oldest
// first, with long answers truncated.
package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mentor/pkg/store"
)

// Snippet is one remembered turn.
type Snippet struct {
	Timestamp time.Time
	Question  string
	Answer    string
}

// Format renders the snippet for prompt injection.
func (s Snippet) Format() string {
	return fmt.Sprintf("- [%s] Q: %s\n  A: %s",
		s.Timestamp.Format("2006-01-02 15:04"), s.Question, s.Answer)
}

// Assembler builds memory context from the store.
type Assembler struct {
	store store.Store
}

func NewAssembler(st store.Store) *Assembler {
	return &Assembler{store: st}
}

// Assemble returns up to k snippets for the user and topic, oldest first.
// k <= 0 means memory is disabled for this turn: empty slice, nil error.
func (a *Assembler) Assemble(ctx context.Context, userID, topicID int64, k int, maxLen int) ([]Snippet, error) {
	if k <= 0 {
		return nil, nil
	}

	recent, err := a.store.RecentInteractions(ctx, userID, topicID, k)
	if err != nil {
		return nil, fmt.Errorf("load recent interactions: %w", err)
	}

	snippets := make([]Snippet, 0, len(recent))
	// store returns newest first; walk backwards for chronological order
	for i := len(recent) - 1; i >= 0; i-- {
		it := recent[i]
		snippets = append(snippets, Snippet{
			Timestamp: it.CreatedAt,
			Question:  flatten(it.Input, maxLen),
			Answer:    flatten(it.Output, maxLen),
		})
	}
	return snippets, nil
}

// flatten collapses newlines and truncates to at most maxLen runes, the
// truncation marker included.
func flatten(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
