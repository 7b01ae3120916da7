// Package quiz implements the quiz state machine: one active session per
// user, questions generated by the model when possible and by a local bank
// when not, every question and answer persisted.
package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mentor/pkg/llm"
	"mentor/pkg/store"
)

// nowFunc is swapped in tests.
var nowFunc = time.Now

// Source tags recorded on questions.
const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// Engine drives quiz sessions.
type Engine struct {
	store  store.Store
	client llm.Client
	bank   *Bank
}

// NewEngine creates a quiz engine.
func NewEngine(st store.Store, client llm.Client) *Engine {
	return &Engine{
		store:  st,
		client: client,
		bank:   NewBank(),
	}
}

// AnswerToken maps "A"-"D" and "1"-"4" to a zero-based option index.
func AnswerToken(input string) (int, bool) {
	t := strings.ToUpper(strings.TrimSpace(input))
	switch t {
	case "A", "1":
		return 0, true
	case "B", "2":
		return 1, true
	case "C", "3":
		return 2, true
	case "D", "4":
		return 3, true
	}
	return 0, false
}

// IsAdvanceToken reports whether input asks for the next question.
func IsAdvanceToken(input string) bool {
	return strings.EqualFold(strings.TrimSpace(input), "next")
}

// IsStopToken reports whether input ends the quiz.
func IsStopToken(input string) bool {
	return strings.EqualFold(strings.TrimSpace(input), "stop")
}

// Start begins a session for the user, superseding any active one, and
// asks the first question. limit is the question count for this session;
// it is read per start so live settings reloads apply to the next quiz.
func (e *Engine) Start(ctx context.Context, userID, topicID int64, subject, topic string, limit int) (string, error) {
	if limit <= 0 {
		limit = 10
	}
	s, err := e.store.CreateQuizSession(ctx, userID, topicID, limit)
	if err != nil {
		return "", fmt.Errorf("create quiz session: %w", err)
	}
	slog.Info("Quiz started", "user_id", userID, "subject", subject, "topic", topic, "limit", limit)
	return e.ask(ctx, s, subject, topic)
}

// Answer grades the student's choice for the current question. graded is
// true only when an answer row was recorded; informational replies (no
// pending question, out-of-range choice) leave the session untouched.
func (e *Engine) Answer(ctx context.Context, s *store.QuizSession, input string) (text string, graded bool, err error) {
	choice, ok := AnswerToken(input)
	if !ok {
		return "Answer with A, B, C or D — or say \"next\" / \"stop\".", false, nil
	}

	if s.CurrentQuestionID == 0 {
		return "No question is pending. Say \"next\" for the next one.", false, nil
	}

	q, err := e.store.GetQuizQuestion(ctx, s.CurrentQuestionID)
	if err != nil {
		return "", false, fmt.Errorf("load current question: %w", err)
	}
	if q == nil {
		return "No question is pending. Say \"next\" for the next one.", false, nil
	}
	if choice >= len(q.Options) {
		return "Answer with A, B, C or D — or say \"next\" / \"stop\".", false, nil
	}

	correct := choice == q.CorrectIndex
	if err := e.store.RecordAnswer(ctx, &store.QuizAnswer{
		QuestionID: q.ID,
		Choice:     choice,
		Correct:    correct,
	}); err != nil {
		return "", false, fmt.Errorf("record answer: %w", err)
	}

	if correct {
		s.Correct++
	}
	s.CurrentQuestionID = 0
	if err := e.store.UpdateQuizSession(ctx, s); err != nil {
		return "", false, fmt.Errorf("update quiz session: %w", err)
	}

	var b strings.Builder
	if correct {
		b.WriteString("✅ Correct!")
	} else {
		fmt.Fprintf(&b, "❌ Not quite. The answer was %c) %s.",
			'A'+rune(q.CorrectIndex), q.Options[q.CorrectIndex])
	}
	if exp := strings.TrimSpace(q.Explanation); exp != "" {
		b.WriteString("\n" + exp)
	}
	fmt.Fprintf(&b, "\n\nScore: %d/%d. Say \"next\" to continue or \"stop\" to finish.",
		s.Correct, s.Asked)
	return b.String(), true, nil
}

// Advance moves to the next question. An unanswered current question is
// skipped without recording an answer row. At the limit the session ends.
func (e *Engine) Advance(ctx context.Context, s *store.QuizSession, subject, topic string) (string, error) {
	if s.Asked >= s.QuestionLimit {
		return e.finish(ctx, s)
	}
	if s.CurrentQuestionID != 0 {
		slog.Info("Quiz question skipped", "session_id", s.ID, "question_id", s.CurrentQuestionID)
	}
	return e.ask(ctx, s, subject, topic)
}

// Stop ends the session and reports the score.
func (e *Engine) Stop(ctx context.Context, s *store.QuizSession) (string, error) {
	return e.finish(ctx, s)
}

func (e *Engine) finish(ctx context.Context, s *store.QuizSession) (string, error) {
	s.State = store.QuizStateFinished
	s.CurrentQuestionID = 0
	if s.FinishedAt.IsZero() {
		s.FinishedAt = nowFunc()
	}
	if err := e.store.UpdateQuizSession(ctx, s); err != nil {
		return "", fmt.Errorf("finish quiz session: %w", err)
	}
	slog.Info("Quiz finished", "session_id", s.ID, "score", s.Correct, "asked", s.Asked)
	return fmt.Sprintf("🏁 Quiz finished — score %d/%d.", s.Correct, s.Asked), nil
}

// ask generates, persists and renders the next question.
func (e *Engine) ask(ctx context.Context, s *store.QuizSession, subject, topic string) (string, error) {
	index := s.Asked + 1
	payload, source := e.generate(ctx, s, index, subject, topic)

	q := &store.QuizQuestion{
		SessionID:    s.ID,
		Index:        index,
		Prompt:       payload.Question,
		Options:      payload.Options,
		CorrectIndex: payload.CorrectIndex,
		Explanation:  payload.Explanation,
		Source:       source,
	}
	if err := e.store.RecordQuestion(ctx, q); err != nil {
		return "", fmt.Errorf("record question: %w", err)
	}

	s.Asked = index
	s.CurrentQuestionID = q.ID
	if err := e.store.UpdateQuizSession(ctx, s); err != nil {
		return "", fmt.Errorf("update quiz session: %w", err)
	}

	return renderQuestion(index, s.QuestionLimit, subject, topic, payload), nil
}

// generate asks the model for a question and falls back to the local bank
// on any failure. The session always gets a question.
func (e *Engine) generate(ctx context.Context, s *store.QuizSession, index int, subject, topic string) (*llm.QuizPayload, string) {
	prompt := buildQuizPrompt(subject, topic, index)

	payload, err := e.client.CompleteStructured(ctx, prompt)
	if err == nil {
		return payload, SourceLLM
	}

	slog.Warn("Quiz generation fell back to local bank",
		"session_id", s.ID, "index", index, "error", err)
	return e.bank.Question(s.ID, index, subject, topic), SourceFallback
}

func buildQuizPrompt(subject, topic string, index int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write one multiple-choice question for a student studying %s", subject)
	if topic != "" && topic != "-" {
		fmt.Fprintf(&b, " (topic: %s)", topic)
	}
	fmt.Fprintf(&b, ". This is question number %d; vary the concept tested.\n\n", index)
	b.WriteString(llm.QuizPromptSchema)
	return b.String()
}

func renderQuestion(index, limit int, subject, topic string, p *llm.QuizPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📝 Question %d/%d (%s", index, limit, subject)
	if topic != "" && topic != "-" {
		fmt.Fprintf(&b, " · %s", topic)
	}
	b.WriteString(")\n\n")
	b.WriteString(p.Question)
	b.WriteString("\n\n")
	for i, opt := range p.Options {
		fmt.Fprintf(&b, "%c) %s\n", 'A'+rune(i), opt)
	}
	b.WriteString("\nAnswer with A, B, C or D.")
	return b.String()
}
