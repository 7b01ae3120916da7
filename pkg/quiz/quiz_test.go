package quiz

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentor/pkg/llm"
	"mentor/pkg/store"
)

// fakeClient returns a fixed payload or fails every structured call.
type fakeClient struct {
	payload *llm.QuizPayload
	err     error
	calls   int
}

func (f *fakeClient) Provider() string { return "fake" }

func (f *fakeClient) Complete(_ context.Context, _ string) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeClient) CompleteStructured(_ context.Context, _ string) (*llm.QuizPayload, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

func (f *fakeClient) IsTransientError(_ error) bool { return false }

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func setup(t *testing.T, client llm.Client) (*Engine, store.Store, int64, int64) {
	t.Helper()
	s := newTestStore(t)
	ctx := context.Background()
	u, err := s.GetOrCreateUser(ctx, "ana")
	require.NoError(t, err)
	topic, err := s.GetOrCreateTopic(ctx, "Algebra", "Equations")
	require.NoError(t, err)
	return NewEngine(s, client), s, u.ID, topic.ID
}

func TestAnswerToken(t *testing.T) {
	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"A", 0, true},
		{"a", 0, true},
		{" b ", 1, true},
		{"3", 2, true},
		{"D", 3, true},
		{"4", 3, true},
		{"E", 0, false},
		{"5", 0, false},
		{"next", 0, false},
		{"", 0, false},
	}
	for _, tc := range tests {
		got, ok := AnswerToken(tc.input)
		assert.Equal(t, tc.ok, ok, tc.input)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.input)
		}
	}

	assert.True(t, IsAdvanceToken(" NEXT "))
	assert.True(t, IsStopToken("Stop"))
	assert.False(t, IsAdvanceToken("nexts"))
}

func TestStartUsesModelQuestion(t *testing.T) {
	client := &fakeClient{payload: &llm.QuizPayload{
		Question:     "What is 2 + 2?",
		Options:      []string{"3", "4", "5", "22"},
		CorrectIndex: 1,
		Explanation:  "Basic addition.",
	}}
	e, s, userID, topicID := setup(t, client)
	ctx := context.Background()

	out, err := e.Start(ctx, userID, topicID, "Algebra", "Equations", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, client.calls)
	assert.Contains(t, out, "📝 Question 1/5")
	assert.Contains(t, out, "What is 2 + 2?")
	assert.Contains(t, out, "B) 4")

	session, err := s.ActiveQuizSession(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, 1, session.Asked)
	require.NotZero(t, session.CurrentQuestionID)

	q, err := s.GetQuizQuestion(ctx, session.CurrentQuestionID)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, SourceLLM, q.Source)
	assert.Equal(t, "Basic addition.", q.Explanation)
}

func TestStartFallsBackToBank(t *testing.T) {
	client := &fakeClient{err: llm.NewError(llm.KindUnavailable, "fake", errors.New("down"))}
	e, s, userID, topicID := setup(t, client)
	ctx := context.Background()

	out, err := e.Start(ctx, userID, topicID, "Algebra", "Equations", 5)
	require.NoError(t, err)
	assert.Contains(t, out, "📝 Question 1/5")
	assert.Contains(t, out, "Answer with A, B, C or D.")

	session, err := s.ActiveQuizSession(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, session)

	q, err := s.GetQuizQuestion(ctx, session.CurrentQuestionID)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, SourceFallback, q.Source)
	assert.Len(t, q.Options, 4)
}

func TestAnswerGradesAndRecords(t *testing.T) {
	client := &fakeClient{payload: &llm.QuizPayload{
		Question:     "What is 2 + 2?",
		Options:      []string{"3", "4", "5", "22"},
		CorrectIndex: 1,
		Explanation:  "Basic addition.",
	}}
	e, s, userID, topicID := setup(t, client)
	ctx := context.Background()

	_, err := e.Start(ctx, userID, topicID, "Algebra", "Equations", 5)
	require.NoError(t, err)
	session, err := s.ActiveQuizSession(ctx, userID)
	require.NoError(t, err)

	out, graded, err := e.Answer(ctx, session, "B")
	require.NoError(t, err)
	assert.True(t, graded)
	assert.Contains(t, out, "✅ Correct!")
	assert.Contains(t, out, "Basic addition.")
	assert.Contains(t, out, "Score: 1/1")
	assert.Equal(t, 1, session.Correct)
	assert.Zero(t, session.CurrentQuestionID)

	// still awaiting "next", not finished
	refetched, err := s.ActiveQuizSession(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, refetched)
	assert.Equal(t, 1, refetched.Correct)
}

func TestAnswerWrongChoice(t *testing.T) {
	client := &fakeClient{payload: &llm.QuizPayload{
		Question:     "What is 2 + 2?",
		Options:      []string{"3", "4", "5", "22"},
		CorrectIndex: 1,
	}}
	e, s, userID, topicID := setup(t, client)
	ctx := context.Background()

	_, err := e.Start(ctx, userID, topicID, "Algebra", "Equations", 5)
	require.NoError(t, err)
	session, err := s.ActiveQuizSession(ctx, userID)
	require.NoError(t, err)

	out, graded, err := e.Answer(ctx, session, "D")
	require.NoError(t, err)
	assert.True(t, graded)
	assert.Contains(t, out, "❌ Not quite. The answer was B) 4.")
	assert.Contains(t, out, "Score: 0/1")
	assert.Zero(t, session.Correct)
}

func TestAnswerWithoutPendingQuestion(t *testing.T) {
	client := &fakeClient{payload: &llm.QuizPayload{
		Question:     "Q",
		Options:      []string{"a", "b", "c", "d"},
		CorrectIndex: 0,
	}}
	e, s, userID, topicID := setup(t, client)
	ctx := context.Background()

	_, err := e.Start(ctx, userID, topicID, "Algebra", "Equations", 5)
	require.NoError(t, err)
	session, err := s.ActiveQuizSession(ctx, userID)
	require.NoError(t, err)

	_, graded, err := e.Answer(ctx, session, "A")
	require.NoError(t, err)
	assert.True(t, graded)

	// a second answer has no pending question and records nothing
	out, graded, err := e.Answer(ctx, session, "A")
	require.NoError(t, err)
	assert.False(t, graded)
	assert.Contains(t, out, "No question is pending")
	assert.Equal(t, 1, session.Correct)
}

func TestAnswerBadToken(t *testing.T) {
	client := &fakeClient{payload: &llm.QuizPayload{
		Question:     "Q",
		Options:      []string{"a", "b", "c", "d"},
		CorrectIndex: 0,
	}}
	e, s, userID, topicID := setup(t, client)
	ctx := context.Background()

	_, err := e.Start(ctx, userID, topicID, "Algebra", "Equations", 5)
	require.NoError(t, err)
	session, err := s.ActiveQuizSession(ctx, userID)
	require.NoError(t, err)

	out, graded, err := e.Answer(ctx, session, "maybe b?")
	require.NoError(t, err)
	assert.False(t, graded)
	assert.Contains(t, out, "Answer with A, B, C or D")
	assert.NotZero(t, session.CurrentQuestionID)
}

func TestAdvanceAndFinish(t *testing.T) {
	client := &fakeClient{payload: &llm.QuizPayload{
		Question:     "Q",
		Options:      []string{"a", "b", "c", "d"},
		CorrectIndex: 0,
	}}
	e, s, userID, topicID := setup(t, client)
	ctx := context.Background()

	_, err := e.Start(ctx, userID, topicID, "Algebra", "Equations", 2)
	require.NoError(t, err)
	session, err := s.ActiveQuizSession(ctx, userID)
	require.NoError(t, err)

	_, _, err = e.Answer(ctx, session, "A")
	require.NoError(t, err)

	out, err := e.Advance(ctx, session, "Algebra", "Equations")
	require.NoError(t, err)
	assert.Contains(t, out, "📝 Question 2/2")

	_, _, err = e.Answer(ctx, session, "B")
	require.NoError(t, err)

	out, err = e.Advance(ctx, session, "Algebra", "Equations")
	require.NoError(t, err)
	assert.Equal(t, "🏁 Quiz finished — score 1/2.", out)

	active, err := s.ActiveQuizSession(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestStopEndsSession(t *testing.T) {
	client := &fakeClient{payload: &llm.QuizPayload{
		Question:     "Q",
		Options:      []string{"a", "b", "c", "d"},
		CorrectIndex: 0,
	}}
	e, s, userID, topicID := setup(t, client)
	ctx := context.Background()

	_, err := e.Start(ctx, userID, topicID, "Algebra", "Equations", 10)
	require.NoError(t, err)
	session, err := s.ActiveQuizSession(ctx, userID)
	require.NoError(t, err)

	out, err := e.Stop(ctx, session)
	require.NoError(t, err)
	assert.Contains(t, out, "🏁 Quiz finished")

	active, err := s.ActiveQuizSession(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestStartTakesLimitPerSession(t *testing.T) {
	client := &fakeClient{payload: &llm.QuizPayload{
		Question:     "Q",
		Options:      []string{"a", "b", "c", "d"},
		CorrectIndex: 0,
	}}
	e, s, userID, topicID := setup(t, client)
	ctx := context.Background()

	out, err := e.Start(ctx, userID, topicID, "Algebra", "Equations", 1)
	require.NoError(t, err)
	assert.Contains(t, out, "📝 Question 1/1")

	session, err := s.ActiveQuizSession(ctx, userID)
	require.NoError(t, err)
	_, err = e.Stop(ctx, session)
	require.NoError(t, err)

	// the same engine honors a different limit on the next start
	out, err = e.Start(ctx, userID, topicID, "Algebra", "Equations", 3)
	require.NoError(t, err)
	assert.Contains(t, out, "📝 Question 1/3")

	// non-positive limit falls back to the default
	out, err = e.Start(ctx, userID, topicID, "Algebra", "Equations", 0)
	require.NoError(t, err)
	assert.Contains(t, out, "📝 Question 1/10")
}

func TestBankDeterministic(t *testing.T) {
	b := NewBank()

	q1 := b.Question(7, 3, "Physics", "Kinematics")
	q2 := b.Question(7, 3, "Physics", "Kinematics")
	require.NotNil(t, q1)
	assert.Equal(t, q1.Question, q2.Question)
	assert.Equal(t, q1.Options, q2.Options)
	assert.Equal(t, q1.CorrectIndex, q2.CorrectIndex)

	// correct index always points at a real option
	for i := 1; i <= 5; i++ {
		q := b.Question(9, i, "Calculus", "-")
		require.Len(t, q.Options, 4)
		require.GreaterOrEqual(t, q.CorrectIndex, 0)
		require.Less(t, q.CorrectIndex, 4)
	}
}
