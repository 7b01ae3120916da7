package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetOrCreateUserIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u1, err := s.GetOrCreateUser(ctx, "ana")
	require.NoError(t, err)
	u2, err := s.GetOrCreateUser(ctx, "ana")
	require.NoError(t, err)

	assert.Equal(t, u1.ID, u2.ID)
	assert.Equal(t, "ana", u2.Name)

	other, err := s.GetOrCreateUser(ctx, "leo")
	require.NoError(t, err)
	assert.NotEqual(t, u1.ID, other.ID)
}

func TestGetOrCreateTopicIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t1, err := s.GetOrCreateTopic(ctx, "Calculus", "Derivatives")
	require.NoError(t, err)
	t2, err := s.GetOrCreateTopic(ctx, "Calculus", "Derivatives")
	require.NoError(t, err)
	assert.Equal(t, t1.ID, t2.ID)

	t3, err := s.GetOrCreateTopic(ctx, "Calculus", "Integrals")
	require.NoError(t, err)
	assert.NotEqual(t, t1.ID, t3.ID)
}

func TestInteractionsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.GetOrCreateUser(ctx, "ana")
	require.NoError(t, err)
	topic, err := s.GetOrCreateTopic(ctx, "Calculus", "Derivatives")
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	for i, q := range []string{"first", "second", "third"} {
		err := s.AppendInteraction(ctx, &Interaction{
			ID:        uuid.NewString(),
			UserID:    u.ID,
			TopicID:   topic.ID,
			Mode:      "tutor",
			Input:     q,
			Output:    "answer to " + q,
			Source:    "llm",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	recent, err := s.RecentInteractions(ctx, u.ID, topic.ID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	// newest first
	assert.Equal(t, "third", recent[0].Input)
	assert.Equal(t, "second", recent[1].Input)
}

func TestInteractionsIsolatedByUserAndTopic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ana, _ := s.GetOrCreateUser(ctx, "ana")
	leo, _ := s.GetOrCreateUser(ctx, "leo")
	calc, _ := s.GetOrCreateTopic(ctx, "Calculus", "Derivatives")
	phys, _ := s.GetOrCreateTopic(ctx, "Physics", "Kinematics")

	require.NoError(t, s.AppendInteraction(ctx, &Interaction{
		ID: uuid.NewString(), UserID: ana.ID, TopicID: calc.ID,
		Mode: "tutor", Input: "ana calc", Output: "out", Source: "llm",
	}))
	require.NoError(t, s.AppendInteraction(ctx, &Interaction{
		ID: uuid.NewString(), UserID: leo.ID, TopicID: calc.ID,
		Mode: "tutor", Input: "leo calc", Output: "out", Source: "llm",
	}))
	require.NoError(t, s.AppendInteraction(ctx, &Interaction{
		ID: uuid.NewString(), UserID: ana.ID, TopicID: phys.ID,
		Mode: "tutor", Input: "ana phys", Output: "out", Source: "llm",
	}))

	recent, err := s.RecentInteractions(ctx, ana.ID, calc.ID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "ana calc", recent[0].Input)
}

func TestLastContext(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, _ := s.GetOrCreateUser(ctx, "ana")

	_, _, _, ok, err := s.LastContext(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetTopic(ctx, u.ID, "Calculus", "Limits"))
	topic, _ := s.GetOrCreateTopic(ctx, "Calculus", "Limits")
	require.NoError(t, s.AppendInteraction(ctx, &Interaction{
		ID: uuid.NewString(), UserID: u.ID, TopicID: topic.ID,
		Mode: "tutor", Input: "what is a limit?", Output: "…", Source: "llm",
	}))

	subject, top, lastInput, ok, err := s.LastContext(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Calculus", subject)
	assert.Equal(t, "Limits", top)
	assert.Equal(t, "what is a limit?", lastInput)
}

func TestQuizSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, _ := s.GetOrCreateUser(ctx, "ana")
	topic, _ := s.GetOrCreateTopic(ctx, "Algebra", "-")

	qs, err := s.CreateQuizSession(ctx, u.ID, topic.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, QuizStateAwaitingAnswer, qs.State)
	assert.Equal(t, 10, qs.QuestionLimit)

	active, err := s.ActiveQuizSession(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, qs.ID, active.ID)

	// a new session supersedes the old one
	qs2, err := s.CreateQuizSession(ctx, u.ID, topic.ID, 10)
	require.NoError(t, err)
	assert.NotEqual(t, qs.ID, qs2.ID)

	active, err = s.ActiveQuizSession(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, qs2.ID, active.ID)

	// finishing clears the active slot
	active.State = QuizStateFinished
	active.FinishedAt = time.Now()
	require.NoError(t, s.UpdateQuizSession(ctx, active))

	active, err = s.ActiveQuizSession(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestQuizQuestionsAndAnswers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, _ := s.GetOrCreateUser(ctx, "ana")
	topic, _ := s.GetOrCreateTopic(ctx, "Algebra", "-")
	qs, err := s.CreateQuizSession(ctx, u.ID, topic.ID, 10)
	require.NoError(t, err)

	q := &QuizQuestion{
		SessionID:    qs.ID,
		Index:        1,
		Prompt:       "Solve for x: 2x = 6",
		Options:      []string{"x = 2", "x = 3", "x = 4", "x = 6"},
		CorrectIndex: 1,
		Explanation:  "Divide both sides by 2.",
		Source:       "llm",
	}
	require.NoError(t, s.RecordQuestion(ctx, q))
	require.NotZero(t, q.ID)

	got, err := s.GetQuizQuestion(ctx, q.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, q.Options, got.Options)
	assert.Equal(t, 1, got.CorrectIndex)
	assert.Equal(t, "Divide both sides by 2.", got.Explanation)

	missing, err := s.GetQuizQuestion(ctx, 99999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	a := &QuizAnswer{QuestionID: q.ID, Choice: 1, Correct: true}
	require.NoError(t, s.RecordAnswer(ctx, a))
	assert.NotZero(t, a.ID)
}

func TestTopicStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, _ := s.GetOrCreateUser(ctx, "ana")
	calc, _ := s.GetOrCreateTopic(ctx, "Calculus", "Derivatives")
	phys, _ := s.GetOrCreateTopic(ctx, "Physics", "Kinematics")

	for i := 0; i < 3; i++ {
		require.NoError(t, s.AppendInteraction(ctx, &Interaction{
			ID: uuid.NewString(), UserID: u.ID, TopicID: calc.ID,
			Mode: "tutor", Input: "q", Output: "a", Source: "llm",
		}))
	}
	require.NoError(t, s.AppendInteraction(ctx, &Interaction{
		ID: uuid.NewString(), UserID: u.ID, TopicID: phys.ID,
		Mode: "tutor", Input: "q", Output: "a", Source: "llm",
	}))

	qs, err := s.CreateQuizSession(ctx, u.ID, calc.ID, 10)
	require.NoError(t, err)
	qs.Asked = 4
	qs.Correct = 3
	require.NoError(t, s.UpdateQuizSession(ctx, qs))

	stats, err := s.TopicStats(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	// most-studied first
	assert.Equal(t, "Calculus", stats[0].Subject)
	assert.Equal(t, 3, stats[0].Interactions)
	assert.Equal(t, 4, stats[0].QuizAsked)
	assert.Equal(t, 3, stats[0].QuizCorrect)
	assert.InDelta(t, 0.75, stats[0].Accuracy(), 1e-9)

	assert.Equal(t, "Physics", stats[1].Subject)
	assert.Zero(t, stats[1].QuizAsked)
	assert.Zero(t, stats[1].Accuracy())
}
