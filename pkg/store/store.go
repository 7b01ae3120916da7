package store

import (
	"context"
	"time"
)

// Quiz session states.
const (
	QuizStateAwaitingAnswer = "awaiting_answer"
	QuizStateFinished       = "finished"
)

// User is a student known to the engine, keyed by channel identity.
type User struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Topic is a (subject, topic) pair shared across users.
type Topic struct {
	ID      int64
	Subject string
	Topic   string
}

// Interaction is one persisted turn: the student's input and the reply
// that was actually delivered, tagged with where the reply came from.
type Interaction struct {
	ID        string
	UserID    int64
	TopicID   int64
	Mode      string
	Input     string
	Output    string
	Source    string
	CreatedAt time.Time
}

// QuizSession tracks one quiz run for a user.
type QuizSession struct {
	ID                int64
	UserID            int64
	TopicID           int64
	State             string
	QuestionLimit     int
	Asked             int
	Correct           int
	CurrentQuestionID int64
	StartedAt         time.Time
	FinishedAt        time.Time
}

// QuizQuestion is one question asked within a session. Options are stored
// in presentation order; CorrectIndex points into them.
type QuizQuestion struct {
	ID           int64
	SessionID    int64
	Index        int
	Prompt       string
	Options      []string
	CorrectIndex int
	Explanation  string
	Source       string
	AskedAt      time.Time
}

// QuizAnswer records the student's choice for a question.
type QuizAnswer struct {
	ID         int64
	QuestionID int64
	Choice     int
	Correct    bool
	AnsweredAt time.Time
}

// TopicStat aggregates one user's activity on a topic: interaction count
// plus quiz totals for accuracy.
type TopicStat struct {
	Subject      string
	Topic        string
	Interactions int
	QuizAsked    int
	QuizCorrect  int
}

// Accuracy is the fraction of quiz questions answered correctly, 0 when
// no questions were asked.
func (s *TopicStat) Accuracy() float64 {
	if s.QuizAsked == 0 {
		return 0
	}
	return float64(s.QuizCorrect) / float64(s.QuizAsked)
}

// Store is the persistence boundary for the engine.
type Store interface {
	// GetOrCreateUser resolves a user by name, creating it on first sight.
	GetOrCreateUser(ctx context.Context, name string) (*User, error)

	// GetOrCreateTopic resolves a (subject, topic) pair.
	GetOrCreateTopic(ctx context.Context, subject, topic string) (*Topic, error)

	// SetTopic remembers the user's current subject/topic for the next session.
	SetTopic(ctx context.Context, userID int64, subject, topic string) error

	// AppendInteraction persists one turn. Interactions are append-only.
	AppendInteraction(ctx context.Context, it *Interaction) error

	// RecentInteractions returns up to limit turns for the user and topic,
	// newest first.
	RecentInteractions(ctx context.Context, userID, topicID int64, limit int) ([]*Interaction, error)

	// LastContext returns the user's remembered subject/topic and the input
	// of their most recent turn. ok is false for a brand-new user.
	LastContext(ctx context.Context, userID int64) (subject, topic, lastInput string, ok bool, err error)

	// CreateQuizSession starts a session, finishing any prior active one.
	CreateQuizSession(ctx context.Context, userID, topicID int64, questionLimit int) (*QuizSession, error)

	// ActiveQuizSession returns the user's session awaiting an answer,
	// or (nil, nil) when there is none.
	ActiveQuizSession(ctx context.Context, userID int64) (*QuizSession, error)

	// UpdateQuizSession writes back mutable session fields.
	UpdateQuizSession(ctx context.Context, s *QuizSession) error

	// RecordQuestion persists an asked question and fills in its ID.
	RecordQuestion(ctx context.Context, q *QuizQuestion) error

	// GetQuizQuestion fetches one question by ID, or (nil, nil) if absent.
	GetQuizQuestion(ctx context.Context, id int64) (*QuizQuestion, error)

	// RecordAnswer persists the student's choice for a question.
	RecordAnswer(ctx context.Context, a *QuizAnswer) error

	// TopicStats returns per-topic interaction counts for the user,
	// most-studied first.
	TopicStats(ctx context.Context, userID int64) ([]*TopicStat, error)

	Close() error
}
