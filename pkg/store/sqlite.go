package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
	_ "modernc.org/sqlite"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating if necessary) a SQLite-backed store.
func NewSQLite(dbPath string) (Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		last_subject TEXT NOT NULL DEFAULT '',
		last_topic TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS topics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subject TEXT NOT NULL,
		topic TEXT NOT NULL,
		UNIQUE(subject, topic)
	);

	CREATE TABLE IF NOT EXISTS interactions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		topic_id INTEGER NOT NULL REFERENCES topics(id),
		mode TEXT NOT NULL,
		input TEXT NOT NULL,
		output TEXT NOT NULL,
		source TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_interactions_user_topic
		ON interactions(user_id, topic_id, created_at);

	CREATE TABLE IF NOT EXISTS quiz_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		topic_id INTEGER NOT NULL REFERENCES topics(id),
		state TEXT NOT NULL,
		question_limit INTEGER NOT NULL,
		asked INTEGER NOT NULL DEFAULT 0,
		correct INTEGER NOT NULL DEFAULT 0,
		current_question_id INTEGER NOT NULL DEFAULT 0,
		started_at INTEGER NOT NULL,
		finished_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_quiz_sessions_user
		ON quiz_sessions(user_id, state);

	CREATE TABLE IF NOT EXISTS quiz_questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL REFERENCES quiz_sessions(id),
		q_index INTEGER NOT NULL,
		prompt TEXT NOT NULL,
		options_json TEXT NOT NULL,
		correct_index INTEGER NOT NULL,
		explanation TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL,
		asked_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_quiz_questions_session
		ON quiz_questions(session_id, q_index);

	CREATE TABLE IF NOT EXISTS quiz_answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		question_id INTEGER NOT NULL REFERENCES quiz_questions(id),
		choice INTEGER NOT NULL,
		correct INTEGER NOT NULL,
		answered_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// GetOrCreateUser resolves a user by name, creating it on first sight.
func (s *SQLiteStore) GetOrCreateUser(ctx context.Context, name string) (*User, error) {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, created_at) VALUES (?, ?)
		 ON CONFLICT(name) DO NOTHING`,
		name, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM users WHERE name = ?`, name)

	var u User
	var createdAt int64
	if err := row.Scan(&u.ID, &u.Name, &createdAt); err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}
	u.CreatedAt = time.Unix(createdAt, 0)
	return &u, nil
}

// GetOrCreateTopic resolves a (subject, topic) pair.
func (s *SQLiteStore) GetOrCreateTopic(ctx context.Context, subject, topic string) (*Topic, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO topics (subject, topic) VALUES (?, ?)
		 ON CONFLICT(subject, topic) DO NOTHING`,
		subject, topic)
	if err != nil {
		return nil, fmt.Errorf("insert topic: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, subject, topic FROM topics WHERE subject = ? AND topic = ?`,
		subject, topic)

	var t Topic
	if err := row.Scan(&t.ID, &t.Subject, &t.Topic); err != nil {
		return nil, fmt.Errorf("scan topic row: %w", err)
	}
	return &t, nil
}

// SetTopic remembers the user's current subject/topic.
func (s *SQLiteStore) SetTopic(ctx context.Context, userID int64, subject, topic string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_subject = ?, last_topic = ? WHERE id = ?`,
		subject, topic, userID)
	if err != nil {
		return fmt.Errorf("update user topic: %w", err)
	}
	return nil
}

// AppendInteraction persists one turn.
func (s *SQLiteStore) AppendInteraction(ctx context.Context, it *Interaction) error {
	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (id, user_id, topic_id, mode, input, output, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.UserID, it.TopicID, it.Mode, it.Input, it.Output, it.Source,
		it.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

// RecentInteractions returns up to limit turns, newest first.
func (s *SQLiteStore) RecentInteractions(ctx context.Context, userID, topicID int64, limit int) ([]*Interaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, topic_id, mode, input, output, source, created_at
		 FROM interactions
		 WHERE user_id = ? AND topic_id = ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		userID, topicID, limit)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var out []*Interaction
	for rows.Next() {
		var it Interaction
		var createdAt int64
		if err := rows.Scan(&it.ID, &it.UserID, &it.TopicID, &it.Mode,
			&it.Input, &it.Output, &it.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("scan interaction row: %w", err)
		}
		it.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}
	return out, nil
}

// LastContext returns the user's remembered subject/topic and last input.
func (s *SQLiteStore) LastContext(ctx context.Context, userID int64) (string, string, string, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT last_subject, last_topic FROM users WHERE id = ?`, userID)

	var subject, topic string
	err := row.Scan(&subject, &topic)
	if err == sql.ErrNoRows {
		return "", "", "", false, nil
	}
	if err != nil {
		return "", "", "", false, fmt.Errorf("scan user context: %w", err)
	}

	var lastInput string
	row = s.db.QueryRowContext(ctx,
		`SELECT input FROM interactions WHERE user_id = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`, userID)
	err = row.Scan(&lastInput)
	if err != nil && err != sql.ErrNoRows {
		return "", "", "", false, fmt.Errorf("scan last input: %w", err)
	}

	ok := subject != "" || topic != "" || lastInput != ""
	return subject, topic, lastInput, ok, nil
}

// CreateQuizSession starts a session, finishing any prior active one.
func (s *SQLiteStore) CreateQuizSession(ctx context.Context, userID, topicID int64, questionLimit int) (*QuizSession, error) {
	now := time.Now()

	_, err := s.db.ExecContext(ctx,
		`UPDATE quiz_sessions SET state = ?, finished_at = ?
		 WHERE user_id = ? AND state = ?`,
		QuizStateFinished, now.Unix(), userID, QuizStateAwaitingAnswer)
	if err != nil {
		return nil, fmt.Errorf("supersede quiz session: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO quiz_sessions (user_id, topic_id, state, question_limit, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, topicID, QuizStateAwaitingAnswer, questionLimit, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("insert quiz session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("quiz session id: %w", err)
	}

	return &QuizSession{
		ID:            id,
		UserID:        userID,
		TopicID:       topicID,
		State:         QuizStateAwaitingAnswer,
		QuestionLimit: questionLimit,
		StartedAt:     now,
	}, nil
}

// ActiveQuizSession returns the user's session awaiting an answer, or (nil, nil).
func (s *SQLiteStore) ActiveQuizSession(ctx context.Context, userID int64) (*QuizSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, topic_id, state, question_limit, asked, correct,
		        current_question_id, started_at, finished_at
		 FROM quiz_sessions
		 WHERE user_id = ? AND state = ?
		 ORDER BY started_at DESC LIMIT 1`,
		userID, QuizStateAwaitingAnswer)

	return scanQuizSession(row)
}

func scanQuizSession(row *sql.Row) (*QuizSession, error) {
	var qs QuizSession
	var startedAt int64
	var finishedAt sql.NullInt64

	err := row.Scan(&qs.ID, &qs.UserID, &qs.TopicID, &qs.State,
		&qs.QuestionLimit, &qs.Asked, &qs.Correct,
		&qs.CurrentQuestionID, &startedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan quiz session: %w", err)
	}

	qs.StartedAt = time.Unix(startedAt, 0)
	if finishedAt.Valid {
		qs.FinishedAt = time.Unix(finishedAt.Int64, 0)
	}
	return &qs, nil
}

// UpdateQuizSession writes back mutable session fields.
func (s *SQLiteStore) UpdateQuizSession(ctx context.Context, qs *QuizSession) error {
	var finishedAt interface{}
	if !qs.FinishedAt.IsZero() {
		finishedAt = qs.FinishedAt.Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE quiz_sessions
		 SET state = ?, asked = ?, correct = ?, current_question_id = ?, finished_at = ?
		 WHERE id = ?`,
		qs.State, qs.Asked, qs.Correct, qs.CurrentQuestionID, finishedAt, qs.ID)
	if err != nil {
		return fmt.Errorf("update quiz session: %w", err)
	}
	return nil
}

// RecordQuestion persists an asked question and fills in its ID.
func (s *SQLiteStore) RecordQuestion(ctx context.Context, q *QuizQuestion) error {
	if q.AskedAt.IsZero() {
		q.AskedAt = time.Now()
	}
	optionsJSON, err := json.MarshalToString(q.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO quiz_questions (session_id, q_index, prompt, options_json, correct_index, explanation, source, asked_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.SessionID, q.Index, q.Prompt, optionsJSON, q.CorrectIndex,
		q.Explanation, q.Source, q.AskedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert quiz question: %w", err)
	}
	q.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("quiz question id: %w", err)
	}
	return nil
}

// GetQuizQuestion fetches one question by ID, or (nil, nil) if absent.
func (s *SQLiteStore) GetQuizQuestion(ctx context.Context, id int64) (*QuizQuestion, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, q_index, prompt, options_json, correct_index, explanation, source, asked_at
		 FROM quiz_questions WHERE id = ?`, id)

	var q QuizQuestion
	var optionsJSON string
	var askedAt int64

	err := row.Scan(&q.ID, &q.SessionID, &q.Index, &q.Prompt,
		&optionsJSON, &q.CorrectIndex, &q.Explanation, &q.Source, &askedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan quiz question: %w", err)
	}

	if err := json.UnmarshalFromString(optionsJSON, &q.Options); err != nil {
		return nil, fmt.Errorf("unmarshal options: %w", err)
	}
	q.AskedAt = time.Unix(askedAt, 0)
	return &q, nil
}

// RecordAnswer persists the student's choice for a question.
func (s *SQLiteStore) RecordAnswer(ctx context.Context, a *QuizAnswer) error {
	if a.AnsweredAt.IsZero() {
		a.AnsweredAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO quiz_answers (question_id, choice, correct, answered_at)
		 VALUES (?, ?, ?, ?)`,
		a.QuestionID, a.Choice, a.Correct, a.AnsweredAt.Unix())
	if err != nil {
		return fmt.Errorf("insert quiz answer: %w", err)
	}
	a.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("quiz answer id: %w", err)
	}
	return nil
}

// TopicStats returns per-topic interaction counts, most-studied first.
func (s *SQLiteStore) TopicStats(ctx context.Context, userID int64) ([]*TopicStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.subject, t.topic,
		        COALESCE(i.n, 0), COALESCE(q.asked, 0), COALESCE(q.correct, 0)
		 FROM topics t
		 LEFT JOIN (SELECT topic_id, COUNT(*) AS n FROM interactions
		            WHERE user_id = ? GROUP BY topic_id) i ON i.topic_id = t.id
		 LEFT JOIN (SELECT topic_id, SUM(asked) AS asked, SUM(correct) AS correct
		            FROM quiz_sessions WHERE user_id = ? GROUP BY topic_id) q
		           ON q.topic_id = t.id
		 WHERE i.n IS NOT NULL OR q.asked IS NOT NULL
		 ORDER BY COALESCE(i.n, 0) DESC, t.subject, t.topic`,
		userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query topic stats: %w", err)
	}
	defer rows.Close()

	var out []*TopicStat
	for rows.Next() {
		var st TopicStat
		if err := rows.Scan(&st.Subject, &st.Topic,
			&st.Interactions, &st.QuizAsked, &st.QuizCorrect); err != nil {
			return nil, fmt.Errorf("scan topic stat: %w", err)
		}
		out = append(out, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topic stats: %w", err)
	}
	return out, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
