package store

import (
	"database/sql"
	"fmt"
	"time"

	"mockview/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'candidate',
		active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS interviews (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		phase TEXT NOT NULL DEFAULT 'running',
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS interview_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		interview_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		kind TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (interview_id) REFERENCES interviews(id)
	);

	CREATE TABLE IF NOT EXISTS evaluations (
		interview_id TEXT NOT NULL UNIQUE,
		payload TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (interview_id) REFERENCES interviews(id)
	);

	CREATE TABLE IF NOT EXISTS client_state (
		user_id INTEGER NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (user_id, key)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateInterview records a new interview session. Re-hydrating an
// existing id is not an error.
func (s *Store) CreateInterview(id string, userID int64) error {
	_, err := s.db.Exec(
		`INSERT INTO interviews (id, user_id, phase, started_at) VALUES (?, ?, 'running', ?)
		 ON CONFLICT(id) DO NOTHING`,
		id, userID, time.Now(),
	)
	return err
}

// GetInterview returns an interview by id.
func (s *Store) GetInterview(id string) (model.Interview, error) {
	var iv model.Interview
	err := s.db.QueryRow(
		`SELECT id, user_id, phase, started_at, finished_at FROM interviews WHERE id = ?`, id,
	).Scan(&iv.ID, &iv.UserID, &iv.Phase, &iv.StartedAt, &iv.FinishedAt)
	return iv, err
}

// SetPhase updates the interview lifecycle phase. The done phase also
// stamps finished_at.
func (s *Store) SetPhase(id string, phase model.Phase) error {
	if phase == model.PhaseDone {
		_, err := s.db.Exec(
			`UPDATE interviews SET phase = ?, finished_at = ? WHERE id = ?`,
			phase, time.Now(), id,
		)
		return err
	}
	_, err := s.db.Exec(`UPDATE interviews SET phase = ? WHERE id = ?`, phase, id)
	return err
}

// AppendMessage stores one transcript entry.
func (s *Store) AppendMessage(interviewID string, m model.Message) error {
	_, err := s.db.Exec(
		`INSERT INTO interview_messages (interview_id, seq, kind, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		interviewID, m.ID, m.Kind, m.Text, m.Timestamp,
	)
	return err
}

// GetMessages returns the transcript for an interview in seq order.
func (s *Store) GetMessages(interviewID string) ([]model.Message, error) {
	rows, err := s.db.Query(
		`SELECT seq, kind, content, created_at FROM interview_messages WHERE interview_id = ? ORDER BY seq`,
		interviewID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var messages []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.Kind, &m.Text, &m.Timestamp); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// SaveEvaluation upserts the raw auto_eval payload for an interview.
func (s *Store) SaveEvaluation(interviewID string, raw []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO evaluations (interview_id, payload, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(interview_id) DO UPDATE SET payload = ?, created_at = ?`,
		interviewID, string(raw), time.Now(), string(raw), time.Now(),
	)
	return err
}

// GetEvaluation returns the stored payload for an interview, or nil
// when none was saved.
func (s *Store) GetEvaluation(interviewID string) ([]byte, error) {
	var payload string
	err := s.db.QueryRow(
		`SELECT payload FROM evaluations WHERE interview_id = ?`, interviewID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(payload), nil
}

// ListInterviews returns all interviews, newest first.
func (s *Store) ListInterviews() ([]model.Interview, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, phase, started_at, finished_at FROM interviews ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var interviews []model.Interview
	for rows.Next() {
		var iv model.Interview
		if err := rows.Scan(&iv.ID, &iv.UserID, &iv.Phase, &iv.StartedAt, &iv.FinishedAt); err != nil {
			return nil, err
		}
		interviews = append(interviews, iv)
	}
	return interviews, rows.Err()
}

// UserCount returns the total number of users.
func (s *Store) UserCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}
