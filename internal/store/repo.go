package store

import (
	"context"
	"database/sql"

	"mockview/internal/session"
)

// Keys for per-user client state written by the setup step.
const (
	stateSessionID = "session_id"
	stateSeed      = "seed_question"
)

// SetClientState upserts a per-user key-value pair.
func (s *Store) SetClientState(userID int64, key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO client_state (user_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, key) DO UPDATE SET value = ?`,
		userID, key, value, value,
	)
	return err
}

// GetClientState returns the value for a per-user key, or empty string
// when missing.
func (s *Store) GetClientState(userID int64, key string) (string, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM client_state WHERE user_id = ? AND key = ?`, userID, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// DeleteClientState removes a per-user key.
func (s *Store) DeleteClientState(userID int64, key string) error {
	_, err := s.db.Exec(`DELETE FROM client_state WHERE user_id = ? AND key = ?`, userID, key)
	return err
}

// RepositoryFor returns a session.Repository backed by this store's
// client_state table, scoped to one user.
func (s *Store) RepositoryFor(userID int64) session.Repository {
	return &userRepo{store: s, userID: userID}
}

type userRepo struct {
	store  *Store
	userID int64
}

func (r *userRepo) Load(ctx context.Context) (session.Saved, error) {
	id, err := r.store.GetClientState(r.userID, stateSessionID)
	if err != nil {
		return session.Saved{}, err
	}
	seed, err := r.store.GetClientState(r.userID, stateSeed)
	if err != nil {
		return session.Saved{}, err
	}
	return session.Saved{ID: id, Seed: seed}, nil
}

func (r *userRepo) Save(ctx context.Context, saved session.Saved) error {
	if err := r.store.SetClientState(r.userID, stateSessionID, saved.ID); err != nil {
		return err
	}
	return r.store.SetClientState(r.userID, stateSeed, saved.Seed)
}

func (r *userRepo) Clear(ctx context.Context) error {
	if err := r.store.DeleteClientState(r.userID, stateSessionID); err != nil {
		return err
	}
	return r.store.DeleteClientState(r.userID, stateSeed)
}
