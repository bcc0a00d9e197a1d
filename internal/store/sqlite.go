package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/wordle/apps/engine/internal/game"
)

// SQLite stores sessions in the sessions table created by the db migrations.
// The full session is kept as a JSON payload; difficulty and status are
// duplicated into columns for listings.
type SQLite struct {
	db *sql.DB
}

// NewSQLite wraps an open, migrated database handle.
func NewSQLite(db *sql.DB) *SQLite { return &SQLite{db: db} }

func (s *SQLite) Get(ctx context.Context, owner, id string) (*game.Session, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM sessions WHERE owner=? AND id=?`, owner, id,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session %s: %w", id, err)
	}
	var out game.Session
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return &out, nil
}

func (s *SQLite) Put(ctx context.Context, owner string, sess *game.Session) error {
	if err := validateKey(owner, sess); err != nil {
		return err
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", sess.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO sessions (owner, id, difficulty_id, status, payload, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(owner, id) DO UPDATE SET
            status     = excluded.status,
            payload    = excluded.payload,
            updated_at = excluded.updated_at`,
		owner, sess.ID, sess.DifficultyID, string(sess.Status), string(payload),
		sess.CreatedAt.UTC().Format(time.RFC3339Nano), sess.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, owner, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE owner=? AND id=?`, owner, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func (s *SQLite) ListAll(ctx context.Context, owner string) (map[string]*game.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, payload FROM sessions WHERE owner=? ORDER BY created_at`, owner)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*game.Session)
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		var sess game.Session
		if err := json.Unmarshal([]byte(payload), &sess); err != nil {
			return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
		}
		out[id] = &sess
	}
	return out, rows.Err()
}
