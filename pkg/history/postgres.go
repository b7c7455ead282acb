package history

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS chat_history (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	role        TEXT NOT NULL,
	content     TEXT NOT NULL DEFAULT '',
	tools       TEXT[] NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_chat_history_session
	ON chat_history (session_id, created_at);
`

// PostgresStore archives turns in a chat_history table
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open sqlx connection
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the chat_history table if it does not exist
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return errorRegistry.NewWithCause(ErrStoreFailed, err).
			WithDetail("operation", "migrate")
	}
	return nil
}

// Append implements Store
func (s *PostgresStore) Append(ctx context.Context, sessionID string, entries ...Entry) error {
	if sessionID == "" {
		return errorRegistry.New(ErrEmptySessionID)
	}
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errorRegistry.NewWithCause(ErrStoreFailed, err).
			WithDetail("session_id", sessionID)
	}
	defer tx.Rollback()

	const insertSQL = `
		INSERT INTO chat_history (id, session_id, role, content, tools, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, entry := range entries {
		tools := entry.Tools
		if tools == nil {
			tools = pq.StringArray{}
		}
		if _, err := tx.ExecContext(ctx, insertSQL,
			entry.ID, sessionID, entry.Role, entry.Content, tools, entry.CreatedAt,
		); err != nil {
			return errorRegistry.NewWithCause(ErrStoreFailed, err).
				WithDetail("session_id", sessionID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errorRegistry.NewWithCause(ErrStoreFailed, err).
			WithDetail("session_id", sessionID)
	}
	return nil
}

// List implements Store
func (s *PostgresStore) List(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	const listSQL = `
		SELECT id, session_id, role, content, tools, created_at
		FROM chat_history
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	var newestFirst []Entry
	if err := s.db.SelectContext(ctx, &newestFirst, listSQL, sessionID, limit); err != nil {
		return nil, errorRegistry.NewWithCause(ErrStoreFailed, err).
			WithDetail("session_id", sessionID)
	}

	entries := make([]Entry, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		entries = append(entries, newestFirst[i])
	}
	return entries, nil
}

// Clear implements Store
func (s *PostgresStore) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_history WHERE session_id = $1`, sessionID,
	); err != nil {
		return errorRegistry.NewWithCause(ErrStoreFailed, err).
			WithDetail("session_id", sessionID)
	}
	return nil
}
