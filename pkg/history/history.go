// Package history archives completed conversation turns per caller-supplied
// session ID. The chat flow itself stays stateless (clients resend the full
// history each call); the archive exists for audit and analytics surfaces.
package history

import (
	"context"
	"time"

	"github.com/lib/pq"
)

// Entry is one archived turn
type Entry struct {
	ID        string         `json:"id" db:"id"`
	SessionID string         `json:"session_id" db:"session_id"`
	Role      string         `json:"role" db:"role"`
	Content   string         `json:"content" db:"content"`
	Tools     pq.StringArray `json:"tools,omitempty" db:"tools"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// Store persists archived turns for one session key
type Store interface {
	// Append records entries in order. Implementations may cap the number
	// of entries kept per session.
	Append(ctx context.Context, sessionID string, entries ...Entry) error

	// List returns up to limit entries in chronological order, oldest
	// first. limit <= 0 means the implementation default.
	List(ctx context.Context, sessionID string, limit int) ([]Entry, error)

	// Clear removes every entry of the session.
	Clear(ctx context.Context, sessionID string) error
}

// DefaultListLimit bounds List when the caller passes no limit
const DefaultListLimit = 100
