package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore archives turns in a capped Redis list per session. Entries
// are pushed newest-first and trimmed to maxEntries.
type RedisStore struct {
	client     *redis.Client
	keyPrefix  string
	maxEntries int
	ttl        time.Duration
}

// RedisOption configures a RedisStore
type RedisOption func(*RedisStore)

// WithKeyPrefix overrides the default "chat:history:" key prefix
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.keyPrefix = prefix
	}
}

// WithTTL expires idle sessions after d
func WithTTL(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = d
	}
}

// NewRedisStore creates a Redis-backed store keeping at most maxEntries
// per session (0 means 1000).
func NewRedisStore(client *redis.Client, maxEntries int, opts ...RedisOption) *RedisStore {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	s := &RedisStore{
		client:     client,
		keyPrefix:  "chat:history:",
		maxEntries: maxEntries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(sessionID string) string {
	return fmt.Sprintf("%s%s", s.keyPrefix, sessionID)
}

// Append implements Store
func (s *RedisStore) Append(ctx context.Context, sessionID string, entries ...Entry) error {
	if sessionID == "" {
		return errorRegistry.New(ErrEmptySessionID)
	}
	if len(entries) == 0 {
		return nil
	}

	key := s.key(sessionID)
	pipe := s.client.TxPipeline()

	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return errorRegistry.NewWithCause(ErrStoreFailed, err).
				WithDetail("session_id", sessionID)
		}
		pipe.LPush(ctx, key, data)
	}
	pipe.LTrim(ctx, key, 0, int64(s.maxEntries-1))
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return errorRegistry.NewWithCause(ErrStoreFailed, err).
			WithDetail("session_id", sessionID)
	}
	return nil
}

// List implements Store
func (s *RedisStore) List(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	raw, err := s.client.LRange(ctx, s.key(sessionID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, errorRegistry.NewWithCause(ErrStoreFailed, err).
			WithDetail("session_id", sessionID)
	}

	// LPUSH stores newest first; reverse back to chronological order.
	entries := make([]Entry, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var entry Entry
		if err := json.Unmarshal([]byte(raw[i]), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Clear implements Store
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return errorRegistry.NewWithCause(ErrStoreFailed, err).
			WithDetail("session_id", sessionID)
	}
	return nil
}
