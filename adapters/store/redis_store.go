package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/phantom/wallet-sdk-sub001/core"
	"github.com/phantom/wallet-sdk-sub001/ports"
)

// RedisStore is a redis implementation of the session store for headless
// deployments of the provider. Each instance owns one session slot, keyed
// by the instance ID.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a redis store. instanceID scopes the slot so
// multiple provider instances can share one redis.
func NewRedisStore(client *redis.Client, instanceID string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: fmt.Sprintf("wallet:%s:", instanceID),
	}
}

var _ ports.SessionStore = (*RedisStore)(nil)

func (s *RedisStore) sessionKey() string { return s.prefix + "session" }
func (s *RedisStore) flagKey() string    { return s.prefix + "clear-previous" }

// GetSession reads and decodes the persisted session, or returns nil when
// the slot is empty.
func (s *RedisStore) GetSession(ctx context.Context) (*core.Session, error) {
	raw, err := s.client.Get(ctx, s.sessionKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var sess core.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}

// SaveSession encodes and writes the session into the slot.
func (s *RedisStore) SaveSession(ctx context.Context, session *core.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.sessionKey(), raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// ClearSession empties the slot.
func (s *RedisStore) ClearSession(ctx context.Context) error {
	if err := s.client.Del(ctx, s.sessionKey()).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// ShouldClearPreviousSession reads the force-fresh-OAuth flag.
func (s *RedisStore) ShouldClearPreviousSession(ctx context.Context) (bool, error) {
	val, err := s.client.Get(ctx, s.flagKey()).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read clear-session flag: %w", err)
	}
	return val == "1", nil
}

// SetShouldClearPreviousSession writes the force-fresh-OAuth flag.
func (s *RedisStore) SetShouldClearPreviousSession(ctx context.Context, v bool) error {
	val := "0"
	if v {
		val = "1"
	}
	if err := s.client.Set(ctx, s.flagKey(), val, 0).Err(); err != nil {
		return fmt.Errorf("failed to write clear-session flag: %w", err)
	}
	return nil
}
