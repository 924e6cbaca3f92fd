package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "medbook:session:"

// RedisStore keeps sessions as JSON strings with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore returns a store backed by client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

func redisKey(browserID string, portal Portal) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, browserID, portal)
}

func (s *RedisStore) Save(ctx context.Context, browserID string, sess Session) error {
	if err := validate(browserID, sess); err != nil {
		return err
	}
	now := s.now()
	ttl, err := lifetime(sess, s.ttl, now)
	if err != nil {
		return err
	}
	sess.SavedAt = now.UTC()
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(browserID, sess.Portal), payload, ttl).Err(); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, browserID string, portal Portal) (*Session, error) {
	raw, err := s.client.Get(ctx, redisKey(browserID, portal)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, browserID string, portal Portal) error {
	if err := s.client.Del(ctx, redisKey(browserID, portal)).Err(); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}
