package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// SessionPrefix is the Redis key prefix for session hashes.
	SessionPrefix = "session:"

	// SessionTTL is the time-to-live for session keys. Token expiry is
	// checked separately; the TTL only bounds how long a stale record can
	// linger after its last write.
	SessionTTL = 24 * time.Hour
)

// RedisStore keeps the session in a Redis hash so that several headless
// workers (e.g. an admin chat bot fleet) can share one login.
type RedisStore struct {
	client *redis.Client
	name   string // distinguishes logins sharing one Redis
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(addr string, name string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("session: redis connection failed: %w", err)
	}

	return &RedisStore{client: client, name: name}, nil
}

// NewRedisStoreWithClient wraps an existing client. Used by tests.
func NewRedisStoreWithClient(client *redis.Client, name string) *RedisStore {
	return &RedisStore{client: client, name: name}
}

type redisSession struct {
	Token    string `redis:"token"`
	UserID   string `redis:"user_id"`
	FullName string `redis:"full_name"`
	Email    string `redis:"email"`
	Role     string `redis:"role"`
}

func (s *RedisStore) key() string {
	return SessionPrefix + s.name
}

// Save overwrites the session hash and refreshes the TTL.
func (s *RedisStore) Save(ctx context.Context, sess Session) error {
	fields := map[string]interface{}{
		"token":     sess.Token,
		"user_id":   sess.User.ID,
		"full_name": sess.User.FullName,
		"email":     sess.User.Email,
		"role":      sess.User.Role,
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key())
	pipe.HSet(ctx, s.key(), fields)
	pipe.Expire(ctx, s.key(), SessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session: redis save: %w", err)
	}
	return nil
}

// Read returns the stored session, or nil when no token is stored.
func (s *RedisStore) Read(ctx context.Context) (*Session, error) {
	var rec redisSession
	if err := s.client.HGetAll(ctx, s.key()).Scan(&rec); err != nil {
		return nil, fmt.Errorf("session: redis read: %w", err)
	}
	if rec.Token == "" {
		return nil, nil
	}
	return &Session{
		Token: rec.Token,
		User: User{
			ID:       rec.UserID,
			FullName: rec.FullName,
			Email:    rec.Email,
			Role:     rec.Role,
		},
	}, nil
}

// Clear deletes the session hash.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("session: redis clear: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
