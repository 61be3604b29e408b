package attempt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// checkAndIncrementScript runs the compare and the increment in one round trip.
// KEYS[1] counter key, ARGV[1] max, ARGV[2] window in milliseconds.
var checkAndIncrementScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current >= tonumber(ARGV[1]) then
	return 0
end
current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 1
`)

// RedisStore keeps counters and reset tokens in redis
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a redis backed store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) CheckAndIncrement(ctx context.Context, key string, max int, window time.Duration) (bool, error) {
	if max <= 0 {
		return false, nil
	}
	allowed, err := checkAndIncrementScript.Run(ctx, s.client,
		[]string{counterKey(key)}, max, window.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("redis check and increment: %w", err)
	}
	return allowed == 1, nil
}

func (s *RedisStore) CacheResetToken(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, resetTokenKey(userID), token, ttl).Err(); err != nil {
		return fmt.Errorf("redis set reset token: %w", err)
	}
	return nil
}

func (s *RedisStore) GetResetToken(ctx context.Context, userID uuid.UUID) (string, bool, error) {
	token, err := s.client.Get(ctx, resetTokenKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get reset token: %w", err)
	}
	return token, true, nil
}

func (s *RedisStore) InvalidateResetToken(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.Del(ctx, resetTokenKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete reset token: %w", err)
	}
	return nil
}
