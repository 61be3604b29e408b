package database

import (
	"context"
	"fmt"
	"time"

	"contactsapi/internal/config"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis connects to redis and verifies the connection with a ping.
// The returned client is closed again if the ping fails.
func ConnectRedis(cfg config.RedisConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	// Retries would stretch a per-request deadline; the attempt tracker falls back instead.
	opt.MaxRetries = 0
	opt.DialTimeout = cfg.DialTimeout
	opt.ReadTimeout = cfg.OperationTimeout
	opt.WriteTimeout = cfg.OperationTimeout
	opt.PoolTimeout = cfg.OperationTimeout + time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
