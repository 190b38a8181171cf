package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConnectRedis connects to Redis and verifies the connection with a ping.
// The returned client carries the event relay between server instances.
func ConnectRedis(ctx context.Context, redisURI string, logger *zap.Logger) (*redis.Client, error) {
	opt, err := RedisOptions(redisURI)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("connected to Redis", zap.String("addr", opt.Addr), zap.Int("db", opt.DB))
	return client, nil
}

// RedisOptions parses redisURI and applies pool and timeout settings.
func RedisOptions(redisURI string) (*redis.Options, error) {
	opt, err := redis.ParseURL(redisURI)
	if err != nil {
		return nil, fmt.Errorf("parse redis uri: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute
	return opt, nil
}
