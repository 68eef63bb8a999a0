package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Pushkar524/exam-seat-allotment/pkg/config"
)

const (
	dialTimeout = 2 * time.Second
	lockTimeout = 1 * time.Second
)

// options maps config onto client options. Redis only carries scope
// locks here, single round trips each, so the timeouts stay tight: a
// stalled Redis should degrade to unlocked runs rather than hang a run.
func options(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  lockTimeout,
		WriteTimeout: lockTimeout,
		MaxRetries:   2,
	}
}

// NewRedis returns a Redis client for scope locking, verified reachable.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	opts := options(cfg)
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}
