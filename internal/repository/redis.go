package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unwindlabs/tranchegate/internal/config"
	"github.com/unwindlabs/tranchegate/internal/model"
)

type RedisClient struct {
	Client *redis.Client
	cfg    config.RedisConfig
}

func NewRedisClient(cfg *config.Config) (*RedisClient, error) {
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{Client: rdb, cfg: cfg.Redis}, nil
}

// HolderCount implements HolderCounter against the externally maintained
// counter key. A missing key reads as zero holders.
func (r *RedisClient) HolderCount(ctx context.Context) (uint64, error) {
	val, err := r.Client.Get(ctx, r.cfg.HoldersKey).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading holder count: %w", err)
	}
	n, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("holder count %q not a number: %w", val, err)
	}
	return n, nil
}

// Publish fans the rebase signal out on the configured pub/sub channel.
func (r *RedisClient) Publish(ctx context.Context, sig model.RebaseSignal) error {
	payload, err := json.Marshal(sig)
	if err != nil {
		return err
	}
	return r.Client.Publish(ctx, r.cfg.SignalChannel, payload).Err()
}

// StaticHolderCounter serves a fixed count, for tests and redis-less dev runs.
type StaticHolderCounter uint64

func (c StaticHolderCounter) HolderCount(ctx context.Context) (uint64, error) {
	return uint64(c), nil
}
