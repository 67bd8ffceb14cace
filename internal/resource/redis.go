package resource

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection settings for the shared resource roster.
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Key      string `yaml:"key"`
}

const defaultRosterKey = "mend:resources"

// RedisPool rotates over a resource roster stored as a Redis list, so several
// processes share one rotation order.
type RedisPool struct {
	rdb *redis.Client
	key string
}

// NewRedisPool connects to Redis and returns a pool over the roster list.
func NewRedisPool(cfg RedisConfig) (*RedisPool, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = defaultRosterKey
	}
	return &RedisPool{rdb: rdb, key: key}, nil
}

// Seed replaces the roster with the given ids.
func (p *RedisPool) Seed(ctx context.Context, ids []string) error {
	pipe := p.rdb.TxPipeline()
	pipe.Del(ctx, p.key)
	if len(ids) > 0 {
		members := make([]any, len(ids))
		for i, id := range ids {
			members[i] = id
		}
		pipe.RPush(ctx, p.key, members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to seed resource roster: %w", err)
	}
	return nil
}

// Next rotates the roster (head moves to tail) and returns the moved id,
// retrying once when it matches exclude and an alternative exists.
func (p *RedisPool) Next(ctx context.Context, exclude string) (string, error) {
	size, err := p.Size(ctx)
	if err != nil {
		return "", err
	}
	if size == 0 {
		return "", ErrEmpty
	}

	id, err := p.rotate(ctx)
	if err != nil {
		return "", err
	}
	if id == exclude && size > 1 {
		return p.rotate(ctx)
	}
	return id, nil
}

func (p *RedisPool) rotate(ctx context.Context) (string, error) {
	id, err := p.rdb.LMove(ctx, p.key, p.key, "LEFT", "RIGHT").Result()
	if err != nil {
		return "", fmt.Errorf("failed to rotate resource roster: %w", err)
	}
	return id, nil
}

// Size returns the roster length.
func (p *RedisPool) Size(ctx context.Context) (int, error) {
	n, err := p.rdb.LLen(ctx, p.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read roster size: %w", err)
	}
	return int(n), nil
}

// Close closes the Redis connection.
func (p *RedisPool) Close() error {
	return p.rdb.Close()
}
