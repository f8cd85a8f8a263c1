package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Cache holds the newest-first commit list of a room.
type Cache interface {
	Get(ctx context.Context, room domain.RoomID, limit int) ([]domain.Commit, error)
	Set(ctx context.Context, room domain.RoomID, limit int, commits []domain.Commit) error
	Invalidate(ctx context.Context, room domain.RoomID) error
	Close() error
}

type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

const keyPrefix = "coderoom:history"

// RedisCache stores each (room, limit) list under a hash keyed by room,
// so one DEL drops every cached page of that room.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

func roomKey(room domain.RoomID) string {
	return fmt.Sprintf("%s:%s", keyPrefix, room)
}

func limitField(limit int) string {
	return fmt.Sprintf("limit:%d", limit)
}

func (c *RedisCache) Get(ctx context.Context, room domain.RoomID, limit int) ([]domain.Commit, error) {
	data, err := c.client.HGet(ctx, roomKey(room), limitField(limit)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var commits []domain.Commit
	if err := json.Unmarshal(data, &commits); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}
	return commits, nil
}

func (c *RedisCache) Set(ctx context.Context, room domain.RoomID, limit int, commits []domain.Commit) error {
	data, err := json.Marshal(commits)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	key := roomKey(room)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, limitField(limit), data)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, room domain.RoomID) error {
	if err := c.client.Del(ctx, roomKey(room)).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// noopCache is used when no Redis address is configured.
type noopCache struct{}

func NoopCache() Cache { return noopCache{} }

func (noopCache) Get(context.Context, domain.RoomID, int) ([]domain.Commit, error) {
	return nil, ErrCacheMiss
}
func (noopCache) Set(context.Context, domain.RoomID, int, []domain.Commit) error { return nil }
func (noopCache) Invalidate(context.Context, domain.RoomID) error { return nil }
func (noopCache) Close() error { return nil }
