package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"saj-gateway/internal/config"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss is returned when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// RedisClient is the front tier for the vendor access token.
type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(cfg *config.Config) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisClientFrom(rdb), nil
}

// NewRedisClientFrom wraps an existing go-redis client.
func NewRedisClientFrom(rdb *redis.Client) *RedisClient {
	return &RedisClient{client: rdb}
}

func (r *RedisClient) GetToken(ctx context.Context) (string, error) {
	val, err := r.client.Get(ctx, AccessTokenKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("failed to get token from Redis: %w", err)
	}
	return val, nil
}

// SaveToken stores the token; a non-positive ttl is a no-op.
func (r *RedisClient) SaveToken(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, AccessTokenKey, token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save token to Redis: %w", err)
	}
	return nil
}

func (r *RedisClient) DeleteToken(ctx context.Context) error {
	if err := r.client.Del(ctx, AccessTokenKey).Err(); err != nil {
		return fmt.Errorf("failed to delete token from Redis: %w", err)
	}
	return nil
}

func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
