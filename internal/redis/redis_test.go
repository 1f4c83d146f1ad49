package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewRedisClientFrom(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestTokenRoundTrip(t *testing.T) {
	client, mr := setupRedis(t)
	ctx := context.Background()

	_, err := client.GetToken(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, client.SaveToken(ctx, "tok-1", time.Minute))
	got, err := client.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)
	assert.Equal(t, time.Minute, mr.TTL(AccessTokenKey))

	mr.FastForward(2 * time.Minute)
	_, err = client.GetToken(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestSaveTokenSkipsNonPositiveTTL(t *testing.T) {
	client, mr := setupRedis(t)

	require.NoError(t, client.SaveToken(context.Background(), "tok-1", 0))
	assert.False(t, mr.Exists(AccessTokenKey))
}

func TestDeleteToken(t *testing.T) {
	client, _ := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, client.SaveToken(ctx, "tok-1", time.Minute))
	require.NoError(t, client.DeleteToken(ctx))
	_, err := client.GetToken(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisUnavailable(t *testing.T) {
	client, mr := setupRedis(t)
	mr.Close()

	_, err := client.GetToken(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
