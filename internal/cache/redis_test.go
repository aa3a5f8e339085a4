package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"shopcart/internal/domain/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis はminiredisに向いたRedisCacheを返す
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisCache(client, 10*time.Minute), mr
}

func sampleCart(userID int64) model.Cart {
	return model.Cart{
		UserID: userID,
		Items: []model.CartItem{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
		TotalPrice: decimal.RequireFromString("25.50"),
		Version:    3,
	}
}

func TestGet_Success(t *testing.T) {
	c, mr := setupTestRedis(t)

	data, err := json.Marshal(sampleCart(42))
	require.NoError(t, err)
	require.NoError(t, mr.Set(cacheKey(42), string(data)))

	got, err := c.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.UserID)
	assert.Len(t, got.Items, 2)
	assert.True(t, decimal.RequireFromString("25.5").Equal(got.TotalPrice))
	assert.Equal(t, int64(3), got.Version)
}

func TestGet_CacheMiss(t *testing.T) {
	c, _ := setupTestRedis(t)

	_, err := c.Get(context.Background(), 404)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestGet_InvalidJSON(t *testing.T) {
	c, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(cacheKey(1), `{"userId":`))

	_, err := c.Get(context.Background(), 1)
	require.ErrorContains(t, err, "unmarshal cart failed")
}

func TestSet_StoresWithTTL(t *testing.T) {
	c, mr := setupTestRedis(t)

	require.NoError(t, c.Set(context.Background(), sampleCart(7)))

	assert.True(t, mr.Exists(cacheKey(7)))
	ttl := mr.TTL(cacheKey(7))
	assert.GreaterOrEqual(t, ttl, 10*time.Minute)
	assert.LessOrEqual(t, ttl, 10*time.Minute+10*time.Minute/3)

	// TTL経過で消える
	mr.FastForward(20 * time.Minute)
	_, err := c.Get(context.Background(), 7)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestDelete(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, sampleCart(9)))
	require.NoError(t, c.Delete(ctx, 9))
	assert.False(t, mr.Exists(cacheKey(9)))

	// 無いキーの削除もエラーにしない
	require.NoError(t, c.Delete(ctx, 9))
}

func TestRedisErrors(t *testing.T) {
	c, mr := setupTestRedis(t)
	mr.Close()

	_, err := c.Get(context.Background(), 1)
	assert.ErrorContains(t, err, "redis get failed")
	assert.ErrorContains(t, c.Set(context.Background(), sampleCart(1)), "redis set failed")
	assert.ErrorContains(t, c.Delete(context.Background(), 1), "redis delete failed")
}

func TestNoop(t *testing.T) {
	var c CartCache = Noop{}
	_, err := c.Get(context.Background(), 1)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, c.Set(context.Background(), sampleCart(1)))
	assert.NoError(t, c.Delete(context.Background(), 1))
}
