package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/jhonattanreales21/rutasalud/internal/infrastructure/clients/redis"
)

func TestRedisAdapter_Key(t *testing.T) {
	a := &RedisAdapter{namespace: "rutasalud"}
	assert.Equal(t, "rutasalud:corr:fuzzy:0.7:3:v1", a.key("corr:fuzzy:0.7:3:v1"))

	a = &RedisAdapter{}
	assert.Equal(t, "corr:fuzzy:0.7:3:v1", a.key("corr:fuzzy:0.7:3:v1"))
}

func TestRedisAdapter_UnreachableServerIsNotAMiss(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()
	c := NewRedisAdapter(redisclient.NewClientFromRedis(rdb), "rutasalud")
	ctx := context.Background()

	_, err := c.Get(ctx, "corr:key")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)

	assert.Error(t, c.Set(ctx, "corr:key", []byte("{}"), time.Minute))
	assert.Error(t, c.Delete(ctx, "corr:key"))

	_, err = c.Exists(ctx, "corr:key")
	assert.Error(t, err)
}
