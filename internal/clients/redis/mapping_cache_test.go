package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Greg-CS/document-parser-sub001/internal/platform/logger"
)

func TestNewMappingCache_RequiresAddress(t *testing.T) {
	_, err := NewMappingCache(logger.NewNop(), MappingCacheConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_ADDR")

	_, err = NewMappingCache(nil, MappingCacheConfig{Addr: "127.0.0.1:6379"})
	require.Error(t, err)
}

func TestNewMappingCache_UnreachableServer(t *testing.T) {
	_, err := NewMappingCache(logger.NewNop(), MappingCacheConfig{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping")
}

func TestMappingCache_ClientErrorsAreNotMisses(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: time.Second})
	cache := NewMappingCacheFromClient(logger.NewNop(), rdb, time.Minute, "")
	defer cache.Close()

	ctx := context.Background()
	assert.NoError(t, cache.Delete(ctx))

	_, ok, err := cache.Get(ctx, "experian")
	assert.Error(t, err)
	assert.False(t, ok)

	_, err = cache.Generation(ctx, "experian")
	assert.Error(t, err)
	stored, err := cache.Set(ctx, "experian", 0, []byte(`{}`))
	assert.Error(t, err)
	assert.False(t, stored)
	assert.Error(t, cache.Delete(ctx, "experian"))

	assert.Same(t, rdb, cache.Client())
	mc := cache.(*mappingCache)
	assert.Equal(t, "mappingset:{experian}", mc.key("experian"))
	assert.Equal(t, "mappingset:gen:{experian}", mc.genKey("experian"))
}
