package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Greg-CS/document-parser-sub001/internal/platform/logger"
)

const defaultKeyPrefix = "mappingset:"

type MappingCacheConfig struct {
	Addr      string
	Password  string
	DB        int
	TTL       time.Duration
	KeyPrefix string
}

// MappingCache stores encoded mapping-set snapshots keyed by source type.
// Each source type carries a generation counter that Delete increments; Set
// only writes while the caller's generation is still current.
type MappingCache interface {
	Get(ctx context.Context, sourceType string) ([]byte, bool, error)
	Generation(ctx context.Context, sourceType string) (int64, error)
	Set(ctx context.Context, sourceType string, gen int64, payload []byte) (bool, error)
	Delete(ctx context.Context, sourceTypes ...string) error
	Client() goredis.UniversalClient
	Close() error
}

type mappingCache struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	ttl    time.Duration
	prefix string
}

func NewMappingCache(log *logger.Logger, cfg MappingCacheConfig) (MappingCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewMappingCacheFromClient(log, rdb, cfg.TTL, cfg.KeyPrefix), nil
}

// NewMappingCacheFromClient wraps an existing client.
func NewMappingCacheFromClient(log *logger.Logger, rdb goredis.UniversalClient, ttl time.Duration, prefix string) MappingCache {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &mappingCache{
		log:    log.With("service", "RedisMappingCache"),
		rdb:    rdb,
		ttl:    ttl,
		prefix: prefix,
	}
}

// Keys share a hash tag so WATCH and SET land on one cluster slot.
func (c *mappingCache) key(sourceType string) string {
	return c.prefix + "{" + sourceType + "}"
}

func (c *mappingCache) genKey(sourceType string) string {
	return c.prefix + "gen:{" + sourceType + "}"
}

type getter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

func readGeneration(ctx context.Context, g getter, key string) (int64, error) {
	n, err := g.Get(ctx, key).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return n, err
}

func (c *mappingCache) Get(ctx context.Context, sourceType string) ([]byte, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(sourceType)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (c *mappingCache) Generation(ctx context.Context, sourceType string) (int64, error) {
	return readGeneration(ctx, c.rdb, c.genKey(sourceType))
}

func (c *mappingCache) Set(ctx context.Context, sourceType string, gen int64, payload []byte) (bool, error) {
	genKey := c.genKey(sourceType)
	stored := false
	err := c.rdb.Watch(ctx, func(tx *goredis.Tx) error {
		cur, err := readGeneration(ctx, tx, genKey)
		if err != nil {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, c.key(sourceType), payload, c.ttl)
			return nil
		})
		stored = err == nil
		return err
	}, genKey)
	if errors.Is(err, goredis.TxFailedErr) {
		c.log.Debug("mapping cache write lost generation race", "source_type", sourceType)
		return false, nil
	}
	return stored, err
}

func (c *mappingCache) Delete(ctx context.Context, sourceTypes ...string) error {
	if len(sourceTypes) == 0 {
		return nil
	}
	_, err := c.rdb.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, st := range sourceTypes {
			pipe.Incr(ctx, c.genKey(st))
			pipe.Del(ctx, c.key(st))
		}
		return nil
	})
	return err
}

func (c *mappingCache) Client() goredis.UniversalClient { return c.rdb }

func (c *mappingCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
