package app

import (
	"github.com/Greg-CS/document-parser-sub001/internal/clients/redis"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/logger"
)

type Clients struct {
	MappingCache redis.MappingCache
}

// wireClients connects optional external clients. Redis is skipped when
// REDIS_ADDR is unset and downgraded to a warning when unreachable, since
// the mapping-set cache is only an accelerator.
func wireClients(log *logger.Logger, cfg Config) Clients {
	log.Info("Wiring clients...")
	var out Clients
	if cfg.Redis.Addr == "" {
		log.Info("REDIS_ADDR not set; mapping cache disabled")
		return out
	}
	cache, err := redis.NewMappingCache(log, cfg.Redis)
	if err != nil {
		log.Warn("redis mapping cache unavailable (continuing without cache)", "error", err)
		return out
	}
	out.MappingCache = cache
	return out
}

func (c Clients) Close() {
	if c.MappingCache != nil {
		_ = c.MappingCache.Close()
	}
}
