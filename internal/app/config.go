package app

import (
	"strconv"
	"time"

	"github.com/Greg-CS/document-parser-sub001/internal/clients/redis"
	"github.com/Greg-CS/document-parser-sub001/internal/data/db"
	"github.com/Greg-CS/document-parser-sub001/internal/http/middleware"
	"github.com/Greg-CS/document-parser-sub001/internal/observability"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/envutil"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/logger"
)

type Config struct {
	Log  logger.Config
	Port string

	DB    db.Config
	Redis redis.MappingCacheConfig

	AdminJWTSecret string
	CORSOrigins    []string

	Otel observability.OtelConfig

	BackfillConcurrency int
	SeedDefaults        bool
	ShutdownTimeout     time.Duration
}

func (c Config) Addr() string {
	return ":" + c.Port
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Log: logger.Config{
			Mode:     envutil.String("LOG_MODE", "development"),
			Redact:   envutil.Bool("LOG_REDACTION_ENABLED", true),
			HashSalt: envutil.String("LOG_HASH_SALT", ""),
		},
		Port: envutil.String("PORT", "8080"),
		DB: db.Config{
			Driver: envutil.String("DB_DRIVER", db.DriverPostgres),
			Postgres: db.PostgresConfig{
				Host:     envutil.String("POSTGRES_HOST", "localhost"),
				Port:     envutil.String("POSTGRES_PORT", "5432"),
				User:     envutil.String("POSTGRES_USER", "postgres"),
				Password: envutil.String("POSTGRES_PASSWORD", ""),
				Name:     envutil.String("POSTGRES_NAME", "document_parser"),
				SSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),
			},
			SQLitePath: envutil.String("SQLITE_PATH", "document-parser.db"),
		},
		Redis: redis.MappingCacheConfig{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
			TTL:      envutil.Duration("MAPPING_CACHE_TTL", 10*time.Minute),
		},
		AdminJWTSecret: envutil.String("ADMIN_JWT_SECRET", ""),
		CORSOrigins:    envutil.List("CORS_ORIGINS", middleware.DefaultCORSOrigins),
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "document-parser"),
			Environment: envutil.String("OTEL_ENVIRONMENT", "development"),
			Version:     envutil.String("OTEL_SERVICE_VERSION", ""),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", ""),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: floatEnv("OTEL_SAMPLE_RATIO", 1),
		},
		BackfillConcurrency: envutil.Int("BACKFILL_CONCURRENCY", 4),
		SeedDefaults:        envutil.Bool("SEED_DEFAULT_MAPPINGS", true),
		ShutdownTimeout:     envutil.Duration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
	if cfg.AdminJWTSecret == "" && log != nil {
		log.Warn("ADMIN_JWT_SECRET is empty; admin routes will answer 503")
	}
	if cfg.BackfillConcurrency <= 0 {
		cfg.BackfillConcurrency = 1
	}
	return cfg
}

func floatEnv(name string, def float64) float64 {
	raw := envutil.String(name, "")
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return f
}
