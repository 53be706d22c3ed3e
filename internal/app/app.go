package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Greg-CS/document-parser-sub001/internal/data/db"
	"github.com/Greg-CS/document-parser-sub001/internal/http"
	"github.com/Greg-CS/document-parser-sub001/internal/observability"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/logger"
	"github.com/Greg-CS/document-parser-sub001/internal/services"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DBS      *db.Service
	DB       *gorm.DB
	Clients  Clients
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics
	Server   *http.Server

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// NewLogger builds the process logger from the LOG_* settings.
func NewLogger() (*logger.Logger, error) {
	log, err := logger.New(LoadConfig(nil).Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

// New wires the full HTTP service.
func New(ctx context.Context) (*App, error) {
	log, err := NewLogger()
	if err != nil {
		return nil, err
	}
	log.Info("Loading environment variables...")
	a, err := Bootstrap(ctx, log, LoadConfig(log))
	if err != nil {
		log.Sync()
		return nil, err
	}
	handlerset := wireHandlers(log, a.DBS, a.Services)
	middleware := wireMiddleware(log, a.Cfg)
	a.Server = wireServer(log, a.Cfg, handlerset, middleware, a.Metrics)
	return a, nil
}

// Bootstrap opens storage and wires services without the HTTP surface.
// The command line tools start from here.
func Bootstrap(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	dbs, err := db.NewService(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbs.AutoMigrateAll(); err != nil {
		_ = dbs.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := dbs.DB()

	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)
	metrics := observability.Init(log)

	clients := wireClients(log, cfg)
	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, reposet, clients, metrics)

	return &App{
		Log:          log,
		Cfg:          cfg,
		DBS:          dbs,
		DB:           theDB,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Metrics:      metrics,
		otelShutdown: otelShutdown,
	}, nil
}

// Start seeds default mappings when enabled and launches the background
// collectors.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	if a.Cfg.SeedDefaults {
		if _, err := services.SeedDefaultMappings(ctx, a.Log, a.Services.Registry); err != nil {
			return fmt.Errorf("seed default mappings: %w", err)
		}
	}
	runCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.Metrics.StartDBCollector(runCtx, a.Log, a.DB)
	if a.Clients.MappingCache != nil {
		a.Metrics.StartRedisCollector(runCtx, a.Log, a.Clients.MappingCache.Client())
	}
	return nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Listening", "addr", a.Cfg.Addr())
	return a.Server.Run(a.Cfg.Addr())
}

func (a *App) Shutdown(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return nil
	}
	return a.Server.Shutdown(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	a.Clients.Close()
	if a.DBS != nil {
		if err := a.DBS.Close(); err != nil {
			a.Log.Warn("database close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
