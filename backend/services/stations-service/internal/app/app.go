package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	libdb "evmap/backend/libs/db"
	libredis "evmap/backend/libs/redis"
	"evmap/backend/services/stations-service/internal/cache"
	"evmap/backend/services/stations-service/internal/config"
	httpserver "evmap/backend/services/stations-service/internal/http"
	"evmap/backend/services/stations-service/internal/http/handlers"
	"evmap/backend/services/stations-service/internal/http/middleware"
	"evmap/backend/services/stations-service/internal/models"
	"evmap/backend/services/stations-service/internal/password"
	"evmap/backend/services/stations-service/internal/repository"
	"evmap/backend/services/stations-service/internal/scheduler"
	"evmap/backend/services/stations-service/internal/service"
	"evmap/backend/services/stations-service/internal/vendors"
	"evmap/backend/services/stations-service/internal/vendors/evancharge"
	"evmap/backend/services/stations-service/internal/vendors/teamenergy"
	"evmap/backend/services/stations-service/internal/ws"
)

// App wires all dependencies for the stations service.
type App struct {
	aggregator *service.Aggregator
	server     *httpserver.Server
	scheduler  *scheduler.Scheduler
	hub        *ws.Hub
	db         *sql.DB
	redis      *redis.Client
	logger     *zap.Logger
}

// New builds the application graph. Postgres and Redis are only dialled when
// configured.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	store, err := a.newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	history, err := a.newHistory(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a.hub = ws.NewHub(cfg.WebSocket.PingInterval, cfg.WebSocket.WriteTimeout, logger)
	a.aggregator = service.NewAggregator(newSources(cfg, logger), store, service.Options{
		PullTimeout: cfg.Vendors.Timeout,
		History:     history,
		Notifier:    a.hub,
	}, logger)

	if cfg.Schedule.Enabled {
		a.scheduler, err = newScheduler(cfg, a.aggregator, logger)
		if err != nil {
			return nil, err
		}
	}

	deps := httpserver.RouterDeps{
		StationsHandlers: handlers.NewStationsHandlers(a.aggregator, cfg.Map.Token, logger),
		HealthHandler:    handlers.NewHealthHandler(),
		LiveUpdates:      a.hub,
		AllowedOrigins:   cfg.HTTP.CORSOrigins,
		Logger:           logger,
	}
	if cfg.AdminEnabled() {
		if !password.ValidHash(cfg.Admin.PasswordHash) {
			return nil, errors.New("app: admin password hash is not a bcrypt hash")
		}
		deps.AdminAuth = middleware.AdminAuth(cfg.Admin.User, cfg.Admin.PasswordHash, password.NewBcryptHasher(0), logger)
	}
	if cfg.Map.Token == "" {
		logger.Warn("MAPBOX_TOKEN is not set, the map page will show a configuration notice")
	}

	a.server = httpserver.NewServer(cfg.HTTPAddress(), httpserver.NewRouter(deps), cfg.HTTP.WriteTimeout, logger)
	ok = true
	return a, nil
}

func newSources(cfg *config.Config, logger *zap.Logger) []service.Source {
	httpClient := vendors.NewDefaultHTTPClient(cfg.Vendors.Timeout)

	te := cfg.Vendors.TeamEnergy
	ec := cfg.Vendors.EvanCharge
	if !te.Configured() {
		logger.Warn("vendor credentials missing, refreshes for it will fail", zap.String("vendor", models.BrandTeamEnergy.Key()))
	}
	if !ec.Configured() {
		logger.Warn("vendor credentials missing, refreshes for it will fail", zap.String("vendor", models.BrandEvanCharge.Key()))
	}

	teClient := teamenergy.NewClient(te.BaseURL, teamenergy.Credentials{Phone: te.Phone, Password: te.Password}, httpClient, logger)
	ecClient := evancharge.NewClient(ec.BaseURL, evancharge.Credentials{Phone: ec.Phone, Password: ec.Password}, cfg.Vendors.PageLimit, httpClient, logger)

	return []service.Source{
		teamenergy.NewSource(teClient, logger),
		evancharge.NewSource(ecClient, logger),
	}
}

func (a *App) newStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	if cfg.Cache.Backend != config.CacheRedis {
		a.logger.Info("using file cache", zap.String("dir", cfg.DataDir))
		return cache.NewFileStore(cfg.DataDir)
	}

	client, err := libredis.NewRedisClient(ctx, libredis.Options{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("app: redis cache: %w", err)
	}
	a.redis = client
	a.logger.Info("using redis cache", zap.String("addr", cfg.Cache.Redis.Addr))
	return cache.NewRedisStore(client, cfg.Cache.Redis.Prefix, cfg.Cache.Redis.TTL), nil
}

func (a *App) newHistory(ctx context.Context, cfg *config.Config) (service.History, error) {
	if !cfg.HistoryEnabled() {
		return service.NewMemoryHistory(50), nil
	}

	sqlDB, err := libdb.NewPostgresDB(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("app: history database: %w", err)
	}
	a.db = sqlDB

	repo := repository.NewRefreshRepository(sqlDB)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func newScheduler(cfg *config.Config, agg *service.Aggregator, logger *zap.Logger) (*scheduler.Scheduler, error) {
	windows, err := scheduler.ParseWindows(cfg.Schedule.Times)
	if err != nil {
		return nil, err
	}
	loc, err := scheduler.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return nil, err
	}
	job := func(ctx context.Context, _ time.Time) error {
		_, err := agg.Refresh(ctx, service.TriggerScheduled)
		return err
	}
	return scheduler.New(windows, loc, job, logger)
}

// Run serves HTTP and runs the scheduler until ctx is cancelled or either
// stops with an error.
func (a *App) Run(ctx context.Context) error {
	defer a.hub.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.server.Run(gctx)
	})
	if a.scheduler != nil {
		g.Go(func() error {
			return a.scheduler.Run(gctx)
		})
	}
	return g.Wait()
}

// RefreshOnce runs one refresh outside the server.
func (a *App) RefreshOnce(ctx context.Context) (models.RefreshRun, error) {
	return a.aggregator.Refresh(ctx, service.TriggerCLI)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
