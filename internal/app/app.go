package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/catalog/internal/auth"
	"github.com/utafrali/catalog/internal/cache"
	"github.com/utafrali/catalog/internal/config"
	"github.com/utafrali/catalog/internal/event"
	handler "github.com/utafrali/catalog/internal/handler/http"
	"github.com/utafrali/catalog/internal/repository/postgres"
	"github.com/utafrali/catalog/internal/service"
	"github.com/utafrali/catalog/migrations"
	"github.com/utafrali/catalog/pkg/database"
	"github.com/utafrali/catalog/pkg/health"
	pkgkafka "github.com/utafrali/catalog/pkg/kafka"
	"github.com/utafrali/catalog/pkg/middleware"
	"github.com/utafrali/catalog/pkg/tracing"
)

const (
	serviceName    = "catalog"
	serviceVersion = "0.1.0"
	startupTimeout = 30 * time.Second
)

// App wires together all dependencies and runs the catalog service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
	stopBackground context.CancelFunc
}

// Migrate connects to PostgreSQL, applies pending migrations and closes the
// pool again.
func Migrate(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	pool, err := connectPostgres(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")
	return nil
}

func connectPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", pgCfg.Host),
		slog.Int("port", pgCfg.Port),
		slog.String("database", pgCfg.DBName),
	)
	return pool, nil
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.close(context.Background())
		}
	}()

	// Initialize OpenTelemetry tracing.
	a.tracerShutdown, err = tracing.Init(startCtx, tracing.Config{
		Enabled:        cfg.OTELEnabled,
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	a.pool, err = connectPostgres(startCtx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err = database.RunMigrations(startCtx, a.pool, migrations.FS, logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	// Metrics.
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err = database.RegisterPoolMetrics(reg, a.pool, serviceName); err != nil {
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}
	writeMetrics, err := service.NewMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("register service metrics: %w", err)
	}
	httpMetrics := middleware.NewHTTPMetrics(reg, serviceName)

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return a.pool.Ping(ctx)
	})

	// Optional read cache.
	var productCache service.ProductCache = service.NoopCache{}
	if cfg.CacheEnabled() {
		a.rdb, err = database.NewRedisClient(startCtx, cfg.Redis())
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))
		productCache = cache.NewProductCache(a.rdb, cfg.CacheTTL)
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return a.rdb.Ping(ctx).Err()
		})
	}

	// Optional product events.
	var events service.EventPublisher = event.NoopProducer{}
	if cfg.EventsEnabled() {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
		events = event.NewProducer(a.producer, logger)
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
	}

	// Build the dependency graph.
	products := postgres.NewProductRepository(a.pool)
	images := postgres.NewImageRepository(a.pool)
	users := postgres.NewUserRepository(a.pool)

	catalog := service.NewCatalogService(a.pool, products, images, productCache, events, writeMetrics, logger)
	writer := service.NewProductWriter(a.pool, products, images, catalog, events, writeMetrics, logger)
	accounts := service.NewAuthService(users, auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry), cfg.BcryptCost, logger)

	bgCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	a.stopBackground = stop

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSOrigins

	router := handler.NewRouter(bgCtx, handler.Handlers{
		Products:      handler.NewProductHandler(catalog, writer, logger),
		Auth:          handler.NewAuthHandler(accounts, logger),
		Authenticator: accounts,
		Health:        healthHandler,
		HTTPMetrics:   httpMetrics,
		Metrics:       promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}, handler.RouterConfig{
		ServiceName: serviceName,
		CORS:        cors,
		RateLimit: middleware.RateLimitConfig{
			RPS:     cfg.RateLimitRPS,
			Burst:   cfg.RateLimitBurst,
			IdleTTL: 10 * time.Minute,
		},
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.close(context.Background())
		return err
	}

	return a.Shutdown()
}

// Shutdown drains in-flight requests, then flushes spans and closes the
// producer, cache client and pool in that order.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	errs = append(errs, a.close(ctx)...)

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// close releases everything except the HTTP server. Fields that were never
// initialized are skipped.
func (a *App) close(ctx context.Context) []error {
	var errs []error
	if a.stopBackground != nil {
		a.stopBackground()
	}
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errs
}
