package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/docfinder/docfinder/internal/config"
	"github.com/docfinder/docfinder/internal/domain/appointment"
	"github.com/docfinder/docfinder/internal/domain/doctor"
	"github.com/docfinder/docfinder/internal/domain/filter"
	"github.com/docfinder/docfinder/internal/platform/db"
	"github.com/docfinder/docfinder/internal/platform/events"
	"github.com/docfinder/docfinder/internal/platform/middleware"
	"github.com/docfinder/docfinder/internal/platform/telemetry"
	"github.com/docfinder/docfinder/migrations"
)

const version = "0.1.0"

// app holds the long-lived state shared by the HTTP handlers.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	metrics *telemetry.Metrics
	dir     *doctor.Directory
	ledger  *appointment.Ledger
	hub     *events.Hub
	pool    *pgxpool.Pool
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// ledgerStore opens the slot selected by LEDGER_BACKEND. The returned close
// function releases any connection the backend holds. pool is non-nil only
// for the postgres backend.
func ledgerStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (slot appointment.Slot, pool *pgxpool.Pool, closeFn func(), err error) {
	noop := func() {}

	switch cfg.LedgerBackend {
	case config.BackendMemory:
		return appointment.NewMemorySlot(), nil, noop, nil

	case config.BackendFile:
		return appointment.NewFileSlot(cfg.LedgerFile), nil, noop, nil

	case config.BackendRedis:
		client, err := appointment.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info().Msg("connected to redis")
		return appointment.NewRedisSlot(client, cfg.LedgerKey), nil, func() { client.Close() }, nil

	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info().Msg("connected to database")

		n, err := db.NewMigrator(pool, migrations.FS).Up(ctx)
		if err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("migrate: %w", err)
		}
		if n > 0 {
			logger.Info().Int("applied", n).Msg("applied migrations")
		}
		return appointment.NewPGSlot(pool, cfg.LedgerKey), pool, pool.Close, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
}

// newApp wires the directory, ledger and event hub. The directory has not
// fetched yet; callers start dir.Load themselves.
func newApp(cfg *config.Config, logger zerolog.Logger, source doctor.Source, slot appointment.Slot, pool *pgxpool.Pool) *app {
	metrics := telemetry.NewMetrics()
	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		dir:     doctor.NewDirectory(source, logger, metrics),
		ledger:  appointment.NewLedger(slot, logger, metrics),
		hub:     events.NewHub(logger),
		pool:    pool,
	}
	a.ledger.Subscribe(a.hub.Notify(events.TopicAppointments, events.TypeAppointmentsChanged))
	return a
}

func (a *app) router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(a.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.logger))
	e.Use(a.metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: a.cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(middleware.SecurityHeaders(a.cfg.IsProduction()))
	e.Use(middleware.RequestTimeout(a.cfg.RequestTimeout))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/api/status", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", a.metrics.Handler())
	if a.pool != nil {
		pool := a.pool
		e.GET("/health/db", db.HealthHandler(pool, func() *db.PoolStats { return db.GetPoolStats(pool) }))
	}

	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: a.cfg.RateLimitRPS,
		BurstSize:         a.cfg.RateLimitBurst,
	}))
	apiV1.Use(middleware.BodyLimit("64K"))

	doctor.NewHandler(a.dir).RegisterRoutes(apiV1)
	filter.NewHandler().RegisterRoutes(apiV1)
	appointment.NewHandler(a.ledger, a.dir).RegisterRoutes(apiV1)
	events.NewHandler(a.hub, a.cfg.CORSOrigins).RegisterRoutes(e.Group(""))

	return e
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slot, pool, closeSlot, err := ledgerStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.LedgerBackend).Msg("failed to open appointment ledger")
	}
	defer closeSlot()

	source := doctor.NewHTTPSource(cfg.SourceURL, cfg.FetchTimeout)
	a := newApp(cfg, logger, source, slot, pool)
	e := a.router()

	// The directory reports loading until the first fetch resolves.
	go a.dir.Load(ctx)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("ledger", cfg.LedgerBackend).Str("source", source.URL()).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
