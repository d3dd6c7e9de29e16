// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/npo-event-seating/internal/config"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/database"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/handler"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/logger"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/notify"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/repository"
	"github.com/Shivanand-hulikatti/npo-event-seating/internal/service"
)

const notifyStreamMaxLen = 10000

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, "npo-event-seating")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		os.Exit(exitCode(log, err))
	}
}

// exitCode logs err and flushes log, since os.Exit skips deferred calls.
func exitCode(log *zap.Logger, err error) int {
	log.Error("server exited", zap.Error(err))
	_ = log.Sync()
	return 1
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	// ── 1. Storage ────────────────────────────────────────────────────────
	var store repository.Store
	switch cfg.Store {
	case config.StoreMemory:
		store = repository.NewMemoryStore()
		log.Warn("using in-memory store; data is lost on restart")
	default:
		pool, err := database.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer pool.Close()
		log.Info("connected to PostgreSQL", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))

		if cfg.MigrateOnStart {
			if err := database.Migrate(ctx, pool); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("migrations applied")
		}
		store = repository.NewPostgresStore(pool)
	}

	// ── 2. Notifications ──────────────────────────────────────────────────
	var pub notify.Publisher = notify.Nop{}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// Publishing failures are logged per call; startup does not depend on Redis.
			log.Warn("redis unreachable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		pub = notify.NewRedisStreamPublisher(rdb, cfg.NotifyStream, notifyStreamMaxLen)
		log.Info("publishing notifications", zap.String("stream", cfg.NotifyStream))
	}

	// ── 3. Wire up layers ─────────────────────────────────────────────────
	timeout := cfg.OperationTimeout
	router := handler.NewRouter(handler.Services{
		Events:  service.NewEventService(store, log, timeout),
		Bidders: service.NewBidderService(store, pub, log, timeout),
		Seating: service.NewSeatingService(store, log, timeout),
		Auto:    service.NewAutoAssigner(store, pub, log, timeout),
	}, log)

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until SIGINT, SIGTERM or a listener failure.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("server stopped")
	return nil
}
