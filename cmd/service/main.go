// cmd/service/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github-sync-proxy/internal/api"
	"github-sync-proxy/internal/assistant"
	"github-sync-proxy/internal/auth"
	"github-sync-proxy/internal/config"
	"github-sync-proxy/internal/github"
	"github-sync-proxy/internal/ratelimit"
	"github-sync-proxy/internal/store"
	"github-sync-proxy/internal/syncer"
	"github-sync-proxy/internal/tokencipher"
)

// Per-endpoint request ceilings per identity per minute.
const (
	githubRateLimit = 30
	chatRateLimit   = 10
)

func main() {
	if err := run(); err != nil {
		slog.Error("Application startup error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Initialize structured logger
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 2. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded successfully")

	// 3. Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 4. Initialize database connection and run migrations
	dbpool, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbpool.Close()
	logger.Info("Database connection established")

	if err := runMigrations(cfg.DBURL); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	logger.Info("Database migrations applied successfully")

	// 5. Initialize application components
	cipher, err := tokencipher.New(cfg.TokenCipherKey)
	if err != nil {
		return fmt.Errorf("failed to initialize token cipher: %w", err)
	}

	st := store.NewPGStore(dbpool, cipher)
	ghClient := github.NewClient(cfg.GithubAPIURL, logger)
	appSyncer := syncer.NewSyncer(st, logger)
	gateway := assistant.NewClient(cfg.AIGatewayURL, cfg.AIGatewayKey, logger)
	verifier := auth.NewVerifier(cfg.JWTSecret)

	githubLimiter, chatLimiter := buildLimiters(cfg, logger)

	router := api.NewRouter(api.Deps{
		Store:          st,
		GithubClient:   ghClient,
		Syncer:         appSyncer,
		Gateway:        gateway,
		Verifier:       verifier,
		GithubLimiter:  githubLimiter,
		ChatLimiter:    chatLimiter,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	// 6. Start the HTTP server and wait for shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("Server stopped cleanly")
	return nil
}

// buildLimiters selects the rate-limit backend. With a Redis address
// configured the counters are shared across instances; otherwise each
// instance keeps its own approximate window.
func buildLimiters(cfg *config.Config, logger *slog.Logger) (ratelimit.Limiter, ratelimit.Limiter) {
	if cfg.RedisAddr == "" {
		return ratelimit.NewMemoryLimiter(githubRateLimit), ratelimit.NewMemoryLimiter(chatRateLimit)
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	logger.Info("Using shared rate-limit counters", "redis_addr", cfg.RedisAddr)
	return ratelimit.NewRedisLimiter(client, "github", githubRateLimit, logger),
		ratelimit.NewRedisLimiter(client, "chat", chatRateLimit, logger)
}

func runMigrations(dbURL string) error {
	m, err := migrate.New("file://migrations", dbURL)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
