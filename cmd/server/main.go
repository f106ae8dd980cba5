package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/TiRizvanov/chart-widget-backend/internal/app"
	"github.com/TiRizvanov/chart-widget-backend/internal/auth"
	"github.com/TiRizvanov/chart-widget-backend/internal/collab"
	"github.com/TiRizvanov/chart-widget-backend/internal/config"
	"github.com/TiRizvanov/chart-widget-backend/internal/database"
	"github.com/TiRizvanov/chart-widget-backend/internal/logging"
	"github.com/TiRizvanov/chart-widget-backend/internal/redis"
	"github.com/TiRizvanov/chart-widget-backend/internal/seeder"
	"github.com/TiRizvanov/chart-widget-backend/internal/server"
)

func setupConfig() *config.Config {
	// .env is optional; real deployments set env vars directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, db); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return db
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *server.Server, hub *collab.Hub, cancelRelay context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		hub.Stop()
		cancelRelay()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	chartRepo := database.NewChartRepo(pool)
	drawingRepo := database.NewDrawingRepo(pool)
	indicatorRepo := database.NewIndicatorRepo(pool)
	userRepo := database.NewUserRepo(pool)
	candleRepo := database.NewCandleRepo(pool)

	hub := collab.NewHub(clock, collab.Options{
		MaxClientsPerChart: cfg.MaxClientsPerChart,
		SendBuffer:         cfg.ClientSendBuffer,
	})

	healthChecks := []server.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
	}

	// Redis is optional: without it the hub still serves this instance,
	// mutations just stay local.
	relayCtx, cancelRelay := context.WithCancel(context.Background())
	var relay *redis.Relay
	if cfg.RedisURL != "" {
		redisClient := setupRedis(relayCtx, cfg)
		defer func() { _ = redisClient.Close() }()

		relay = redis.NewRelay(redisClient, hub)
		go relay.Start(relayCtx)

		healthChecks = append(healthChecks, server.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL, clock)

	var publisher *app.Publisher
	if relay != nil {
		publisher = app.NewPublisher(hub, relay)
	} else {
		publisher = app.NewPublisher(hub, nil)
	}

	appSvc := app.NewService(chartRepo, drawingRepo, indicatorRepo, userRepo, candleRepo, publisher, tokens)

	dataSeeder := seeder.New(candleRepo, clock)
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 60*time.Second)
	if err := dataSeeder.Run(seedCtx); err != nil {
		slog.Error("Failed to seed market data", "error", err)
	}
	cancelSeed()

	srv := server.NewServer(cfg, appSvc, dataSeeder, tokens, hub, healthChecks)

	done := runGracefulShutdown(srv, hub, cancelRelay)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
