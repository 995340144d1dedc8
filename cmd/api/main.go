package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"shopease/internal/config"
	"shopease/internal/database"
	"shopease/internal/logger"
	"shopease/internal/server"
	"shopease/internal/storage"
	"shopease/internal/view"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The context is used to inform the server it has 30 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Close server resources
	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func newRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// openStorage builds the key-value backend named by the storage driver
func openStorage(cfg *config.Config, log *zap.Logger) (*storage.Store, *redis.Client, *sql.DB, error) {
	var client *redis.Client
	if cfg.Storage.Driver == "redis" || cfg.RateLimit.Enabled {
		client = newRedisClient(cfg.Redis)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			if cfg.Storage.Driver == "redis" {
				client.Close()
				return nil, nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
			}
			log.Warn("Redis unavailable, rate limiting disabled", zap.Error(err))
			client.Close()
			client = nil
		}
	}

	switch cfg.Storage.Driver {
	case "memory", "":
		return storage.NewStore(storage.NewMemoryBackend(), log), client, nil, nil

	case "redis":
		backend := storage.NewRedisBackend(client, cfg.Redis.KeyPrefix)
		return storage.NewStore(backend, log), client, nil, nil

	case "postgres":
		db, err := database.Open(cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}

		health := database.Health(context.Background(), db)
		log.Info("Database health check", zap.Any("health", health))

		// Run migrations
		if err := database.RunMigrations(context.Background(), db, database.MigrationsFS(cfg.Storage.MigrationsDir), log); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("Database migrations completed successfully")

		return storage.NewStore(storage.NewPostgresBackend(db), log), client, db, nil
	}

	if client != nil {
		client.Close()
	}
	return nil, nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Refusing to start with unsafe configuration",
			zap.String("env", cfg.Server.Env),
			zap.Error(err),
		)
	}

	log.Info("Starting ShopEase storefront",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Driver),
	)

	store, redisClient, db, err := openStorage(cfg, log)
	if err != nil {
		log.Fatal("Failed to open storage", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	footer, err := view.LoadFooter(ctx, cfg.Store.FooterPath, &http.Client{Timeout: 10 * time.Second})
	cancel()
	if err != nil {
		log.Warn("Footer unavailable, pages render without it",
			zap.String("source", cfg.Store.FooterPath),
			zap.Error(err),
		)
	}

	// Create server
	srv, err := server.NewServer(cfg, log, server.Deps{
		Store:  store,
		Redis:  redisClient,
		DB:     db,
		Footer: footer,
	})
	if err != nil {
		log.Fatal("Failed to create server", zap.Error(err))
	}

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info("Graceful shutdown complete")
}
