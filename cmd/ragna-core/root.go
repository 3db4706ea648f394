package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/custodia-labs/ragna-core/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/ragna-core/internal/adapters/driven/redis"
	"github.com/custodia-labs/ragna-core/internal/cache"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "ragna-core",
	Short: "Cache and queue operations for the ragna-core pipelines",
	Long: `Management commands for a ragna-core deployment: run or trigger the
cache expiry janitor, flush the cache tiers, inspect document processing
status and enqueue documents for ingestion.

The pipelines themselves are library components wired by the embedding
application; this binary only needs the cache and queue backends.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// requireEnv returns the value of a mandatory environment variable
func requireEnv(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("%s is required", key)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

// openDB connects to PostgreSQL and initializes the schema
func openDB(ctx context.Context) (*postgres.DB, error) {
	databaseURL, err := requireEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}

	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             databaseURL,
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300)) * time.Second,
		ConnMaxIdleTime: time.Duration(getEnvInt("DB_CONN_MAX_IDLE_SEC", 60)) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.InitSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// openRedis connects to Redis and verifies the connection
func openRedis(ctx context.Context) (*redis.Client, error) {
	redisURL, err := requireEnv("REDIS_URL")
	if err != nil {
		return nil, err
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// stores bundles both cache tiers for the cache commands
type stores struct {
	db     *postgres.DB
	client *redis.Client
	hybrid *cache.Hybrid
}

// openStores connects both tiers and assembles the hybrid cache
func openStores(ctx context.Context) (*stores, error) {
	db, err := openDB(ctx)
	if err != nil {
		return nil, err
	}

	client, err := openRedis(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	fastTTL := time.Duration(getEnvInt("CACHE_FAST_TTL_SEC", 3600)) * time.Second
	fast := redisadapter.NewCache(client, redisadapter.CacheConfig{DefaultTTL: fastTTL})
	durable := postgres.NewCacheStore(db)

	return &stores{
		db:     db,
		client: client,
		hybrid: cache.NewHybrid(fast, durable, cache.HybridConfig{Logger: slog.Default()}),
	}, nil
}

// Close releases both backend connections
func (s *stores) Close() {
	s.client.Close()
	s.db.Close()
}
