package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/postop-assistant/internal/assistant"
	"github.com/wolfman30/postop-assistant/internal/auth"
	"github.com/wolfman30/postop-assistant/internal/clinical"
	appconfig "github.com/wolfman30/postop-assistant/internal/config"
	"github.com/wolfman30/postop-assistant/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// ConnectPostgresPool opens a pgx pool, or returns nil when no URL is set or
// the database is unreachable.
func ConnectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if strings.TrimSpace(databaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres not reachable", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// OpenSQLDB opens a database/sql handle over the pgx driver for components
// written against database/sql.
func OpenSQLDB(databaseURL string) (*sql.DB, error) {
	return sql.Open("pgx", databaseURL)
}

// Stores groups the persistence collaborators the API needs.
type Stores struct {
	Clinical clinical.Store
	Profiles auth.ProfileStore
	ChatLog  assistant.ChatLog
}

// BuildStores picks Postgres-backed stores when a pool is available and
// falls back to in-memory stores otherwise.
func BuildStores(pool *pgxpool.Pool, sqlDB *sql.DB, logger *logging.Logger) Stores {
	if logger == nil {
		logger = logging.Default()
	}
	if pool == nil {
		logger.Warn("no database configured; using in-memory stores")
		return Stores{
			Clinical: clinical.NewMemoryStore(),
			Profiles: auth.NewMemoryProfileStore(),
			ChatLog:  assistant.NewMemoryChatLog(),
		}
	}
	stores := Stores{
		Clinical: clinical.NewPostgresStore(pool),
		Profiles: auth.NewPostgresProfileStore(pool),
		ChatLog:  assistant.NewMemoryChatLog(),
	}
	if sqlDB != nil {
		stores.ChatLog = assistant.NewSQLChatLog(sqlDB)
	}
	return stores
}

// BuildSnapshotCache returns the Redis snapshot cache, or nil without Redis.
func BuildSnapshotCache(client *redis.Client, cfg *appconfig.Config) assistant.SnapshotCache {
	if client == nil {
		return nil
	}
	return assistant.NewRedisSnapshotCache(client, cfg.SnapshotCacheTTL, nil)
}
