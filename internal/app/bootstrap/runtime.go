// Package bootstrap assembles ContractGuard services from configuration.
// The API server, the analysis worker, and the tools Lambda all wire their
// dependencies through here so the three binaries cannot drift apart.
package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/contractguard/contractguard/internal/compliance"
	appconfig "github.com/contractguard/contractguard/internal/config"
	"github.com/contractguard/contractguard/pkg/logging"
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
		logger.Warn("redis not available; clause exemplar retrieval disabled", "error", err)
		return nil
	}
	return client
}

// BuildSQLDB opens the Postgres connection used by the audit trail, or
// (nil, nil) when no database is configured.
func BuildSQLDB(ctx context.Context, cfg *appconfig.Config) (*sql.DB, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil
	}
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: ping database: %w", err)
	}
	return db, nil
}

// BuildAuditService wires the audit trail when a database is available.
func BuildAuditService(db *sql.DB, logger *logging.Logger) *compliance.AuditService {
	if db == nil {
		if logger != nil {
			logger.Warn("no database configured; audit trail disabled")
		}
		return nil
	}
	return compliance.NewAuditService(db)
}
