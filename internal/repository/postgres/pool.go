package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"

	"github.com/maxviazov/pelada-service/internal/config"
)

// DSN builds a postgres:// URL from cfg. url.URL takes care of escaping credentials.
func DSN(cfg config.PostgresConfig) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   cfg.DBName,
	}
	if cfg.User != "" || cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	q := u.Query()
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// NewPool opens a pgx pool with zerolog query tracing and verifies it with a ping.
func NewPool(ctx context.Context, cfg config.PostgresConfig, logger *zerolog.Logger) (*pgxpool.Pool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	poolConfig, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}

	poolConfig.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   newPgxLogger(*logger),
		LogLevel: traceLevel(logger.GetLevel()),
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	poolConfig.MaxConnIdleTime = time.Duration(cfg.MaxConnIdleTime) * time.Second
	if cfg.HealthCheckPeriod > 0 {
		poolConfig.HealthCheckPeriod = time.Duration(cfg.HealthCheckPeriod) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	// don't hang at startup on an unreachable database
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("user", cfg.User).
		Str("db", cfg.DBName).
		Msg("connected to PostgreSQL")

	return pool, nil
}

func traceLevel(l zerolog.Level) tracelog.LogLevel {
	switch {
	case l <= zerolog.TraceLevel:
		return tracelog.LogLevelTrace
	case l <= zerolog.DebugLevel:
		return tracelog.LogLevelDebug
	case l <= zerolog.InfoLevel:
		return tracelog.LogLevelInfo
	case l <= zerolog.WarnLevel:
		return tracelog.LogLevelWarn
	default:
		return tracelog.LogLevelError
	}
}
