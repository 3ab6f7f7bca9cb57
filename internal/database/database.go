// Package database contains the logic for establishing connections to the
// PostgreSQL database and exposing them to the rest of the program.
//
// It handles:
//   - creating a pgx connection pool (pgxpool) from config
//   - wiring query tracing/logging (pgx tracelog)
//   - optional New Relic instrumentation (nrpgx5)
//   - opening the gorm ORM session on top of that same pool
//   - running the embedded schema migrations (tern)
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/deppfellow/crud-demo/internal/config"
	loggerConfig "github.com/deppfellow/crud-demo/internal/logger"
	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/newrelic/go-agent/v3/integrations/nrpgx5"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Database wraps the pgx connection pool and the ORM session built on it.
//
// Pool is the shared connection pool.
// ORM is the gorm handle the repositories use; its queries run on Pool.
type Database struct {
	Pool *pgxpool.Pool
	ORM  *gorm.DB

	sqlDB *sql.DB
	log   *zerolog.Logger
}

// multiTracer allows chaining multiple tracers.
//
// pgx supports a single Tracer in ConnConfig. This adapter runs every
// tracer that implements the start/end hooks, in order:
//   - New Relic tracer (for APM segments)
//   - tracelog.TraceLog (for local SQL logging in "local" env)
type multiTracer struct {
	tracers []any
}

// TraceQueryStart threads ctx through every tracer that supports it.
func (mt *multiTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	for _, tracer := range mt.tracers {
		if t, ok := tracer.(interface {
			TraceQueryStart(context.Context, *pgx.Conn, pgx.TraceQueryStartData) context.Context
		}); ok {
			ctx = t.TraceQueryStart(ctx, conn, data)
		}
	}
	return ctx
}

// TraceQueryEnd calls TraceQueryEnd where supported.
func (mt *multiTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	for _, tracer := range mt.tracers {
		if t, ok := tracer.(interface {
			TraceQueryEnd(context.Context, *pgx.Conn, pgx.TraceQueryEndData)
		}); ok {
			t.TraceQueryEnd(ctx, conn, data)
		}
	}
}

// DatabasePingTimeout is the number of seconds to wait for a ping before
// considering the database unreachable.
const DatabasePingTimeout = 10

// New creates the PostgreSQL connection pool with instrumentation, pings
// it, and opens the gorm session over it.
//
// Inputs:
//   - cfg: program config (connection details, pool settings, env)
//   - logger: main program logger
//   - loggerService: optional New Relic service (nil or agent-less is fine)
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (*Database, error) {
	pgxPoolConfig, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx pool config: %w", err)
	}

	pgxPoolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	pgxPoolConfig.MinConns = int32(min(cfg.Database.MaxIdleConns, cfg.Database.MaxOpenConns))
	if cfg.Database.ConnMaxLifetime > 0 {
		pgxPoolConfig.MaxConnLifetime = time.Duration(cfg.Database.ConnMaxLifetime) * time.Second
	}
	if cfg.Database.ConnMaxIdleTime > 0 {
		pgxPoolConfig.MaxConnIdleTime = time.Duration(cfg.Database.ConnMaxIdleTime) * time.Second
	}

	// New Relic PostgreSQL instrumentation takes the single tracer slot.
	if loggerService.GetApplication() != nil {
		pgxPoolConfig.ConnConfig.Tracer = nrpgx5.NewTracer()
	}

	// In local env, also log every SQL statement. Very noisy, so local only.
	if cfg.Primary.Env == "local" {
		globalLevel := logger.GetLevel()
		pgxLogger := loggerConfig.NewPgxLogger(globalLevel)

		localTracer := &tracelog.TraceLog{
			Logger:   pgxzero.NewLogger(pgxLogger),
			LogLevel: tracelog.LogLevel(loggerConfig.GetPgxTraceLogLevel(globalLevel)),
		}

		if pgxPoolConfig.ConnConfig.Tracer != nil {
			pgxPoolConfig.ConnConfig.Tracer = &multiTracer{
				tracers: []any{pgxPoolConfig.ConnConfig.Tracer, localTracer},
			}
		} else {
			pgxPoolConfig.ConnConfig.Tracer = localTracer
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxPoolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	// Fail fast if the database is down.
	pingCtx, cancel := context.WithTimeout(ctx, DatabasePingTimeout*time.Second)
	defer cancel()
	if err = pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().
		Str("host", cfg.Database.Host).
		Str("database", cfg.Database.Name).
		Msg("connected to the database")

	// database/sql view of the pool for gorm. Idle connections stay
	// managed by pgxpool.
	sqlDB := stdlib.OpenDBFromPool(pool)

	orm, err := OpenORM(postgres.New(postgres.Config{Conn: sqlDB}), *logger, cfg.Observability.Logging.SlowQueryThreshold)
	if err != nil {
		_ = sqlDB.Close()
		pool.Close()
		return nil, err
	}

	return &Database{
		Pool:  pool,
		ORM:   orm,
		sqlDB: sqlDB,
		log:   logger,
	}, nil
}

// OpenORM opens a gorm session on dialector with the zerolog-backed gorm
// logger. Driver errors are returned untranslated so sqlerr can read the
// Postgres details.
func OpenORM(dialector gorm.Dialector, logger zerolog.Logger, slowThreshold time.Duration) (*gorm.DB, error) {
	orm, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 loggerConfig.NewGormLogger(logger, slowThreshold),
		SkipDefaultTransaction: false,
		TranslateError:         false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open orm session: %w", err)
	}
	return orm, nil
}

// Close releases the ORM's database/sql handle and the connection pool.
func (db *Database) Close() error {
	db.log.Info().Msg("closing database connection pool")

	var closeErr error
	if db.sqlDB != nil {
		if err := db.sqlDB.Close(); err != nil {
			closeErr = fmt.Errorf("failed to close sql handle: %w", err)
		}
	}
	db.Pool.Close()

	return closeErr
}
