// Package app defines the App struct that composes the program's main
// dependencies.
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - database pool and the ORM session on it
//
// It provides the constructor and shutdown logic so the entry point can run
// the demonstrations and release everything cleanly afterwards.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/crud-demo/internal/config"
	"github.com/deppfellow/crud-demo/internal/database"
	"github.com/rs/zerolog"

	loggerPkg "github.com/deppfellow/crud-demo/internal/logger"
)

// App is the application container that holds shared resources.
type App struct {
	// Config holds all environment/config values for the program.
	Config *config.Config

	// Logger is the main structured logger.
	Logger *zerolog.Logger

	// LoggerService optionally holds the New Relic application instance.
	// If New Relic is disabled, this may exist but contain nil nrApp.
	LoggerService *loggerPkg.LoggerService

	// DB holds the PostgreSQL pool and the ORM session.
	DB *database.Database
}

// New constructs an App and initializes core dependencies.
//
// Initialization performed:
//   - schema migrations, when database.migrate is on
//   - PostgreSQL pool + optional New Relic tracing, pinged once
//   - gorm session over that pool
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*App, error) {
	if cfg.Database.Migrate {
		if err := database.Migrate(ctx, logger, cfg); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	db, err := database.New(ctx, cfg, logger, loggerService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		DB:            db,
	}, nil
}

// Shutdown releases the database and flushes New Relic.
//
// Both steps always run; their errors are joined.
func (a *App) Shutdown() error {
	var shutdownErr error

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			shutdownErr = errors.Join(shutdownErr, fmt.Errorf("failed to close database connection: %w", err))
		}
	}

	a.LoggerService.Shutdown()

	return shutdownErr
}
