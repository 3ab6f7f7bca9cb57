package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/deppfellow/crud-demo/internal/app"
	"github.com/deppfellow/crud-demo/internal/config"
	"github.com/deppfellow/crud-demo/internal/logger"
	"github.com/deppfellow/crud-demo/internal/repository"
	"github.com/deppfellow/crud-demo/internal/service"
	"github.com/rs/zerolog"
)

// main is the entrypoint for the crud-demo program.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// The real main function handles errors and exit codes.
	err := run(ctx, os.Stdout)
	stop()
	if err != nil {
		reportFailure(os.Stderr, err)
		os.Exit(1)
	}
}

// reportFailure logs the error that ended the run. It has its own console
// logger because run may fail before the configured one exists.
func reportFailure(w io.Writer, err error) {
	log := zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).With().Timestamp().Logger()
	log.Error().Err(err).Msg("An error occurred")
}

// run loads configuration, connects, runs the configured demonstrations
// and releases everything again. Demonstration output goes to out.
func run(ctx context.Context, out io.Writer) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	a, err := app.New(ctx, cfg, &log, loggerService)
	if err != nil {
		loggerService.Shutdown()
		return err
	}
	defer func() {
		if err := a.Shutdown(); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	repos := repository.NewRepositories(a.DB.ORM)

	services, err := service.NewService(a, repos, out)
	if err != nil {
		return fmt.Errorf("could not create services: %w", err)
	}

	return services.Demo.Run(ctx, cfg.Demo.Examples)
}
