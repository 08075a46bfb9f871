package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/cardledger/internal/app"
	"github.com/allisson/cardledger/internal/config"
)

// component is a long running part of the server process.
type component struct {
	name     string
	start    func(ctx context.Context) error
	shutdown func(ctx context.Context) error
}

// RunServer starts the API server, the metrics server and the outbox worker.
//
// Blocks until SIGINT/SIGTERM or until one component fails, then stops the others
// within DBConnMaxLifetime.
func RunServer(ctx context.Context, version string) error {
	cfg := config.Load()

	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	defer closeContainer(container, logger)

	components, err := buildComponents(container)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return runComponents(ctx, logger, cfg, components)
}

func buildComponents(container *app.Container) ([]component, error) {
	cfg := container.Config()

	server, err := container.HTTPServer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	components := []component{{name: "api server", start: server.Start, shutdown: server.Shutdown}}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics server: %w", err)
	}
	if metricsServer != nil {
		components = append(components, component{
			name:     "metrics server",
			start:    metricsServer.Start,
			shutdown: metricsServer.Shutdown,
		})
	}

	if cfg.OutboxEnabled {
		outboxUseCase, err := container.OutboxUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize outbox worker: %w", err)
		}
		components = append(components, component{name: "outbox worker", start: outboxUseCase.Start})
	}

	return components, nil
}

// runComponents starts every component and shuts the servers down once ctx is done or
// any component returns an error.
func runComponents(ctx context.Context, logger *slog.Logger, cfg *config.Config, components []component) error {
	group, groupCtx := errgroup.WithContext(ctx)

	for _, c := range components {
		group.Go(func() error {
			err := c.start(groupCtx)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("%s error: %w", c.name, err)
			}
			return nil
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		if ctx.Err() != nil {
			logger.Info("shutdown signal received")
		} else {
			logger.Error("component failed, initiating shutdown")
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.DBConnMaxLifetime)
		defer shutdownCancel()

		var shutdownErrors []error
		for _, c := range components {
			if c.shutdown == nil {
				continue
			}
			if err := c.shutdown(shutdownCtx); err != nil {
				shutdownErrors = append(shutdownErrors, fmt.Errorf("%s shutdown: %w", c.name, err))
			}
		}
		return errors.Join(shutdownErrors...)
	})

	return group.Wait()
}
