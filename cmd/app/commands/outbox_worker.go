package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/allisson/cardledger/internal/app"
	"github.com/allisson/cardledger/internal/config"
	outboxUsecase "github.com/allisson/cardledger/internal/outbox/usecase"
)

// RunOutboxWorker delivers pending card events. With once set it processes a single
// batch and prints the number of delivered events.
func RunOutboxWorker(ctx context.Context, once bool, writer io.Writer) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	outboxUseCase, err := container.OutboxUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize outbox use case: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return runOutboxWorker(ctx, outboxUseCase, logger, once, writer)
}

func runOutboxWorker(
	ctx context.Context,
	useCase outboxUsecase.UseCase,
	logger *slog.Logger,
	once bool,
	writer io.Writer,
) error {
	if once {
		delivered, err := useCase.ProcessEvents(ctx)
		if err != nil {
			return fmt.Errorf("failed to process outbox events: %w", err)
		}
		_, _ = fmt.Fprintf(writer, "Delivered %d event(s)\n", delivered)
		return nil
	}

	if err := useCase.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("outbox worker error: %w", err)
	}

	logger.Info("outbox worker stopped")
	return nil
}
