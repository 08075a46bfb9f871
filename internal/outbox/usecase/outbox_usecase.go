// Package usecase delivers pending outbox events written by card mutations.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/allisson/cardledger/internal/database"
	apperrors "github.com/allisson/cardledger/internal/errors"
	"github.com/allisson/cardledger/internal/metrics"
	"github.com/allisson/cardledger/internal/outbox/domain"
)

const metricsDomain = "outbox"

// Config holds outbox worker configuration.
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// OutboxEventRepository defines outbox event repository operations.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *domain.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	Update(ctx context.Context, event *domain.OutboxEvent) error
}

// EventProcessor delivers a single event.
type EventProcessor interface {
	Process(ctx context.Context, event *domain.OutboxEvent) error
}

// UseCase defines the outbox worker operations.
type UseCase interface {
	// Start polls for pending events every Interval until ctx is cancelled.
	Start(ctx context.Context) error

	// ProcessEvents delivers one batch and returns how many events were delivered.
	ProcessEvents(ctx context.Context) (int, error)
}

// OutboxUseCase delivers outbox events in batches.
type OutboxUseCase struct {
	config         Config
	txManager      database.TxManager
	outboxRepo     OutboxEventRepository
	eventProcessor EventProcessor
	metrics        metrics.BusinessMetrics
	logger         *slog.Logger
	now            func() time.Time
}

// NewOutboxUseCase creates a new OutboxUseCase. A nil logger falls back to slog.Default
// and nil metrics to a no-op recorder.
func NewOutboxUseCase(
	config Config,
	txManager database.TxManager,
	outboxRepo OutboxEventRepository,
	eventProcessor EventProcessor,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) *OutboxUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}
	return &OutboxUseCase{
		config:         config,
		txManager:      txManager,
		outboxRepo:     outboxRepo,
		eventProcessor: eventProcessor,
		metrics:        businessMetrics,
		logger:         logger,
		now:            time.Now,
	}
}

// Start polls for pending events every Interval until ctx is cancelled.
func (uc *OutboxUseCase) Start(ctx context.Context) error {
	uc.logger.Info("starting outbox worker",
		slog.Duration("interval", uc.config.Interval),
		slog.Int("batch_size", uc.config.BatchSize),
		slog.Int("max_retries", uc.config.MaxRetries),
	)

	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info("stopping outbox worker")
			return ctx.Err()
		case <-ticker.C:
			if _, err := uc.ProcessEvents(ctx); err != nil {
				uc.logger.Error("failed to process outbox events", slog.Any("error", err))
			}
		}
	}
}

// ProcessEvents locks a batch of pending events and delivers them inside one transaction.
// A delivery failure is recorded on the event and does not abort the batch.
func (uc *OutboxUseCase) ProcessEvents(ctx context.Context) (int, error) {
	delivered := 0

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		delivered = 0

		events, err := uc.outboxRepo.GetPendingEvents(ctx, uc.config.BatchSize)
		if err != nil {
			return err
		}

		if len(events) == 0 {
			return nil
		}

		uc.logger.Debug("processing outbox events", slog.Int("count", len(events)))

		for _, event := range events {
			if err := uc.eventProcessor.Process(ctx, event); err != nil {
				uc.logger.Error("failed to deliver outbox event",
					slog.String("event_id", event.ID.String()),
					slog.String("event_type", event.EventType),
					slog.Int("retries", event.Retries+1),
					slog.Any("error", err),
				)

				event.MarkAttemptFailed(err, uc.config.MaxRetries)
				uc.metrics.RecordOperation(ctx, metricsDomain, "event_deliver", "error")

				if err := uc.outboxRepo.Update(ctx, event); err != nil {
					return err
				}
				continue
			}

			event.MarkProcessed(uc.now().UTC())
			uc.metrics.RecordOperation(ctx, metricsDomain, "event_deliver", "success")

			if err := uc.outboxRepo.Update(ctx, event); err != nil {
				return err
			}
			delivered++
		}

		return nil
	})
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to process outbox batch")
	}

	return delivered, nil
}
