package usecase

import (
	"context"
	"encoding/json"
	"log/slog"

	apperrors "github.com/allisson/cardledger/internal/errors"
	"github.com/allisson/cardledger/internal/outbox/domain"
)

// cardEvent is the subset of the card event payload the log processor reads.
type cardEvent struct {
	CardID  string `json:"card_id"`
	Status  string `json:"status"`
	Balance string `json:"balance"`
	Amount  string `json:"amount"`
	PayeeID string `json:"payee_id"`
}

// LogEventProcessor delivers card events to the structured log. It is the default sink
// until a broker is configured.
type LogEventProcessor struct {
	logger *slog.Logger
}

// NewLogEventProcessor creates a LogEventProcessor. A nil logger falls back to slog.Default.
func NewLogEventProcessor(logger *slog.Logger) *LogEventProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEventProcessor{logger: logger}
}

// Process logs a card event. Malformed payloads are returned as errors so the event is retried
// and eventually marked failed.
func (p *LogEventProcessor) Process(ctx context.Context, event *domain.OutboxEvent) error {
	var payload cardEvent
	if err := json.Unmarshal([]byte(event.Payload), &payload); err != nil {
		return apperrors.Wrap(err, "failed to decode event payload")
	}

	attrs := []slog.Attr{
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.EventType),
		slog.String("card_id", payload.CardID),
	}

	switch event.EventType {
	case "card.issued", "card.updated":
		attrs = append(attrs, slog.String("status", payload.Status))
	case "card.recharged":
		attrs = append(attrs, slog.String("amount", payload.Amount), slog.String("balance", payload.Balance))
	case "card.transferred":
		attrs = append(attrs,
			slog.String("amount", payload.Amount),
			slog.String("payee_id", payload.PayeeID),
			slog.String("balance", payload.Balance),
		)
	default:
		p.logger.WarnContext(ctx, "unknown event type", slog.String("event_type", event.EventType))
		return nil
	}

	p.logger.LogAttrs(ctx, slog.LevelInfo, "card event", attrs...)
	return nil
}
