package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	outboxDomain "github.com/allisson/cardledger/internal/outbox/domain"
)

// Outbox event types emitted by card mutations.
const (
	EventCardIssued      = "card.issued"
	EventCardUpdated     = "card.updated"
	EventCardRecharged   = "card.recharged"
	EventCardTransferred = "card.transferred"
)

// cardEventPayload never carries sensitive fields.
type cardEventPayload struct {
	CardID     uuid.UUID        `json:"card_id"`
	TaxID      string           `json:"tax_id,omitempty"`
	HolderName string           `json:"holder_name,omitempty"`
	Status     string           `json:"status,omitempty"`
	Balance    *decimal.Decimal `json:"balance,omitempty"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	PayeeID    *uuid.UUID       `json:"payee_id,omitempty"`
}

func newCardEventPayload(card *cardDomain.Card) cardEventPayload {
	balance := card.Balance
	return cardEventPayload{
		CardID:     card.ExternalID,
		TaxID:      card.TaxID,
		HolderName: card.HolderName,
		Status:     card.Status.String(),
		Balance:    &balance,
	}
}

func publishEvent(
	ctx context.Context,
	repo OutboxEventRepository,
	eventType string,
	payload cardEventPayload,
) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate event id: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}

	return repo.Create(ctx, &outboxDomain.OutboxEvent{
		ID:        id,
		EventType: eventType,
		Payload:   string(body),
		Status:    outboxDomain.OutboxEventStatusPending,
	})
}
