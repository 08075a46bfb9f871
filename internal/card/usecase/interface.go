// Package usecase implements card issuance, field updates, the holder session lifecycle
// and the balance ledger.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	outboxDomain "github.com/allisson/cardledger/internal/outbox/domain"
)

// CardRepository defines the interface for card persistence operations.
// Methods with the ForUpdate suffix lock the returned rows until the surrounding
// transaction ends.
type CardRepository interface {
	// Create inserts a card and sets its ID. Returns ErrCardNumberConflict when the
	// encoded card number already exists.
	Create(ctx context.Context, card *cardDomain.Card) error

	GetByExternalID(ctx context.Context, externalID uuid.UUID) (*cardDomain.Card, error)
	GetByExternalIDForUpdate(ctx context.Context, externalID uuid.UUID) (*cardDomain.Card, error)

	// ListByTaxID returns the holder cards ordered by id ascending.
	ListByTaxID(ctx context.Context, taxID string) ([]*cardDomain.Card, error)
	ListByTaxIDForUpdate(ctx context.Context, taxID string) ([]*cardDomain.Card, error)

	// List returns a page of the holder cards ordered by id descending.
	List(ctx context.Context, taxID string, offset, limit int) ([]*cardDomain.Card, error)

	// LockHolder takes a transaction-scoped lock on taxID that also holds when the
	// holder has no card yet.
	LockHolder(ctx context.Context, taxID string) error

	// ExistsByCardNumber reports whether a card stores the given encoded card number.
	ExistsByCardNumber(ctx context.Context, encodedNumber string) (bool, error)

	UpdateBalance(ctx context.Context, externalID uuid.UUID, balance decimal.Decimal) error
	UpdateStatus(ctx context.Context, externalID uuid.UUID, status cardDomain.Status) error

	// UpdateHolderByTaxID sets the non-nil holder attributes on every card of taxID.
	UpdateHolderByTaxID(ctx context.Context, taxID string, holderName, address *string) error

	// UpdateSessionByTaxID writes the encoded session token on every card of taxID.
	UpdateSessionByTaxID(ctx context.Context, taxID, encodedToken string, expiresAt time.Time) error
}

// OutboxEventRepository defines the outbox operations used by card mutations.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// HolderTokenManager keeps one valid session token per holder across all of the holder's cards.
type HolderTokenManager interface {
	// Obtain returns the holder's unexpired session, or mints a new one and writes it to
	// every existing card of taxID. Joins the transaction carried by ctx.
	Obtain(ctx context.Context, taxID string) (*cardDomain.HolderSession, error)

	// VerifyToken validates a plaintext holder token and returns its tax id.
	VerifyToken(token string) (string, error)
}

// CardUseCase defines the card operations exposed to the transport layer.
type CardUseCase interface {
	// Issue creates a card in EM_ANALISE with zero balance and returns it with the
	// plaintext holder session.
	Issue(ctx context.Context, input IssueCardInput) (*cardDomain.IssuedCard, error)

	Get(ctx context.Context, externalID uuid.UUID) (*cardDomain.CardView, error)

	// HolderOf returns the tax id owning the card without decoding any field.
	HolderOf(ctx context.Context, externalID uuid.UUID) (string, error)

	// List returns a page of the holder cards, newest first.
	List(ctx context.Context, taxID string, offset, limit int) ([]*cardDomain.CardView, error)

	// ListByTaxID returns every card of a holder. Returns ErrCardNotFound when there is none.
	ListByTaxID(ctx context.Context, taxID string) ([]*cardDomain.CardView, error)

	// UpdateFields changes holder name, address or status. Holder attributes are applied
	// to all cards of the holder, status only to the referenced card.
	UpdateFields(
		ctx context.Context,
		externalID uuid.UUID,
		input UpdateCardInput,
	) (*cardDomain.CardView, error)

	// Recharge adds amount to an ATIVO card.
	Recharge(ctx context.Context, externalID uuid.UUID, amount decimal.Decimal) (*cardDomain.CardView, error)

	// Transfer moves amount between two ATIVO cards atomically and returns the payer.
	Transfer(
		ctx context.Context,
		payerID, payeeID uuid.UUID,
		amount decimal.Decimal,
	) (*cardDomain.CardView, error)
}
