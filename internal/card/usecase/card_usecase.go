package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	cardService "github.com/allisson/cardledger/internal/card/service"
	cryptoDomain "github.com/allisson/cardledger/internal/crypto/domain"
	"github.com/allisson/cardledger/internal/database"
	apperrors "github.com/allisson/cardledger/internal/errors"
)

// Config holds card use case configuration.
type Config struct {
	// CardNumberMaxAttempts caps the draws of one uniqueness search.
	CardNumberMaxAttempts int
	// IssueMaxRetries caps how many times an issuance is retried after the store reports
	// a card number collision on insert.
	IssueMaxRetries int
}

// Dependencies groups the collaborators of the card use case.
type Dependencies struct {
	TxManager       database.TxManager
	CardRepo        CardRepository
	OutboxRepo      OutboxEventRepository
	Codec           cardService.FieldCodec
	NumberGenerator cardService.DigitGenerator
	CVVGenerator    cardService.DigitGenerator
	TokenManager    HolderTokenManager
}

type cardUseCase struct {
	Dependencies
	config Config
	now    func() time.Time
}

// NewCardUseCase creates a new CardUseCase.
func NewCardUseCase(deps Dependencies, config Config) CardUseCase {
	if config.CardNumberMaxAttempts <= 0 {
		config.CardNumberMaxAttempts = 100
	}
	if config.IssueMaxRetries < 0 {
		config.IssueMaxRetries = 0
	}
	return &cardUseCase{
		Dependencies: deps,
		config:       config,
		now:          time.Now,
	}
}

// Issue validates the input and runs the issuance transaction, retrying it when the
// store rejects the generated card number as a duplicate.
func (c *cardUseCase) Issue(ctx context.Context, input IssueCardInput) (*cardDomain.IssuedCard, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	for attempt := 0; attempt <= c.config.IssueMaxRetries; attempt++ {
		issued, err := c.issue(ctx, input)
		if errors.Is(err, cardDomain.ErrCardNumberConflict) {
			continue
		}
		return issued, err
	}

	return nil, cardDomain.ErrGenerationExhausted
}

func (c *cardUseCase) issue(ctx context.Context, input IssueCardInput) (*cardDomain.IssuedCard, error) {
	var issued *cardDomain.IssuedCard

	err := c.withTx(ctx, func(ctx context.Context) error {
		// Row locks on cards cover nothing for a first issuance, so the holder is
		// locked on its own row before reading.
		if err := c.CardRepo.LockHolder(ctx, input.TaxID); err != nil {
			return err
		}

		holderCards, err := c.CardRepo.ListByTaxIDForUpdate(ctx, input.TaxID)
		if err != nil {
			return err
		}
		for _, existing := range holderCards {
			if !strings.EqualFold(existing.HolderName, input.HolderName) {
				return cardDomain.ErrDuplicateHolderConflict
			}
		}

		session, err := c.TokenManager.Obtain(ctx, input.TaxID)
		if err != nil {
			return err
		}
		encodedSession, err := c.Codec.Encode(cardDomain.FieldToken, session.Token)
		if err != nil {
			return err
		}

		number, encodedNumber, err := c.generateCardNumber(ctx)
		if err != nil {
			return err
		}

		cvv, err := c.CVVGenerator.Generate()
		if err != nil {
			return err
		}
		encodedCVV, err := c.Codec.Encode(cardDomain.FieldCVV, cvv)
		if err != nil {
			return err
		}

		now := c.now().UTC()
		sessionExpiresAt := session.ExpiresAt
		card := &cardDomain.Card{
			ExternalID:            uuid.New(),
			HolderName:            input.HolderName,
			TaxID:                 input.TaxID,
			Status:                cardDomain.StatusEmAnalise,
			Address:               input.Address,
			Balance:               decimal.Zero,
			CardNumber:            encodedNumber,
			CVV:                   encodedCVV,
			ExpiresOn:             cardDomain.ExpirationFrom(now),
			SessionToken:          encodedSession,
			SessionTokenExpiresAt: &sessionExpiresAt,
			CreatedAt:             now,
			UpdatedAt:             now,
		}

		if err := c.CardRepo.Create(ctx, card); err != nil {
			return err
		}

		if err := publishEvent(ctx, c.OutboxRepo, EventCardIssued, newCardEventPayload(card)); err != nil {
			return err
		}

		issued = &cardDomain.IssuedCard{
			CardView: cardDomain.CardView{Card: *card, PlainCardNumber: number, PlainCVV: cvv},
			Session:  *session,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return issued, nil
}

// generateCardNumber draws Luhn-valid numbers until one whose encoding is not stored yet.
func (c *cardUseCase) generateCardNumber(ctx context.Context) (number, encoded string, err error) {
	for attempt := 0; attempt < c.config.CardNumberMaxAttempts; attempt++ {
		number, err = c.NumberGenerator.Generate()
		if err != nil {
			return "", "", err
		}
		if !cardService.ValidateLuhn(number) {
			continue
		}

		encoded, err = c.Codec.Encode(cardDomain.FieldCardNumber, number)
		if err != nil {
			return "", "", err
		}

		exists, err := c.CardRepo.ExistsByCardNumber(ctx, encoded)
		if err != nil {
			return "", "", err
		}
		if !exists {
			return number, encoded, nil
		}
	}

	return "", "", cardDomain.ErrGenerationExhausted
}

// Get returns the card with the given external id.
func (c *cardUseCase) Get(ctx context.Context, externalID uuid.UUID) (*cardDomain.CardView, error) {
	card, err := c.CardRepo.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, classify(err)
	}
	return c.toView(card)
}

// HolderOf returns the tax id of the card. A card never changes holder.
func (c *cardUseCase) HolderOf(ctx context.Context, externalID uuid.UUID) (string, error) {
	card, err := c.CardRepo.GetByExternalID(ctx, externalID)
	if err != nil {
		return "", classify(err)
	}
	return card.TaxID, nil
}

// List returns a page of the holder cards ordered by id descending.
func (c *cardUseCase) List(ctx context.Context, taxID string, offset, limit int) ([]*cardDomain.CardView, error) {
	cards, err := c.CardRepo.List(ctx, taxID, offset, limit)
	if err != nil {
		return nil, classify(err)
	}
	return c.toViews(cards)
}

// ListByTaxID returns every card of the holder.
func (c *cardUseCase) ListByTaxID(ctx context.Context, taxID string) ([]*cardDomain.CardView, error) {
	cards, err := c.CardRepo.ListByTaxID(ctx, taxID)
	if err != nil {
		return nil, classify(err)
	}
	if len(cards) == 0 {
		return nil, cardDomain.ErrCardNotFound
	}
	return c.toViews(cards)
}

// UpdateFields applies holder attributes to every card of the holder and the status to
// the referenced card only.
func (c *cardUseCase) UpdateFields(
	ctx context.Context,
	externalID uuid.UUID,
	input UpdateCardInput,
) (*cardDomain.CardView, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var updated *cardDomain.Card
	err := c.withTx(ctx, func(ctx context.Context) error {
		card, err := c.CardRepo.GetByExternalIDForUpdate(ctx, externalID)
		if err != nil {
			return err
		}

		if input.HolderName != nil || input.Address != nil {
			if err := c.CardRepo.UpdateHolderByTaxID(ctx, card.TaxID, input.HolderName, input.Address); err != nil {
				return err
			}
		}

		if input.Status != nil {
			if err := c.CardRepo.UpdateStatus(ctx, card.ExternalID, *input.Status); err != nil {
				return err
			}
		}

		updated, err = c.CardRepo.GetByExternalID(ctx, externalID)
		if err != nil {
			return err
		}

		return publishEvent(ctx, c.OutboxRepo, EventCardUpdated, newCardEventPayload(updated))
	})
	if err != nil {
		return nil, err
	}

	return c.toView(updated)
}

func (c *cardUseCase) toView(card *cardDomain.Card) (*cardDomain.CardView, error) {
	number, err := c.Codec.Decode(cardDomain.FieldCardNumber, card.CardNumber)
	if err != nil {
		return nil, err
	}
	cvv, err := c.Codec.Decode(cardDomain.FieldCVV, card.CVV)
	if err != nil {
		return nil, err
	}
	return &cardDomain.CardView{Card: *card, PlainCardNumber: number, PlainCVV: cvv}, nil
}

func (c *cardUseCase) toViews(cards []*cardDomain.Card) ([]*cardDomain.CardView, error) {
	views := make([]*cardDomain.CardView, 0, len(cards))
	for _, card := range cards {
		view, err := c.toView(card)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// withTx runs fn in a transaction and classifies the error it ends with.
func (c *cardUseCase) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return classify(c.TxManager.WithTx(ctx, fn))
}

// classify keeps domain errors, codec integrity faults and card number collisions as they
// are and turns anything else into a retryable persistence error.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case apperrors.IsDomain(err),
		errors.Is(err, cryptoDomain.ErrInvalidToken),
		errors.Is(err, cardDomain.ErrCardNumberConflict):
		return err
	default:
		return cardDomain.NewPersistenceError(err)
	}
}
