package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
)

// Recharge adds amount to an ATIVO card under a row lock.
func (c *cardUseCase) Recharge(
	ctx context.Context,
	externalID uuid.UUID,
	amount decimal.Decimal,
) (*cardDomain.CardView, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	var card *cardDomain.Card
	err := c.withTx(ctx, func(ctx context.Context) error {
		var err error
		card, err = c.CardRepo.GetByExternalIDForUpdate(ctx, externalID)
		if err != nil {
			return err
		}
		if !card.IsActive() {
			return cardDomain.ErrCardNotActive
		}

		if err := checkBalanceLimit(card.Balance, amount); err != nil {
			return err
		}

		card.Balance = card.Balance.Add(amount)
		if err := c.CardRepo.UpdateBalance(ctx, card.ExternalID, card.Balance); err != nil {
			return err
		}
		card.UpdatedAt = c.now().UTC()

		payload := newCardEventPayload(card)
		payload.Amount = &amount
		return publishEvent(ctx, c.OutboxRepo, EventCardRecharged, payload)
	})
	if err != nil {
		return nil, err
	}

	return c.toView(card)
}

// Transfer debits the payer and credits the payee in one transaction.
//
// Both rows are locked in ascending external id order so that opposite transfers
// between the same pair cannot deadlock. Checks still run payer first: existence,
// status and funds, then payee existence and status.
func (c *cardUseCase) Transfer(
	ctx context.Context,
	payerID, payeeID uuid.UUID,
	amount decimal.Decimal,
) (*cardDomain.CardView, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if payerID == payeeID {
		return nil, fmt.Errorf("%w: payer and payee must be different cards", cardDomain.ErrValidation)
	}

	var payer *cardDomain.Card
	err := c.withTx(ctx, func(ctx context.Context) error {
		locked, err := c.lockCards(ctx, payerID, payeeID)
		if err != nil {
			return err
		}

		var ok bool
		payer, ok = locked[payerID]
		if !ok {
			return cardDomain.ErrCardNotFound
		}
		if !payer.IsActive() {
			return cardDomain.ErrCardNotActive
		}
		if payer.Balance.LessThan(amount) {
			return &cardDomain.InsufficientFundsError{Balance: payer.Balance, Requested: amount}
		}

		payee, ok := locked[payeeID]
		if !ok {
			return cardDomain.ErrCardNotFound
		}
		if !payee.IsActive() {
			return cardDomain.ErrCardNotActive
		}
		if err := checkBalanceLimit(payee.Balance, amount); err != nil {
			return err
		}

		payer.Balance = payer.Balance.Sub(amount)
		if err := c.CardRepo.UpdateBalance(ctx, payer.ExternalID, payer.Balance); err != nil {
			return err
		}

		payee.Balance = payee.Balance.Add(amount)
		if err := c.CardRepo.UpdateBalance(ctx, payee.ExternalID, payee.Balance); err != nil {
			return err
		}

		now := c.now().UTC()
		payer.UpdatedAt = now
		payee.UpdatedAt = now

		payload := newCardEventPayload(payer)
		payload.Amount = &amount
		payload.PayeeID = &payee.ExternalID
		return publishEvent(ctx, c.OutboxRepo, EventCardTransferred, payload)
	})
	if err != nil {
		return nil, err
	}

	return c.toView(payer)
}

// lockCards locks the given cards in ascending id order. Missing cards are left out of
// the result.
func (c *cardUseCase) lockCards(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*cardDomain.Card, error) {
	ordered := append([]uuid.UUID(nil), ids...)
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i][:], ordered[j][:]) < 0
	})

	locked := make(map[uuid.UUID]*cardDomain.Card, len(ordered))
	for _, id := range ordered {
		card, err := c.CardRepo.GetByExternalIDForUpdate(ctx, id)
		if errors.Is(err, cardDomain.ErrCardNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		locked[id] = card
	}

	return locked, nil
}

// validateAmount accepts positive amounts up to MaxBalance with at most two decimal places.
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: must be greater than zero", cardDomain.ErrInvalidAmount)
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: at most two decimal places are allowed", cardDomain.ErrInvalidAmount)
	}
	if amount.GreaterThan(cardDomain.MaxBalance) {
		return fmt.Errorf("%w: must not exceed %s", cardDomain.ErrInvalidAmount, cardDomain.MaxBalance.StringFixed(2))
	}
	return nil
}

// checkBalanceLimit rejects credits that would not fit the balance column.
func checkBalanceLimit(balance, credit decimal.Decimal) error {
	if balance.Add(credit).GreaterThan(cardDomain.MaxBalance) {
		return fmt.Errorf(
			"%w: resulting balance would exceed %s",
			cardDomain.ErrInvalidAmount,
			cardDomain.MaxBalance.StringFixed(2),
		)
	}
	return nil
}
