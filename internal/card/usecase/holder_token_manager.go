package usecase

import (
	"context"
	"time"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	cardService "github.com/allisson/cardledger/internal/card/service"
	"github.com/allisson/cardledger/internal/database"
)

type holderTokenManager struct {
	txManager database.TxManager
	cardRepo  CardRepository
	codec     cardService.FieldCodec
	sessions  cardService.SessionTokenService
	now       func() time.Time
}

// NewHolderTokenManager creates a HolderTokenManager storing tokens through codec.
func NewHolderTokenManager(
	txManager database.TxManager,
	cardRepo CardRepository,
	codec cardService.FieldCodec,
	sessions cardService.SessionTokenService,
) HolderTokenManager {
	return &holderTokenManager{
		txManager: txManager,
		cardRepo:  cardRepo,
		codec:     codec,
		sessions:  sessions,
		now:       time.Now,
	}
}

// Obtain reuses the first unexpired token among the holder cards. Otherwise it mints a
// new token and writes it to all of them with a single statement, inside the caller's
// transaction when there is one.
func (m *holderTokenManager) Obtain(ctx context.Context, taxID string) (*cardDomain.HolderSession, error) {
	var session *cardDomain.HolderSession

	err := m.txManager.WithTx(ctx, func(ctx context.Context) error {
		cards, err := m.cardRepo.ListByTaxIDForUpdate(ctx, taxID)
		if err != nil {
			return err
		}

		now := m.now()
		for _, card := range cards {
			if !card.HasValidSession(now) {
				continue
			}
			token, err := m.codec.Decode(cardDomain.FieldToken, card.SessionToken)
			if err != nil {
				return err
			}
			session = &cardDomain.HolderSession{
				TaxID:     taxID,
				Token:     token,
				ExpiresAt: card.SessionTokenExpiresAt.UTC(),
			}
			return nil
		}

		minted, err := m.sessions.Issue(taxID, now)
		if err != nil {
			return err
		}
		session = &minted

		// First card of the holder: the issuer persists the session with the new row.
		if len(cards) == 0 {
			return nil
		}

		encoded, err := m.codec.Encode(cardDomain.FieldToken, minted.Token)
		if err != nil {
			return err
		}
		return m.cardRepo.UpdateSessionByTaxID(ctx, taxID, encoded, minted.ExpiresAt)
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

// VerifyToken validates token and returns the tax id it was issued for.
func (m *holderTokenManager) VerifyToken(token string) (string, error) {
	return m.sessions.Verify(token)
}
