package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	"github.com/allisson/cardledger/internal/card/http/dto"
	"github.com/allisson/cardledger/internal/card/http/mocks"
	cardUseCase "github.com/allisson/cardledger/internal/card/usecase"
)

func newIssuedCard() *cardDomain.IssuedCard {
	now := time.Date(2026, 3, 10, 2, 30, 15, 0, time.UTC)
	return &cardDomain.IssuedCard{
		CardView: cardDomain.CardView{
			Card: cardDomain.Card{
				ID:         1,
				ExternalID: uuid.New(),
				HolderName: "JOSE DE SOUZA",
				TaxID:      "12345678901",
				Status:     cardDomain.StatusEmAnalise,
				Address:    "AV PAULISTA, 1000",
				Balance:    decimal.Zero,
				ExpiresOn:  cardDomain.ExpirationFrom(now),
				CreatedAt:  now,
				UpdatedAt:  now,
			},
			PlainCardNumber: "4111111111111111",
			PlainCVV:        "042",
		},
		Session: cardDomain.HolderSession{
			TaxID:     "12345678901",
			Token:     "holder-jwt",
			ExpiresAt: now.Add(7 * 24 * time.Hour),
		},
	}
}

func TestRunIssueCard(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	args := IssueCardArgs{HolderName: "José de  Souza", TaxID: "12345678901", Address: "Av. Paulista, 1000"}

	t.Run("Success_TextOutput", func(t *testing.T) {
		useCase := mocks.NewMockCardUseCase(t)
		useCase.On("Issue", ctx, cardUseCase.IssueCardInput{
			HolderName: "JOSE DE SOUZA",
			TaxID:      "12345678901",
			Address:    "AV. PAULISTA, 1000",
		}).Return(newIssuedCard(), nil)

		var out bytes.Buffer
		require.NoError(t, RunIssueCard(ctx, useCase, logger, args, "text", &out))

		assert.Contains(t, out.String(), "Card number:   4111111111111111")
		assert.Contains(t, out.String(), "CVV:           042")
		assert.Contains(t, out.String(), "Expiration:    03/2031")
		assert.Contains(t, out.String(), "Balance:       0.00")
		assert.Contains(t, out.String(), "Holder token:  holder-jwt")
	})

	t.Run("Success_JSONOutput", func(t *testing.T) {
		useCase := mocks.NewMockCardUseCase(t)
		issued := newIssuedCard()
		useCase.On("Issue", ctx, mock.Anything).Return(issued, nil)

		var out bytes.Buffer
		require.NoError(t, RunIssueCard(ctx, useCase, logger, args, "json", &out))

		var response dto.IssueCardResponse
		require.NoError(t, json.Unmarshal(out.Bytes(), &response))
		assert.Equal(t, issued.ExternalID.String(), response.ID)
		assert.Equal(t, "EM_ANALISE", response.Status)
		assert.Equal(t, "holder-jwt", response.HolderToken)
	})

	t.Run("Error_InvalidFormat", func(t *testing.T) {
		useCase := mocks.NewMockCardUseCase(t)

		err := RunIssueCard(ctx, useCase, logger, args, "yaml", io.Discard)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid output format")
	})

	t.Run("Error_InvalidTaxID", func(t *testing.T) {
		useCase := mocks.NewMockCardUseCase(t)

		err := RunIssueCard(ctx, useCase, logger, IssueCardArgs{
			HolderName: "Jose",
			TaxID:      "123.456.789-01",
			Address:    "Rua A",
		}, "text", io.Discard)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid card data")
	})

	t.Run("Error_UseCaseFailure", func(t *testing.T) {
		useCase := mocks.NewMockCardUseCase(t)
		useCase.On("Issue", ctx, mock.Anything).Return(nil, cardDomain.ErrDuplicateHolderConflict)

		err := RunIssueCard(ctx, useCase, logger, args, "text", io.Discard)
		assert.ErrorIs(t, err, cardDomain.ErrDuplicateHolderConflict)
	})
}
