package usecase

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	cardService "github.com/allisson/cardledger/internal/card/service"
	cryptoDomain "github.com/allisson/cardledger/internal/crypto/domain"
	apperrors "github.com/allisson/cardledger/internal/errors"
)

func ptr[T any](v T) *T { return &v }

func TestCardUseCase_Issue(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_LocksHolderBeforeReadingCards", func(t *testing.T) {
		f := newFixture(t, Config{CardNumberMaxAttempts: 10, IssueMaxRetries: 3})

		f.issue(t, "JOAO SILVA", "12345678901")

		lock := slices.Index(f.store.order, "LockHolder")
		read := slices.Index(f.store.order, "ListByTaxIDForUpdate")
		require.NotEqual(t, -1, lock)
		require.NotEqual(t, -1, read)
		assert.Less(t, lock, read)
	})

	t.Run("Error_HolderLockFails", func(t *testing.T) {
		f := newFixture(t, Config{CardNumberMaxAttempts: 10, IssueMaxRetries: 3})
		f.store.failOn("LockHolder", 0, errors.New("lock wait timeout exceeded"))

		_, err := f.useCase.Issue(ctx, IssueCardInput{
			HolderName: "JOAO SILVA",
			TaxID:      "12345678901",
			Address:    "RUA A, 1",
		})
		assert.ErrorIs(t, err, cardDomain.ErrPersistence)
		assert.Zero(t, f.store.calls["Create"])
	})

	t.Run("Success_NewCard", func(t *testing.T) {
		f := newFixture(t, Config{CardNumberMaxAttempts: 10, IssueMaxRetries: 3})

		issued := f.issue(t, "JOAO SILVA", "12345678901")

		assert.Equal(t, cardDomain.StatusEmAnalise, issued.Status)
		assert.True(t, issued.Balance.IsZero())
		assert.True(t, cardService.ValidateLuhn(issued.PlainCardNumber))
		assert.Regexp(t, `^[0-9]{3}$`, issued.PlainCVV)
		assert.Equal(t, cardDomain.ExpirationFrom(issued.CreatedAt), issued.ExpiresOn)
		assert.NotEmpty(t, issued.Session.Token)
		assert.Equal(t, "12345678901", issued.Session.TaxID)
		assert.Equal(t, uuid.Version(4), issued.ExternalID.Version())

		stored := f.store.find(issued.ExternalID)
		require.NotNil(t, stored)
		assert.NotContains(t, stored.CardNumber, issued.PlainCardNumber)
		assert.NotEqual(t, issued.PlainCVV, stored.CVV)
		assert.NotEqual(t, issued.Session.Token, stored.SessionToken)

		number, err := f.codec.Decode(cardDomain.FieldCardNumber, stored.CardNumber)
		require.NoError(t, err)
		assert.Equal(t, issued.PlainCardNumber, number)

		token, err := f.codec.Decode(cardDomain.FieldToken, stored.SessionToken)
		require.NoError(t, err)
		assert.Equal(t, issued.Session.Token, token)

		taxID, err := f.tokenManager.VerifyToken(issued.Session.Token)
		require.NoError(t, err)
		assert.Equal(t, "12345678901", taxID)

		assert.Equal(t, []string{EventCardIssued}, f.store.eventTypes())
		assert.NotContains(t, f.store.events[0].Payload, issued.PlainCardNumber)
	})

	t.Run("Success_HolderNameCaseInsensitive", func(t *testing.T) {
		f := newFixture(t, Config{})
		f.issue(t, "JOAO SILVA", "12345678901")

		_, err := f.useCase.Issue(ctx, IssueCardInput{
			HolderName: "Joao Silva",
			TaxID:      "12345678901",
			Address:    "RUA B",
		})
		assert.NoError(t, err)
	})

	t.Run("Success_UniqueNumbers", func(t *testing.T) {
		f := newFixture(t, Config{})
		numbers := make(map[string]struct{})
		for i := 0; i < 50; i++ {
			issued := f.issue(t, "JOAO SILVA", "12345678901")
			assert.True(t, cardService.ValidateLuhn(issued.PlainCardNumber))
			numbers[issued.PlainCardNumber] = struct{}{}
		}
		assert.Len(t, numbers, 50)
	})

	t.Run("Success_RedrawOnStoredNumber", func(t *testing.T) {
		f := newFixture(t, Config{CardNumberMaxAttempts: 5})
		first := f.issue(t, "JOAO SILVA", "12345678901")

		f.useCase.NumberGenerator = &sequenceGenerator{
			values: []string{first.PlainCardNumber, "4532015112830367", "4111111111111111"},
		}
		second := f.issue(t, "JOAO SILVA", "12345678901")

		assert.Equal(t, "4111111111111111", second.PlainCardNumber)
		assert.Equal(t, 3, f.store.calls["ExistsByCardNumber"])
	})

	t.Run("Success_RetryOnInsertConflict", func(t *testing.T) {
		f := newFixture(t, Config{IssueMaxRetries: 3})
		f.store.failOn("Create", 1, cardDomain.ErrCardNumberConflict)

		issued := f.issue(t, "JOAO SILVA", "12345678901")

		assert.Equal(t, 2, f.store.calls["Create"])
		assert.Len(t, f.store.cards, 1)
		assert.Equal(t, issued.ExternalID, f.store.cards[0].ExternalID)
		assert.Equal(t, []string{EventCardIssued}, f.store.eventTypes())
	})

	t.Run("Error_ValidationFailed", func(t *testing.T) {
		f := newFixture(t, Config{})
		tests := []IssueCardInput{
			{HolderName: "", TaxID: "12345678901", Address: "RUA A"},
			{HolderName: "JOAO 2", TaxID: "12345678901", Address: "RUA A"},
			{HolderName: "JOAO", TaxID: "1234567890", Address: "RUA A"},
			{HolderName: "JOAO", TaxID: "1234567890a", Address: "RUA A"},
			{HolderName: "JOAO", TaxID: "12345678901", Address: "   "},
		}
		for _, input := range tests {
			_, err := f.useCase.Issue(ctx, input)
			assert.ErrorIs(t, err, cardDomain.ErrValidation, input)
		}
		assert.Empty(t, f.store.cards)
	})

	t.Run("Error_DuplicateHolderConflict", func(t *testing.T) {
		f := newFixture(t, Config{})
		f.issue(t, "JOAO SILVA", "12345678901")

		_, err := f.useCase.Issue(ctx, IssueCardInput{
			HolderName: "MARIA SILVA",
			TaxID:      "12345678901",
			Address:    "RUA A",
		})

		assert.ErrorIs(t, err, cardDomain.ErrDuplicateHolderConflict)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
		assert.Len(t, f.store.cards, 1)
	})

	t.Run("Error_GenerationExhaustedOnStoredNumbers", func(t *testing.T) {
		f := newFixture(t, Config{CardNumberMaxAttempts: 5})
		first := f.issue(t, "JOAO SILVA", "12345678901")
		f.useCase.NumberGenerator = &sequenceGenerator{values: []string{first.PlainCardNumber}}

		_, err := f.useCase.Issue(ctx, IssueCardInput{HolderName: "ANA", TaxID: "98765432100", Address: "RUA A"})

		assert.ErrorIs(t, err, cardDomain.ErrGenerationExhausted)
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)
		assert.Equal(t, 6, f.store.calls["ExistsByCardNumber"])
		assert.Len(t, f.store.cards, 1)
	})

	t.Run("Error_GenerationExhaustedOnInsertConflicts", func(t *testing.T) {
		f := newFixture(t, Config{IssueMaxRetries: 2})
		f.store.failOn("Create", 0, cardDomain.ErrCardNumberConflict)

		_, err := f.useCase.Issue(ctx, IssueCardInput{HolderName: "ANA", TaxID: "98765432100", Address: "RUA A"})

		assert.ErrorIs(t, err, cardDomain.ErrGenerationExhausted)
		assert.Equal(t, 3, f.store.calls["Create"])
		assert.Empty(t, f.store.cards)
		assert.Empty(t, f.store.events)
	})

	t.Run("Error_Persistence", func(t *testing.T) {
		f := newFixture(t, Config{})
		f.store.failOn("OutboxCreate", 0, errors.New("connection reset"))

		_, err := f.useCase.Issue(ctx, IssueCardInput{HolderName: "ANA", TaxID: "98765432100", Address: "RUA A"})

		assert.ErrorIs(t, err, cardDomain.ErrPersistence)
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)
		assert.Empty(t, f.store.cards)
	})
}

func TestCardUseCase_TokenSharing(t *testing.T) {
	f := newFixture(t, Config{})

	first := f.issue(t, "JOAO SILVA", "12345678901")
	second := f.issue(t, "JOAO SILVA", "12345678901")

	assert.Equal(t, first.Session.Token, second.Session.Token)
	assert.True(t, first.Session.ExpiresAt.Equal(second.Session.ExpiresAt))

	other := f.issue(t, "ANA SOUZA", "98765432100")
	assert.NotEqual(t, first.Session.Token, other.Session.Token)

	f.expireSessions("12345678901")
	third := f.issue(t, "JOAO SILVA", "12345678901")
	assert.NotEqual(t, first.Session.Token, third.Session.Token)

	holderCards := f.store.byTaxID("12345678901")
	require.Len(t, holderCards, 3)
	for _, card := range holderCards {
		assert.Equal(t, holderCards[0].SessionToken, card.SessionToken)
		assert.True(t, holderCards[0].SessionTokenExpiresAt.Equal(*card.SessionTokenExpiresAt))

		token, err := f.codec.Decode(cardDomain.FieldToken, card.SessionToken)
		require.NoError(t, err)
		assert.Equal(t, third.Session.Token, token)
	}

	otherCard := f.store.find(other.ExternalID)
	token, err := f.codec.Decode(cardDomain.FieldToken, otherCard.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, other.Session.Token, token)
}

func TestCardUseCase_Scenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})

	first := f.issue(t, "JOAO SILVA", "12345678901")
	assert.Equal(t, cardDomain.StatusEmAnalise, first.Status)
	assert.Equal(t, "0.00", first.Balance.StringFixed(2))

	_, err := f.useCase.UpdateFields(ctx, first.ExternalID, UpdateCardInput{Status: ptr(cardDomain.StatusAtivo)})
	require.NoError(t, err)

	recharged, err := f.useCase.Recharge(ctx, first.ExternalID, mustDecimal("100.00"))
	require.NoError(t, err)
	assert.Equal(t, "100.00", recharged.Balance.StringFixed(2))

	second := f.issue(t, "JOAO SILVA", "12345678901")
	assert.Equal(t, first.Session.Token, second.Session.Token)

	_, err = f.useCase.Issue(ctx, IssueCardInput{HolderName: "MARIA SILVA", TaxID: "12345678901", Address: "RUA A"})
	assert.ErrorIs(t, err, cardDomain.ErrDuplicateHolderConflict)

	_, err = f.useCase.Transfer(ctx, first.ExternalID, second.ExternalID, mustDecimal("150.00"))
	var insufficient *cardDomain.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "100.00", insufficient.Balance.StringFixed(2))
	assert.Equal(t, "150.00", insufficient.Requested.StringFixed(2))

	assert.Equal(t, "100.00", f.balance(first.ExternalID).StringFixed(2))
	assert.Equal(t, "0.00", f.balance(second.ExternalID).StringFixed(2))
}

func TestCardUseCase_Get(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	issued := f.issue(t, "JOAO SILVA", "12345678901")

	t.Run("Success", func(t *testing.T) {
		view, err := f.useCase.Get(ctx, issued.ExternalID)
		require.NoError(t, err)
		assert.Equal(t, issued.PlainCardNumber, view.PlainCardNumber)
		assert.Equal(t, issued.PlainCVV, view.PlainCVV)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		_, err := f.useCase.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, cardDomain.ErrCardNotFound)
	})

	t.Run("Error_CorruptedStoredField", func(t *testing.T) {
		f.store.find(issued.ExternalID).CVV = "v1.cvv.AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

		_, err := f.useCase.Get(ctx, issued.ExternalID)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidToken)
		assert.False(t, apperrors.IsDomain(err))
	})

	t.Run("Error_Persistence", func(t *testing.T) {
		f.store.failOn("GetByExternalID", 0, errors.New("timeout"))

		_, err := f.useCase.Get(ctx, issued.ExternalID)
		assert.ErrorIs(t, err, cardDomain.ErrPersistence)
	})
}

func TestCardUseCase_List(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	a := f.issue(t, "JOAO SILVA", "12345678901")
	b := f.issue(t, "ANA SOUZA", "98765432100")
	c := f.issue(t, "JOAO SILVA", "12345678901")

	t.Run("Success_PaginatedPerHolder", func(t *testing.T) {
		views, err := f.useCase.List(ctx, "12345678901", 0, 1)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, c.ExternalID, views[0].ExternalID)

		views, err = f.useCase.List(ctx, "12345678901", 1, 1)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, a.ExternalID, views[0].ExternalID)

		views, err = f.useCase.List(ctx, "12345678901", 2, 1)
		require.NoError(t, err)
		assert.Empty(t, views)
	})

	t.Run("Success_OtherHolderNotListed", func(t *testing.T) {
		views, err := f.useCase.List(ctx, "98765432100", 0, 50)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, b.ExternalID, views[0].ExternalID)
	})

	t.Run("Success_HolderOf", func(t *testing.T) {
		taxID, err := f.useCase.HolderOf(ctx, b.ExternalID)
		require.NoError(t, err)
		assert.Equal(t, "98765432100", taxID)

		_, err = f.useCase.HolderOf(ctx, uuid.New())
		assert.ErrorIs(t, err, cardDomain.ErrCardNotFound)
	})

	t.Run("Success_ByTaxID", func(t *testing.T) {
		views, err := f.useCase.ListByTaxID(ctx, "12345678901")
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, a.ExternalID, views[0].ExternalID)
		assert.Equal(t, c.ExternalID, views[1].ExternalID)
	})

	t.Run("Error_ByTaxIDNotFound", func(t *testing.T) {
		_, err := f.useCase.ListByTaxID(ctx, "11111111111")
		assert.ErrorIs(t, err, cardDomain.ErrCardNotFound)
	})
}

func TestCardUseCase_UpdateFields(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_HolderAttributesPropagate", func(t *testing.T) {
		f := newFixture(t, Config{})
		first := f.issue(t, "JOAO SILVA", "12345678901")
		second := f.issue(t, "JOAO SILVA", "12345678901")
		other := f.issue(t, "ANA SOUZA", "98765432100")

		view, err := f.useCase.UpdateFields(ctx, first.ExternalID, UpdateCardInput{
			HolderName: ptr("JOAO PEREIRA SILVA"),
			Address:    ptr("AVENIDA CENTRAL 1"),
		})
		require.NoError(t, err)
		assert.Equal(t, "JOAO PEREIRA SILVA", view.HolderName)
		assert.Equal(t, "AVENIDA CENTRAL 1", view.Address)

		assert.Equal(t, "JOAO PEREIRA SILVA", f.store.find(second.ExternalID).HolderName)
		assert.Equal(t, "AVENIDA CENTRAL 1", f.store.find(second.ExternalID).Address)
		assert.Equal(t, "ANA SOUZA", f.store.find(other.ExternalID).HolderName)
		assert.Contains(t, f.store.eventTypes(), EventCardUpdated)
	})

	t.Run("Success_StatusAppliesToOneCard", func(t *testing.T) {
		f := newFixture(t, Config{})
		first := f.issue(t, "JOAO SILVA", "12345678901")
		second := f.issue(t, "JOAO SILVA", "12345678901")

		view, err := f.useCase.UpdateFields(ctx, first.ExternalID, UpdateCardInput{
			Status: ptr(cardDomain.StatusBloqueado),
		})
		require.NoError(t, err)
		assert.Equal(t, cardDomain.StatusBloqueado, view.Status)
		assert.Equal(t, cardDomain.StatusEmAnalise, f.store.find(second.ExternalID).Status)
	})

	t.Run("Success_AnyStatusTransition", func(t *testing.T) {
		f := newFixture(t, Config{})
		issued := f.issue(t, "JOAO SILVA", "12345678901")

		for _, status := range []cardDomain.Status{
			cardDomain.StatusCancelado,
			cardDomain.StatusAtivo,
			cardDomain.StatusBlacklisted,
			cardDomain.StatusEmAnalise,
		} {
			view, err := f.useCase.UpdateFields(ctx, issued.ExternalID, UpdateCardInput{Status: ptr(status)})
			require.NoError(t, err)
			assert.Equal(t, status, view.Status)
		}
	})

	t.Run("Error_NoFields", func(t *testing.T) {
		f := newFixture(t, Config{})
		issued := f.issue(t, "JOAO SILVA", "12345678901")

		_, err := f.useCase.UpdateFields(ctx, issued.ExternalID, UpdateCardInput{})
		assert.ErrorIs(t, err, cardDomain.ErrValidation)
	})

	t.Run("Error_UnknownStatus", func(t *testing.T) {
		f := newFixture(t, Config{})
		issued := f.issue(t, "JOAO SILVA", "12345678901")

		_, err := f.useCase.UpdateFields(ctx, issued.ExternalID, UpdateCardInput{Status: ptr(cardDomain.Status("ACTIVE"))})
		assert.ErrorIs(t, err, cardDomain.ErrValidation)
	})

	t.Run("Error_InvalidName", func(t *testing.T) {
		f := newFixture(t, Config{})
		issued := f.issue(t, "JOAO SILVA", "12345678901")

		_, err := f.useCase.UpdateFields(ctx, issued.ExternalID, UpdateCardInput{HolderName: ptr("J0AO")})
		assert.ErrorIs(t, err, cardDomain.ErrValidation)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		f := newFixture(t, Config{})

		_, err := f.useCase.UpdateFields(ctx, uuid.New(), UpdateCardInput{Status: ptr(cardDomain.StatusAtivo)})
		assert.ErrorIs(t, err, cardDomain.ErrCardNotFound)
	})

	t.Run("Error_RollbackOnFailure", func(t *testing.T) {
		f := newFixture(t, Config{})
		first := f.issue(t, "JOAO SILVA", "12345678901")
		f.store.failOn("UpdateStatus", 0, errors.New("deadlock detected"))

		_, err := f.useCase.UpdateFields(ctx, first.ExternalID, UpdateCardInput{
			HolderName: ptr("JOAO PEREIRA"),
			Status:     ptr(cardDomain.StatusAtivo),
		})
		assert.ErrorIs(t, err, cardDomain.ErrPersistence)
		assert.Equal(t, "JOAO SILVA", f.store.find(first.ExternalID).HolderName)
	})
}
