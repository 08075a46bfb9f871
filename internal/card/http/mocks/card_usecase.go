// Package mocks provides mock implementations for testing the card HTTP handlers.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	cardUseCase "github.com/allisson/cardledger/internal/card/usecase"
)

// MockCardUseCase is a mock implementation of CardUseCase for testing.
type MockCardUseCase struct {
	mock.Mock
}

// NewMockCardUseCase creates a MockCardUseCase whose expectations are asserted on cleanup.
func NewMockCardUseCase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCardUseCase {
	m := &MockCardUseCase{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Issue mocks the Issue method of CardUseCase.
func (m *MockCardUseCase) Issue(
	ctx context.Context,
	input cardUseCase.IssueCardInput,
) (*cardDomain.IssuedCard, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cardDomain.IssuedCard), args.Error(1)
}

// Get mocks the Get method of CardUseCase.
func (m *MockCardUseCase) Get(ctx context.Context, externalID uuid.UUID) (*cardDomain.CardView, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cardDomain.CardView), args.Error(1)
}

// HolderOf mocks the HolderOf method of CardUseCase.
func (m *MockCardUseCase) HolderOf(ctx context.Context, externalID uuid.UUID) (string, error) {
	args := m.Called(ctx, externalID)
	return args.String(0), args.Error(1)
}

// List mocks the List method of CardUseCase.
func (m *MockCardUseCase) List(
	ctx context.Context,
	taxID string,
	offset, limit int,
) ([]*cardDomain.CardView, error) {
	args := m.Called(ctx, taxID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*cardDomain.CardView), args.Error(1)
}

// ListByTaxID mocks the ListByTaxID method of CardUseCase.
func (m *MockCardUseCase) ListByTaxID(ctx context.Context, taxID string) ([]*cardDomain.CardView, error) {
	args := m.Called(ctx, taxID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*cardDomain.CardView), args.Error(1)
}

// UpdateFields mocks the UpdateFields method of CardUseCase.
func (m *MockCardUseCase) UpdateFields(
	ctx context.Context,
	externalID uuid.UUID,
	input cardUseCase.UpdateCardInput,
) (*cardDomain.CardView, error) {
	args := m.Called(ctx, externalID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cardDomain.CardView), args.Error(1)
}

// Recharge mocks the Recharge method of CardUseCase.
func (m *MockCardUseCase) Recharge(
	ctx context.Context,
	externalID uuid.UUID,
	amount decimal.Decimal,
) (*cardDomain.CardView, error) {
	args := m.Called(ctx, externalID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cardDomain.CardView), args.Error(1)
}

// Transfer mocks the Transfer method of CardUseCase.
func (m *MockCardUseCase) Transfer(
	ctx context.Context,
	payerID, payeeID uuid.UUID,
	amount decimal.Decimal,
) (*cardDomain.CardView, error) {
	args := m.Called(ctx, payerID, payeeID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cardDomain.CardView), args.Error(1)
}

// MockHolderTokenVerifier is a mock implementation of HolderTokenVerifier for testing.
type MockHolderTokenVerifier struct {
	mock.Mock
}

// VerifyToken mocks the VerifyToken method of HolderTokenVerifier.
func (m *MockHolderTokenVerifier) VerifyToken(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}
