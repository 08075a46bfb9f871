package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "github.com/allisson/cardledger/internal/errors"
)

var (
	// ErrValidation indicates malformed input reached the card core.
	ErrValidation = apperrors.Wrap(apperrors.ErrInvalidInput, "validation failed")

	// ErrDuplicateHolderConflict indicates the tax id already belongs to a holder with another name.
	ErrDuplicateHolderConflict = apperrors.Wrap(
		apperrors.ErrConflict,
		"tax id is already associated with a different holder name",
	)

	// ErrCardNotFound indicates the referenced card does not exist.
	ErrCardNotFound = apperrors.Wrap(apperrors.ErrNotFound, "card not found")

	// ErrCardNotActive indicates a balance mutation on a card whose status is not ATIVO.
	ErrCardNotActive = apperrors.Wrap(apperrors.ErrInvalidInput, "card is not active")

	// ErrInsufficientFunds is the sentinel matched by InsufficientFundsError.
	ErrInsufficientFunds = apperrors.Wrap(apperrors.ErrInvalidInput, "insufficient funds")

	// ErrInvalidAmount indicates an amount that is not positive, has more than two
	// decimal places or would take a balance above MaxBalance.
	ErrInvalidAmount = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid amount")

	// ErrGenerationExhausted indicates no unused card number was found within the attempt cap.
	// The whole issuance may be retried.
	ErrGenerationExhausted = apperrors.Wrap(
		apperrors.ErrUnavailable,
		"could not generate a unique card number",
	)

	// ErrPersistence is the sentinel matched by errors returned from NewPersistenceError.
	ErrPersistence = apperrors.Wrap(apperrors.ErrUnavailable, "persistence failure")

	// ErrCardNumberConflict is returned by repositories when the encoded card number
	// violates the UNIQUE constraint.
	ErrCardNumberConflict = errors.New("card number already exists")
)

// InsufficientFundsError reports a transfer amount above the payer balance.
type InsufficientFundsError struct {
	Balance   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf(
		"insufficient funds: balance %s, requested %s",
		e.Balance.StringFixed(2),
		e.Requested.StringFixed(2),
	)
}

// Is makes errors.Is(err, ErrInsufficientFunds) and errors.Is(err, ErrInvalidInput) hold.
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds || target == apperrors.ErrInvalidInput
}

type persistenceError struct {
	err error
}

// NewPersistenceError marks err as a storage failure that rolled the transaction back.
func NewPersistenceError(err error) error {
	if err == nil {
		return nil
	}
	return &persistenceError{err: err}
}

func (e *persistenceError) Error() string {
	return "persistence failure: " + e.err.Error()
}

func (e *persistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.err}
}

// ErrInvalidSession indicates a holder bearer token is missing, malformed, expired or
// issued for another holder.
var ErrInvalidSession = apperrors.Wrap(apperrors.ErrUnauthorized, "invalid holder session token")
