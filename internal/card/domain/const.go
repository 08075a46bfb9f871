// Package domain defines the card record, its statuses and the ledger errors.
package domain

import (
	"fmt"
)

// Status is the administrative state of a card.
type Status string

const (
	StatusEmAnalise   Status = "EM_ANALISE"
	StatusAtivo       Status = "ATIVO"
	StatusInativo     Status = "INATIVO"
	StatusBloqueado   Status = "BLOQUEADO"
	StatusCancelado   Status = "CANCELADO"
	StatusEnviado     Status = "ENVIADO"
	StatusExpirado    Status = "EXPIRADO"
	StatusBlacklisted Status = "BLACKLISTED"
)

// Statuses lists every known status in declaration order.
var Statuses = []Status{
	StatusEmAnalise,
	StatusAtivo,
	StatusInativo,
	StatusBloqueado,
	StatusCancelado,
	StatusEnviado,
	StatusExpirado,
	StatusBlacklisted,
}

// Validate checks if the status is one of the known statuses.
func (s Status) Validate() error {
	for _, status := range Statuses {
		if s == status {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown status %q", ErrValidation, string(s))
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Field identifies which sensitive value a codec token carries.
type Field string

const (
	FieldCardNumber Field = "card_number"
	FieldCVV        Field = "cvv"
	FieldToken      Field = "token"
)

// Card constraints
const (
	// CardNumberLength is the number of digits of a card number.
	CardNumberLength = 16

	// CVVLength is the number of digits of a CVV.
	CVVLength = 3

	// ValidityYears is how far in the future a new card expires.
	ValidityYears = 5
)
