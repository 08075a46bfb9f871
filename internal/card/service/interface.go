// Package service provides the stateless building blocks of card issuance: Luhn
// validation, card number and CVV generation, the sensitive field codec and holder
// session tokens.
package service

import (
	"time"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
)

// DigitGenerator produces random numerals of a fixed shape.
type DigitGenerator interface {
	Generate() (string, error)
}

// FieldCodec turns sensitive values into opaque, reversible tokens and back.
type FieldCodec interface {
	// Encode returns the deterministic token of plaintext for field.
	Encode(field cardDomain.Field, plaintext string) (string, error)

	// Decode verifies token and returns its plaintext. Fails with ErrInvalidToken when the
	// token is malformed, tampered with or was encoded for another field.
	Decode(field cardDomain.Field, token string) (string, error)
}

// SessionTokenService mints and verifies holder bearer tokens.
type SessionTokenService interface {
	// Issue mints a token for taxID valid from now until now plus the configured window.
	Issue(taxID string, now time.Time) (cardDomain.HolderSession, error)

	// Verify validates token and returns the tax id it was issued for.
	Verify(token string) (string, error)
}
