package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
)

var ten = big.NewInt(10)

type cardNumberGenerator struct{}

// NewCardNumberGenerator creates a generator of uniformly random, Luhn-valid 16-digit
// card numbers. Uniqueness against stored cards is the caller's concern.
func NewCardNumberGenerator() DigitGenerator {
	return &cardNumberGenerator{}
}

// Generate draws 15 random digits and appends the Luhn check digit.
func (g *cardNumberGenerator) Generate() (string, error) {
	body, err := randomDigits(cardDomain.CardNumberLength - 1)
	if err != nil {
		return "", err
	}

	check, err := CalculateLuhnCheckDigit(body)
	if err != nil {
		return "", err
	}

	number := body + string(rune('0'+check))
	if !ValidateLuhn(number) {
		return "", errors.New("generated card number failed Luhn validation")
	}

	return number, nil
}

type cvvGenerator struct{}

// NewCVVGenerator creates a generator of uniformly random 3-digit CVVs.
func NewCVVGenerator() DigitGenerator {
	return &cvvGenerator{}
}

// Generate returns a random numeral of CVVLength digits, leading zeros included.
func (g *cvvGenerator) Generate() (string, error) {
	return randomDigits(cardDomain.CVVLength)
}

func randomDigits(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
