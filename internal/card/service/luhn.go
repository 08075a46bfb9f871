package service

import (
	"errors"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
)

// ValidateLuhn reports whether number is a 16-digit numeral with a valid Luhn checksum.
func ValidateLuhn(number string) bool {
	if len(number) != cardDomain.CardNumberLength {
		return false
	}

	sum := 0
	for i := 0; i < len(number); i++ {
		c := number[len(number)-1-i]
		if c < '0' || c > '9' {
			return false
		}
		digit := int(c - '0')

		// Double every second digit from the right, skipping the check digit itself
		if i%2 == 1 {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
	}

	return sum%10 == 0
}

// CalculateLuhnCheckDigit returns the digit that makes partial followed by it Luhn-valid.
func CalculateLuhnCheckDigit(partial string) (int, error) {
	if partial == "" {
		return 0, errors.New("partial number must not be empty")
	}

	sum := 0
	for i := 0; i < len(partial); i++ {
		c := partial[len(partial)-1-i]
		if c < '0' || c > '9' {
			return 0, errors.New("partial number must contain only digits")
		}
		digit := int(c - '0')

		// The check digit will take position 0, so doubling starts here
		if i%2 == 0 {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
	}

	return (10 - sum%10) % 10, nil
}
