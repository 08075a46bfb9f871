// Package validation provides custom validation rules for the application.
package validation

import (
	"strings"
	"unicode"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/cardledger/internal/errors"
)

// TaxIDLength is the number of digits of a holder tax identifier.
const TaxIDLength = 11

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// Digits validates that a string holds only ASCII decimal digits.
var Digits = validation.NewStringRuleWithError(
	isDigits,
	validation.NewError("validation_digits", "must contain only digits"),
)

// TaxID validates a holder tax identifier: exactly 11 digits.
var TaxID = validation.NewStringRuleWithError(
	func(s string) bool {
		return len(s) == TaxIDLength && isDigits(s)
	},
	validation.NewError("validation_tax_id", "must contain exactly 11 digits"),
)

// PersonName validates that a string is made of letters and spaces only.
var PersonName = validation.NewStringRuleWithError(
	func(s string) bool {
		for _, r := range s {
			if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
				return false
			}
		}
		return true
	},
	validation.NewError("validation_person_name", "must contain only letters and spaces"),
)

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
