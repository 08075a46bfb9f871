package validation

import (
	"errors"
	"testing"

	validation "github.com/jellydator/validation"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/cardledger/internal/errors"
)

func TestTaxID(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		shouldErr bool
	}{
		{"valid", "12345678901", false},
		{"too short", "1234567890", true},
		{"too long", "123456789012", true},
		{"with letters", "1234567890a", true},
		{"with punctuation", "123.456.789-01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Validate(tt.value, TaxID)
			if tt.shouldErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "exactly 11 digits")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPersonName(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		shouldErr bool
	}{
		{"plain", "JOAO SILVA", false},
		{"accented", "João Conceição", false},
		{"digits", "JOAO 2", true},
		{"punctuation", "JOAO-SILVA", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Validate(tt.value, PersonName)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDigits(t *testing.T) {
	assert.NoError(t, validation.Validate("0123", Digits))
	assert.Error(t, validation.Validate("12a", Digits))
}

func TestNotBlank(t *testing.T) {
	assert.NoError(t, validation.Validate("x", NotBlank))
	assert.Error(t, validation.Validate("   ", NotBlank))
}

func TestWrapValidationError(t *testing.T) {
	assert.NoError(t, WrapValidationError(nil))

	err := WrapValidationError(errors.New("tax_id: must contain exactly 11 digits."))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "tax_id")
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		text  string
		upper string
	}{
		{"  João   da  Silva ", "Joao da Silva", "JOAO DA SILVA"},
		{"Rua São Conceição, 10", "Rua Sao Conceicao, 10", "RUA SAO CONCEICAO, 10"},
		{"\tAVENIDA\nPAULISTA", "AVENIDA PAULISTA", "AVENIDA PAULISTA"},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.text, NormalizeText(tt.input))
			assert.Equal(t, tt.upper, NormalizeUpper(tt.input))
		})
	}
}
