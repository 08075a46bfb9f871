// Package dto provides data transfer objects for the card HTTP API.
package dto

import (
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"
	"github.com/shopspring/decimal"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	cardUseCase "github.com/allisson/cardledger/internal/card/usecase"
	customValidation "github.com/allisson/cardledger/internal/validation"
)

// IssueCardRequest contains the holder attributes of a new card.
type IssueCardRequest struct {
	HolderName string `json:"holder_name"`
	TaxID      string `json:"tax_id"`
	Address    string `json:"address"`
}

// Normalize collapses whitespace, strips accents and upper-cases name and address.
func (r *IssueCardRequest) Normalize() {
	r.HolderName = customValidation.NormalizeUpper(r.HolderName)
	r.Address = customValidation.NormalizeUpper(r.Address)
	r.TaxID = customValidation.NormalizeText(r.TaxID)
}

// Validate checks if the issue card request is valid. Call Normalize first.
func (r *IssueCardRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.HolderName,
			validation.Required,
			customValidation.NotBlank,
			customValidation.PersonName,
			validation.Length(1, 255),
		),
		validation.Field(&r.TaxID,
			validation.Required,
			customValidation.TaxID,
		),
		validation.Field(&r.Address,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
	)
}

// ToInput maps the request to the use case input.
func (r *IssueCardRequest) ToInput() cardUseCase.IssueCardInput {
	return cardUseCase.IssueCardInput{
		HolderName: r.HolderName,
		TaxID:      r.TaxID,
		Address:    r.Address,
	}
}

// UpdateCardRequest contains the optional fields of a card update.
type UpdateCardRequest struct {
	HolderName *string `json:"holder_name,omitempty"`
	Address    *string `json:"address,omitempty"`
	Status     *string `json:"status,omitempty"`
}

// Normalize applies the issuance normalization to the fields that are set.
func (r *UpdateCardRequest) Normalize() {
	if r.HolderName != nil {
		name := customValidation.NormalizeUpper(*r.HolderName)
		r.HolderName = &name
	}
	if r.Address != nil {
		address := customValidation.NormalizeUpper(*r.Address)
		r.Address = &address
	}
	if r.Status != nil {
		status := customValidation.NormalizeUpper(*r.Status)
		r.Status = &status
	}
}

// Validate checks if the update card request is valid. Call Normalize first.
func (r *UpdateCardRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.HolderName,
			validation.NilOrNotEmpty,
			customValidation.PersonName,
			validation.Length(1, 255),
		),
		validation.Field(&r.Address,
			validation.NilOrNotEmpty,
			validation.Length(1, 255),
		),
		validation.Field(&r.Status,
			validation.NilOrNotEmpty,
			validation.By(validateStatus),
		),
	)
}

// ToInput maps the request to the use case input.
func (r *UpdateCardRequest) ToInput() cardUseCase.UpdateCardInput {
	input := cardUseCase.UpdateCardInput{
		HolderName: r.HolderName,
		Address:    r.Address,
	}
	if r.Status != nil {
		status := cardDomain.Status(*r.Status)
		input.Status = &status
	}
	return input
}

// RechargeRequest contains the amount credited to a card.
type RechargeRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Validate checks if the recharge request is valid.
func (r *RechargeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Amount, validation.By(validateAmount)),
	)
}

// TransferRequest moves amount from the payer card to the payee card.
type TransferRequest struct {
	PayerID string          `json:"payer_id"`
	PayeeID string          `json:"payee_id"`
	Amount  decimal.Decimal `json:"amount"`
}

// Validate checks if the transfer request is valid.
func (r *TransferRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.PayerID, validation.Required, validation.By(validateUUID)),
		validation.Field(&r.PayeeID, validation.Required, validation.By(validateUUID)),
		validation.Field(&r.Amount, validation.By(validateAmount)),
	)
}

func validateStatus(value any) error {
	status, ok := value.(*string)
	if !ok || status == nil {
		return nil
	}
	for _, s := range cardDomain.Statuses {
		if string(s) == *status {
			return nil
		}
	}
	return validation.NewError("validation_status_invalid", "must be a valid card status")
}

func validateAmount(value any) error {
	amount, ok := value.(decimal.Decimal)
	if !ok {
		return validation.NewError("validation_amount_invalid", "must be a decimal amount")
	}
	if !amount.IsPositive() {
		return validation.NewError("validation_amount_positive", "must be greater than zero")
	}
	if !amount.Equal(amount.Truncate(2)) {
		return validation.NewError("validation_amount_precision", "must have at most 2 decimal places")
	}
	if amount.GreaterThan(cardDomain.MaxBalance) {
		return validation.NewError("validation_amount_max", "must not exceed "+cardDomain.MaxBalance.StringFixed(2))
	}
	return nil
}

func validateUUID(value any) error {
	s, ok := value.(string)
	if !ok || s == "" {
		return nil
	}
	if _, err := uuid.Parse(s); err != nil {
		return validation.NewError("validation_uuid_invalid", "must be a valid UUID")
	}
	return nil
}
