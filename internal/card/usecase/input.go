package usecase

import (
	"fmt"

	validation "github.com/jellydator/validation"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	customValidation "github.com/allisson/cardledger/internal/validation"
)

// IssueCardInput holds the already normalized holder attributes of a new card.
type IssueCardInput struct {
	HolderName string
	TaxID      string
	Address    string
}

// Validate checks the input and returns ErrValidation on failure.
func (i *IssueCardInput) Validate() error {
	err := validation.ValidateStruct(i,
		validation.Field(&i.HolderName,
			validation.Required,
			customValidation.NotBlank,
			customValidation.PersonName,
			validation.Length(1, 255),
		),
		validation.Field(&i.TaxID, validation.Required, customValidation.TaxID),
		validation.Field(&i.Address,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", cardDomain.ErrValidation, err)
	}
	return nil
}

// UpdateCardInput holds the optional fields of UpdateFields. Nil fields are left unchanged.
type UpdateCardInput struct {
	HolderName *string
	Address    *string
	Status     *cardDomain.Status
}

// IsEmpty reports whether no field is set.
func (i *UpdateCardInput) IsEmpty() bool {
	return i.HolderName == nil && i.Address == nil && i.Status == nil
}

// Validate checks the set fields and returns ErrValidation on failure.
func (i *UpdateCardInput) Validate() error {
	if i.IsEmpty() {
		return fmt.Errorf("%w: at least one field must be provided", cardDomain.ErrValidation)
	}

	err := validation.ValidateStruct(i,
		validation.Field(&i.HolderName,
			validation.NilOrNotEmpty,
			customValidation.NotBlank,
			customValidation.PersonName,
			validation.Length(1, 255),
		),
		validation.Field(&i.Address,
			validation.NilOrNotEmpty,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", cardDomain.ErrValidation, err)
	}

	if i.Status != nil {
		return i.Status.Validate()
	}
	return nil
}
