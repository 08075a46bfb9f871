package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	apperrors "github.com/allisson/cardledger/internal/errors"
)

// cardRow is the scan target shared by both drivers. The external id destination is
// passed in because MySQL stores it as BINARY(16).
type cardRow struct {
	id                    int64
	externalID            uuid.UUID
	holderName            string
	taxID                 string
	status                string
	address               string
	balance               decimal.Decimal
	cardNumber            string
	cvv                   string
	expiresOn             time.Time
	sessionToken          sql.NullString
	sessionTokenExpiresAt sql.NullTime
	createdAt             time.Time
	updatedAt             time.Time
}

func (r *cardRow) dest(externalID any) []any {
	return []any{
		&r.id,
		externalID,
		&r.holderName,
		&r.taxID,
		&r.status,
		&r.address,
		&r.balance,
		&r.cardNumber,
		&r.cvv,
		&r.expiresOn,
		&r.sessionToken,
		&r.sessionTokenExpiresAt,
		&r.createdAt,
		&r.updatedAt,
	}
}

func (r *cardRow) toDomain() *cardDomain.Card {
	card := &cardDomain.Card{
		ID:           r.id,
		ExternalID:   r.externalID,
		HolderName:   r.holderName,
		TaxID:        r.taxID,
		Status:       cardDomain.Status(r.status),
		Address:      r.address,
		Balance:      r.balance,
		CardNumber:   r.cardNumber,
		CVV:          r.cvv,
		ExpiresOn:    r.expiresOn.UTC(),
		SessionToken: r.sessionToken.String,
		CreatedAt:    r.createdAt.UTC(),
		UpdatedAt:    r.updatedAt.UTC(),
	}
	if r.sessionTokenExpiresAt.Valid {
		expiresAt := r.sessionTokenExpiresAt.Time.UTC()
		card.SessionTokenExpiresAt = &expiresAt
	}
	return card
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// requireAffected maps an update that matched no row to ErrCardNotFound.
func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return cardDomain.ErrCardNotFound
	}
	return nil
}
