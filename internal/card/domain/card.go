package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxBalance is the largest balance the cards table can store (NUMERIC(20,2)).
// It also bounds a single recharge or transfer amount.
var MaxBalance = decimal.RequireFromString("999999999999999999.99")

// Card is one issued card.
//
// CardNumber, CVV and SessionToken hold codec output only. SessionToken and
// SessionTokenExpiresAt are shared by every card with the same TaxID.
type Card struct {
	ID                    int64
	ExternalID            uuid.UUID
	HolderName            string
	TaxID                 string
	Status                Status
	Address               string
	Balance               decimal.Decimal
	CardNumber            string
	CVV                   string
	ExpiresOn             time.Time
	SessionToken          string
	SessionTokenExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// IsActive reports whether the card accepts balance mutations.
func (c *Card) IsActive() bool {
	return c.Status == StatusAtivo
}

// HasValidSession reports whether the stored session token is still valid at now.
func (c *Card) HasValidSession(now time.Time) bool {
	if c.SessionToken == "" || c.SessionTokenExpiresAt == nil {
		return false
	}
	return now.UTC().Before(c.SessionTokenExpiresAt.UTC())
}

// ExpirationFrom returns the last day of the month ValidityYears after issuedAt.
func ExpirationFrom(issuedAt time.Time) time.Time {
	issuedAt = issuedAt.UTC()
	// Day 0 of the next month is the last day of the target month.
	return time.Date(issuedAt.Year()+ValidityYears, issuedAt.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}

// HolderSession is the bearer token shared by all cards of one holder.
type HolderSession struct {
	TaxID     string
	Token     string
	ExpiresAt time.Time
}

// CardView is a card with its sensitive fields decoded for presentation.
type CardView struct {
	Card
	PlainCardNumber string
	PlainCVV        string
}

// IssuedCard is the result of an issuance: the card view plus the plaintext holder session.
type IssuedCard struct {
	CardView
	Session HolderSession
}
