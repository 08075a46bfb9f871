// Package repository implements card persistence for PostgreSQL and MySQL.
//
// Every method runs on the transaction carried by ctx when there is one
// (database.GetTx). Lock methods use SELECT ... FOR UPDATE and must run inside one.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	"github.com/allisson/cardledger/internal/database"
	apperrors "github.com/allisson/cardledger/internal/errors"
)

// cardNumberConstraint is the unique constraint guarding encoded card numbers.
const cardNumberConstraint = "cards_card_number_key"

const cardColumns = `id, external_id, holder_name, tax_id, status, address, balance, card_number, cvv,
			  expires_on, session_token, session_token_expires_at, created_at, updated_at`

// PostgreSQLCardRepository implements card persistence for PostgreSQL databases.
type PostgreSQLCardRepository struct {
	db *sql.DB
}

// NewPostgreSQLCardRepository creates a new PostgreSQL card repository.
func NewPostgreSQLCardRepository(db *sql.DB) *PostgreSQLCardRepository {
	return &PostgreSQLCardRepository{db: db}
}

// Create inserts a card and sets its generated ID.
func (p *PostgreSQLCardRepository) Create(ctx context.Context, card *cardDomain.Card) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO cards (external_id, holder_name, tax_id, status, address, balance, card_number, cvv,
			  expires_on, session_token, session_token_expires_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			  RETURNING id`

	err := querier.QueryRowContext(
		ctx,
		query,
		card.ExternalID,
		card.HolderName,
		card.TaxID,
		card.Status,
		card.Address,
		card.Balance,
		card.CardNumber,
		card.CVV,
		card.ExpiresOn,
		nullString(card.SessionToken),
		card.SessionTokenExpiresAt,
		card.CreatedAt,
		card.UpdatedAt,
	).Scan(&card.ID)
	if err != nil {
		if database.IsUniqueViolation(err) && database.UniqueViolationConstraint(err) == cardNumberConstraint {
			return cardDomain.ErrCardNumberConflict
		}
		return apperrors.Wrap(err, "failed to create card")
	}
	return nil
}

// GetByExternalID retrieves a card by its external id.
func (p *PostgreSQLCardRepository) GetByExternalID(
	ctx context.Context,
	externalID uuid.UUID,
) (*cardDomain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE external_id = $1`
	return p.getOne(ctx, query, externalID)
}

// GetByExternalIDForUpdate retrieves and row-locks a card by its external id.
func (p *PostgreSQLCardRepository) GetByExternalIDForUpdate(
	ctx context.Context,
	externalID uuid.UUID,
) (*cardDomain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE external_id = $1 FOR UPDATE`
	return p.getOne(ctx, query, externalID)
}

// ListByTaxID retrieves the holder cards ordered by id ascending.
func (p *PostgreSQLCardRepository) ListByTaxID(ctx context.Context, taxID string) ([]*cardDomain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE tax_id = $1 ORDER BY id ASC`
	return p.list(ctx, query, taxID)
}

// ListByTaxIDForUpdate retrieves and row-locks the holder cards ordered by id ascending.
func (p *PostgreSQLCardRepository) ListByTaxIDForUpdate(
	ctx context.Context,
	taxID string,
) ([]*cardDomain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE tax_id = $1 ORDER BY id ASC FOR UPDATE`
	return p.list(ctx, query, taxID)
}

// List retrieves a page of the holder cards ordered by id descending.
func (p *PostgreSQLCardRepository) List(
	ctx context.Context,
	taxID string,
	offset, limit int,
) ([]*cardDomain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE tax_id = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`
	return p.list(ctx, query, taxID, limit, offset)
}

// LockHolder upserts the card_holders row of taxID, which leaves it locked until
// the transaction ends. A concurrent first insert for the same tax id waits on the
// primary key, so holders without cards are serialized too.
func (p *PostgreSQLCardRepository) LockHolder(ctx context.Context, taxID string) error {
	querier := database.GetTx(ctx, p.db)

	_, err := querier.ExecContext(
		ctx,
		`INSERT INTO card_holders (tax_id) VALUES ($1)
		 ON CONFLICT (tax_id) DO UPDATE SET tax_id = EXCLUDED.tax_id`,
		taxID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to lock card holder")
	}
	return nil
}

// ExistsByCardNumber reports whether the encoded card number is already stored.
func (p *PostgreSQLCardRepository) ExistsByCardNumber(ctx context.Context, encodedNumber string) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	var exists bool
	err := querier.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM cards WHERE card_number = $1)`,
		encodedNumber,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check card number")
	}
	return exists, nil
}

// UpdateBalance sets the balance of a card.
func (p *PostgreSQLCardRepository) UpdateBalance(
	ctx context.Context,
	externalID uuid.UUID,
	balance decimal.Decimal,
) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(
		ctx,
		`UPDATE cards SET balance = $1, updated_at = NOW() WHERE external_id = $2`,
		balance,
		externalID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update card balance")
	}
	return requireAffected(result)
}

// UpdateStatus sets the status of a card.
func (p *PostgreSQLCardRepository) UpdateStatus(
	ctx context.Context,
	externalID uuid.UUID,
	status cardDomain.Status,
) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(
		ctx,
		`UPDATE cards SET status = $1, updated_at = NOW() WHERE external_id = $2`,
		status,
		externalID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update card status")
	}
	return requireAffected(result)
}

// UpdateHolderByTaxID sets the non-nil holder attributes on every card of the holder.
func (p *PostgreSQLCardRepository) UpdateHolderByTaxID(
	ctx context.Context,
	taxID string,
	holderName, address *string,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE cards
			  SET holder_name = COALESCE($1, holder_name), address = COALESCE($2, address), updated_at = NOW()
			  WHERE tax_id = $3`

	if _, err := querier.ExecContext(ctx, query, holderName, address, taxID); err != nil {
		return apperrors.Wrap(err, "failed to update card holder")
	}
	return nil
}

// UpdateSessionByTaxID writes the session token on every card of the holder.
func (p *PostgreSQLCardRepository) UpdateSessionByTaxID(
	ctx context.Context,
	taxID, encodedToken string,
	expiresAt time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE cards SET session_token = $1, session_token_expires_at = $2, updated_at = NOW()
			  WHERE tax_id = $3`

	if _, err := querier.ExecContext(ctx, query, encodedToken, expiresAt, taxID); err != nil {
		return apperrors.Wrap(err, "failed to update holder session")
	}
	return nil
}

func (p *PostgreSQLCardRepository) getOne(ctx context.Context, query string, args ...any) (*cardDomain.Card, error) {
	querier := database.GetTx(ctx, p.db)

	var row cardRow
	err := querier.QueryRowContext(ctx, query, args...).Scan(row.dest(&row.externalID)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cardDomain.ErrCardNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get card")
	}
	return row.toDomain(), nil
}

func (p *PostgreSQLCardRepository) list(ctx context.Context, query string, args ...any) ([]*cardDomain.Card, error) {
	querier := database.GetTx(ctx, p.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list cards")
	}
	defer rows.Close() //nolint:errcheck

	cards := make([]*cardDomain.Card, 0)
	for rows.Next() {
		var row cardRow
		if err := rows.Scan(row.dest(&row.externalID)...); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan card")
		}
		cards = append(cards, row.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate cards")
	}

	return cards, nil
}
