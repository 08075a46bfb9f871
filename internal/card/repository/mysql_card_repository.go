package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
	"github.com/allisson/cardledger/internal/database"
	apperrors "github.com/allisson/cardledger/internal/errors"
)

// MySQLCardRepository implements card persistence for MySQL databases.
// The external id is stored as BINARY(16).
type MySQLCardRepository struct {
	db *sql.DB
}

// NewMySQLCardRepository creates a new MySQL card repository.
func NewMySQLCardRepository(db *sql.DB) *MySQLCardRepository {
	return &MySQLCardRepository{db: db}
}

// Create inserts a card and sets its generated ID.
func (m *MySQLCardRepository) Create(ctx context.Context, card *cardDomain.Card) error {
	querier := database.GetTx(ctx, m.db)

	externalID, err := card.ExternalID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal card external id")
	}

	query := `INSERT INTO cards (external_id, holder_name, tax_id, status, address, balance, card_number, cvv,
			  expires_on, session_token, session_token_expires_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := querier.ExecContext(
		ctx,
		query,
		externalID,
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
	)
	if err != nil {
		// MySQL only names the violated key inside the message.
		if database.IsUniqueViolation(err) && strings.Contains(err.Error(), cardNumberConstraint) {
			return cardDomain.ErrCardNumberConflict
		}
		return apperrors.Wrap(err, "failed to create card")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return apperrors.Wrap(err, "failed to get card id")
	}
	card.ID = id

	return nil
}

// GetByExternalID retrieves a card by its external id.
func (m *MySQLCardRepository) GetByExternalID(ctx context.Context, externalID uuid.UUID) (*cardDomain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE external_id = ?`
	return m.getOne(ctx, query, externalID)
}

// GetByExternalIDForUpdate retrieves and row-locks a card by its external id.
func (m *MySQLCardRepository) GetByExternalIDForUpdate(
	ctx context.Context,
	externalID uuid.UUID,
) (*cardDomain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE external_id = ? FOR UPDATE`
	return m.getOne(ctx, query, externalID)
}

// ListByTaxID retrieves the holder cards ordered by id ascending.
func (m *MySQLCardRepository) ListByTaxID(ctx context.Context, taxID string) ([]*cardDomain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE tax_id = ? ORDER BY id ASC`
	return m.list(ctx, query, taxID)
}

// ListByTaxIDForUpdate retrieves and row-locks the holder cards ordered by id ascending.
func (m *MySQLCardRepository) ListByTaxIDForUpdate(ctx context.Context, taxID string) ([]*cardDomain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE tax_id = ? ORDER BY id ASC FOR UPDATE`
	return m.list(ctx, query, taxID)
}

// List retrieves a page of the holder cards ordered by id descending.
func (m *MySQLCardRepository) List(ctx context.Context, taxID string, offset, limit int) ([]*cardDomain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE tax_id = ? ORDER BY id DESC LIMIT ? OFFSET ?`
	return m.list(ctx, query, taxID, limit, offset)
}

// LockHolder upserts the card_holders row of taxID. ON DUPLICATE KEY UPDATE takes
// an exclusive lock on the existing row, and a concurrent first insert waits on the
// primary key, so issuances for one holder are serialized until commit.
func (m *MySQLCardRepository) LockHolder(ctx context.Context, taxID string) error {
	querier := database.GetTx(ctx, m.db)

	_, err := querier.ExecContext(
		ctx,
		`INSERT INTO card_holders (tax_id) VALUES (?) ON DUPLICATE KEY UPDATE tax_id = tax_id`,
		taxID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to lock card holder")
	}
	return nil
}

// ExistsByCardNumber reports whether the encoded card number is already stored.
func (m *MySQLCardRepository) ExistsByCardNumber(ctx context.Context, encodedNumber string) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	var exists bool
	err := querier.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM cards WHERE card_number = ?)`,
		encodedNumber,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check card number")
	}
	return exists, nil
}

// UpdateBalance sets the balance of a card.
func (m *MySQLCardRepository) UpdateBalance(
	ctx context.Context,
	externalID uuid.UUID,
	balance decimal.Decimal,
) error {
	return m.updateOne(
		ctx,
		`UPDATE cards SET balance = ?, updated_at = NOW(6) WHERE external_id = ?`,
		"failed to update card balance",
		balance,
		externalID,
	)
}

// UpdateStatus sets the status of a card.
func (m *MySQLCardRepository) UpdateStatus(
	ctx context.Context,
	externalID uuid.UUID,
	status cardDomain.Status,
) error {
	return m.updateOne(
		ctx,
		`UPDATE cards SET status = ?, updated_at = NOW(6) WHERE external_id = ?`,
		"failed to update card status",
		status,
		externalID,
	)
}

// UpdateHolderByTaxID sets the non-nil holder attributes on every card of the holder.
func (m *MySQLCardRepository) UpdateHolderByTaxID(
	ctx context.Context,
	taxID string,
	holderName, address *string,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE cards
			  SET holder_name = COALESCE(?, holder_name), address = COALESCE(?, address), updated_at = NOW(6)
			  WHERE tax_id = ?`

	if _, err := querier.ExecContext(ctx, query, holderName, address, taxID); err != nil {
		return apperrors.Wrap(err, "failed to update card holder")
	}
	return nil
}

// UpdateSessionByTaxID writes the session token on every card of the holder.
func (m *MySQLCardRepository) UpdateSessionByTaxID(
	ctx context.Context,
	taxID, encodedToken string,
	expiresAt time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE cards SET session_token = ?, session_token_expires_at = ?, updated_at = NOW(6)
			  WHERE tax_id = ?`

	if _, err := querier.ExecContext(ctx, query, encodedToken, expiresAt, taxID); err != nil {
		return apperrors.Wrap(err, "failed to update holder session")
	}
	return nil
}

// updateOne runs a single-card update keyed by external id. MySQL reports changed rows
// rather than matched rows, so existence is checked with a lookup instead.
func (m *MySQLCardRepository) updateOne(
	ctx context.Context,
	query, errMessage string,
	value any,
	externalID uuid.UUID,
) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := externalID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal card external id")
	}

	result, err := querier.ExecContext(ctx, query, value, idBytes)
	if err != nil {
		return apperrors.Wrap(err, errMessage)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected > 0 {
		return nil
	}

	_, err = m.GetByExternalID(ctx, externalID)
	return err
}

func (m *MySQLCardRepository) getOne(ctx context.Context, query string, externalID uuid.UUID) (*cardDomain.Card, error) {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := externalID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal card external id")
	}

	var row cardRow
	var scannedID []byte
	if err := querier.QueryRowContext(ctx, query, idBytes).Scan(row.dest(&scannedID)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cardDomain.ErrCardNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get card")
	}

	if err := row.externalID.UnmarshalBinary(scannedID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal card external id")
	}
	return row.toDomain(), nil
}

func (m *MySQLCardRepository) list(ctx context.Context, query string, args ...any) ([]*cardDomain.Card, error) {
	querier := database.GetTx(ctx, m.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list cards")
	}
	defer rows.Close() //nolint:errcheck

	cards := make([]*cardDomain.Card, 0)
	for rows.Next() {
		var row cardRow
		var scannedID []byte
		if err := rows.Scan(row.dest(&scannedID)...); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan card")
		}
		if err := row.externalID.UnmarshalBinary(scannedID); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal card external id")
		}
		cards = append(cards, row.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate cards")
	}

	return cards, nil
}
