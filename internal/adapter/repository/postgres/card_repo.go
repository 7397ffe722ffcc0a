package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ovolkov/bankcards-backend/internal/domain"
)

// querier is satisfied by both *sql.DB and *sql.Tx so the same
// repository code serves standalone calls and unit-of-work scopes
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const cardColumns = `
	c.id, c.number_encrypted, c.last_four_digits, c.holder_name,
	c.expiry_date, c.balance, s.id, s.name, c.holder_id, h.username,
	c.created_at, c.updated_at
`

const cardJoins = `
	FROM cards c
	JOIN card_statuses s ON s.id = c.status_id
	JOIN holders h ON h.id = c.holder_id
`

// cardRepository implements domain.CardRepository
type cardRepository struct {
	q querier
}

// NewCardRepository creates a new card repository
func NewCardRepository(db *DB) domain.CardRepository {
	return &cardRepository{q: db.DB}
}

// GetByID retrieves a card by its ID
func (r *cardRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + cardJoins + ` WHERE c.id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate retrieves a card and locks its row. Outside a
// transaction the lock is released immediately, so this only has
// teeth on a unit-of-work scoped repository.
func (r *cardRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + cardJoins + ` WHERE c.id = $1 FOR UPDATE OF c`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// Create persists a new card
func (r *cardRepository) Create(ctx context.Context, card *domain.Card) error {
	query := `
		INSERT INTO cards (id, number_encrypted, last_four_digits, holder_name,
			expiry_date, balance, status_id, holder_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRowContext(ctx, query,
		card.ID,
		card.NumberEncrypted,
		card.LastFourDigits,
		card.HolderName,
		card.ExpiryDate,
		card.Balance.StringFixed(2),
		card.Status.ID,
		card.HolderID,
	).Scan(&card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}

	return nil
}

// UpdateStatus moves a card to the given status
func (r *cardRepository) UpdateStatus(ctx context.Context, cardID uuid.UUID, status domain.CardStatus) error {
	query := `UPDATE cards SET status_id = $1, updated_at = NOW() WHERE id = $2`

	res, err := r.q.ExecContext(ctx, query, status.ID, cardID)
	if err != nil {
		return fmt.Errorf("failed to update card status: %w", err)
	}
	return requireRow(res)
}

// UpdateBalance writes a card's new balance
func (r *cardRepository) UpdateBalance(ctx context.Context, cardID uuid.UUID, balance decimal.Decimal) error {
	query := `UPDATE cards SET balance = $1, updated_at = NOW() WHERE id = $2`

	res, err := r.q.ExecContext(ctx, query, balance.StringFixed(2), cardID)
	if err != nil {
		return fmt.Errorf("failed to update card balance: %w", err)
	}
	return requireRow(res)
}

// Delete removes a card row unconditionally
func (r *cardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	return requireRow(res)
}

// List retrieves a page of cards matching the query, newest first
func (r *cardRepository) List(ctx context.Context, q domain.ListCardsQuery) ([]*domain.Card, error) {
	query := `SELECT ` + cardColumns + cardJoins + `
		WHERE ($1 = '' OR h.username = $1)
		  AND ($2 = '' OR c.last_four_digits LIKE '%' || $2 || '%')
		ORDER BY c.created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.q.QueryContext(ctx, query, q.Username, q.Search, q.Limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cards: %w", err)
	}

	return cards, nil
}

// Count returns the total number of cards matching the query
func (r *cardRepository) Count(ctx context.Context, q domain.ListCardsQuery) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM cards c
		JOIN holders h ON h.id = c.holder_id
		WHERE ($1 = '' OR h.username = $1)
		  AND ($2 = '' OR c.last_four_digits LIKE '%' || $2 || '%')
	`

	var count int
	if err := r.q.QueryRowContext(ctx, query, q.Username, q.Search).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", err)
	}
	return count, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func (r *cardRepository) scanOne(row *sql.Row) (*domain.Card, error) {
	card, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return card, nil
}

func scanCard(s scanner) (*domain.Card, error) {
	var card domain.Card
	var balanceStr string
	var statusName string

	err := s.Scan(
		&card.ID,
		&card.NumberEncrypted,
		&card.LastFourDigits,
		&card.HolderName,
		&card.ExpiryDate,
		&balanceStr,
		&card.Status.ID,
		&statusName,
		&card.HolderID,
		&card.HolderUsername,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan card: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse card balance: %w", err)
	}
	card.Balance = balance
	card.Status.Name = domain.CardStatusName(statusName)

	return &card, nil
}

// requireRow converts a zero-row update into ErrNotFound
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
