package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ovolkov/bankcards-backend/internal/domain"
)

// transactionRepository implements domain.TransactionRepository.
// The ledger is append-only, so the repository exposes no update or
// delete.
type transactionRepository struct {
	q querier
}

// NewTransactionRepository creates a new ledger repository
func NewTransactionRepository(db *DB) domain.TransactionRepository {
	return &transactionRepository{q: db.DB}
}

// Create appends one ledger entry
func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, from_card_id, to_card_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`

	err := r.q.QueryRowContext(ctx, query,
		tx.ID,
		tx.FromCardID,
		tx.ToCardID,
		tx.Amount.StringFixed(2),
		string(tx.Status),
	).Scan(&tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	return nil
}

// List retrieves a page of ledger entries, newest first
func (r *transactionRepository) List(ctx context.Context, limit, offset int) ([]*domain.Transaction, error) {
	query := `
		SELECT id, from_card_id, to_card_id, amount, status, created_at
		FROM transactions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.q.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.Transaction
	for rows.Next() {
		var entry domain.Transaction
		var amountStr, statusStr string

		if err := rows.Scan(
			&entry.ID,
			&entry.FromCardID,
			&entry.ToCardID,
			&amountStr,
			&statusStr,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ledger amount: %w", err)
		}
		entry.Amount = amount
		entry.Status = domain.TransactionStatus(statusStr)

		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	return entries, nil
}
