package postgres

import (
	"context"
	"fmt"

	"github.com/ovolkov/bankcards-backend/internal/domain"
)

// unitOfWork implements domain.UnitOfWork over one *sql.Tx.
// Serialization of concurrent transfers relies on the FOR UPDATE row
// locks taken through the tx-scoped card repository: two units of
// work touching the same card queue on the row lock, so a sufficiency
// check can never run against a stale balance.
type unitOfWork struct {
	db *DB
}

// NewUnitOfWork creates a unit of work bound to the database
func NewUnitOfWork(db *DB) domain.UnitOfWork {
	return &unitOfWork{db: db}
}

// Do runs fn inside a single database transaction
func (u *unitOfWork) Do(ctx context.Context, fn func(repos domain.TxRepositories) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	repos := &txRepositories{
		cards:        &cardRepository{q: tx},
		transactions: &transactionRepository{q: tx},
	}

	if err := fn(repos); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// txRepositories exposes repositories bound to one transaction
type txRepositories struct {
	cards        domain.CardRepository
	transactions domain.TransactionRepository
}

func (r *txRepositories) Cards() domain.CardRepository { return r.cards }

func (r *txRepositories) Transactions() domain.TransactionRepository { return r.transactions }
