package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListCardsQuery narrows a card listing. An empty Username lists all
// holders' cards (admin view); a non-empty Search keeps only cards
// whose last four digits contain the substring.
type ListCardsQuery struct {
	Username string
	Search   string
	Limit    int
	Offset   int
}

// CardRepository defines the interface for card persistence operations
type CardRepository interface {
	// GetByID retrieves a card by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Card, error)

	// GetByIDForUpdate retrieves a card and, when called on a
	// unit-of-work scoped repository, locks its row until the
	// surrounding transaction ends
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Card, error)

	// Create persists a new card
	Create(ctx context.Context, card *Card) error

	// UpdateStatus moves a card to the given status
	UpdateStatus(ctx context.Context, cardID uuid.UUID, status CardStatus) error

	// UpdateBalance writes a card's new balance
	UpdateBalance(ctx context.Context, cardID uuid.UUID, balance decimal.Decimal) error

	// Delete removes a card row unconditionally
	Delete(ctx context.Context, id uuid.UUID) error

	// List retrieves a page of cards matching the query
	List(ctx context.Context, q ListCardsQuery) ([]*Card, error)

	// Count returns the total number of cards matching the query,
	// ignoring Limit and Offset
	Count(ctx context.Context, q ListCardsQuery) (int, error)
}

// CardStatusRepository defines the interface for the status reference table
type CardStatusRepository interface {
	// GetByName retrieves a status row by its stable name
	GetByName(ctx context.Context, name CardStatusName) (*CardStatus, error)

	// GetByID retrieves a status row by its fixed ID
	GetByID(ctx context.Context, id uuid.UUID) (*CardStatus, error)

	// Create inserts a status row; used only by the seeder
	Create(ctx context.Context, status *CardStatus) error
}

// TransactionRepository defines the interface for ledger persistence.
// The ledger is append-only: there is no update or delete.
type TransactionRepository interface {
	// Create appends one ledger entry
	Create(ctx context.Context, tx *Transaction) error

	// List retrieves a page of ledger entries, newest first
	List(ctx context.Context, limit, offset int) ([]*Transaction, error)
}

// HolderRepository defines the interface for account holder lookups
type HolderRepository interface {
	// GetByID retrieves a holder by ID
	GetByID(ctx context.Context, id uuid.UUID) (*AccountHolder, error)

	// GetByUsername retrieves a holder by username
	GetByUsername(ctx context.Context, username string) (*AccountHolder, error)

	// ExistsByUsername reports whether a holder with the username exists
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// Create persists a new holder
	Create(ctx context.Context, holder *AccountHolder) error
}

// TxRepositories exposes repositories bound to one store transaction
type TxRepositories interface {
	Cards() CardRepository
	Transactions() TransactionRepository
}

// UnitOfWork runs fn inside a single store transaction. If fn returns
// an error the transaction is rolled back; otherwise it is committed.
// Concurrent units of work touching the same rows are serialized by
// the store's row locks.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(repos TxRepositories) error) error
}
