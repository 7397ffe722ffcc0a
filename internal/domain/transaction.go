package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus represents the outcome recorded for one transfer attempt
type TransactionStatus string

const (
	TransactionSuccess TransactionStatus = "SUCCESS"
	TransactionFailed  TransactionStatus = "FAILED"
)

// Transaction is one immutable ledger entry. Every transfer attempt
// that reaches the sufficiency check produces exactly one entry,
// whether it succeeds or is rejected for balance. Entries are
// append-only: nothing in the system updates or deletes them.
type Transaction struct {
	ID         uuid.UUID
	FromCardID uuid.UUID
	ToCardID   uuid.UUID
	Amount     decimal.Decimal // always positive
	Status     TransactionStatus
	CreatedAt  time.Time
}

// Validate ensures the ledger entry adheres to domain rules
func (t *Transaction) Validate() error {
	if t.FromCardID == uuid.Nil || t.ToCardID == uuid.Nil {
		return errors.New("ledger entry must reference both cards")
	}
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("ledger entry amount must be positive")
	}
	if t.Status != TransactionSuccess && t.Status != TransactionFailed {
		return errors.New("ledger entry status must be SUCCESS or FAILED")
	}
	return nil
}
