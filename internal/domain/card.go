package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CardStatusName identifies one of the closed set of card statuses
type CardStatusName string

const (
	CardStatusActive  CardStatusName = "ACTIVE"
	CardStatusBlocked CardStatusName = "BLOCKED"
	CardStatusExpired CardStatusName = "EXPIRED"
)

// Valid reports whether the name belongs to the closed status set
func (n CardStatusName) Valid() bool {
	switch n {
	case CardStatusActive, CardStatusBlocked, CardStatusExpired:
		return true
	}
	return false
}

// CardStatus represents one row of the read-mostly card status
// reference table. The rows are seeded once at startup with fixed IDs
// and are never mutated afterwards.
type CardStatus struct {
	ID   uuid.UUID
	Name CardStatusName
}

// Card represents a payment card entity in the domain layer.
// The PAN is stored only encrypted; LastFourDigits is derived from the
// plaintext PAN once at issuance and never recomputed.
type Card struct {
	ID              uuid.UUID
	NumberEncrypted string
	LastFourDigits  string
	HolderName      string
	ExpiryDate      time.Time
	Balance         decimal.Decimal // scale 2, never negative
	Status          CardStatus
	HolderID        uuid.UUID
	HolderUsername  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate ensures the card adheres to domain rules
func (c *Card) Validate() error {
	if c.NumberEncrypted == "" {
		return errors.New("card must carry an encrypted number")
	}
	if len(c.LastFourDigits) != 4 {
		return errors.New("card last four digits must be exactly 4 characters")
	}
	if c.HolderName == "" {
		return errors.New("card holder name cannot be empty")
	}
	if c.Balance.IsNegative() {
		return errors.New("card balance cannot be negative")
	}
	if !c.Status.Name.Valid() {
		return errors.New("card status must be ACTIVE, BLOCKED or EXPIRED")
	}
	return nil
}

// OwnedBy reports whether the card belongs to the given username
func (c *Card) OwnedBy(username string) bool {
	return c.HolderUsername == username
}

// Debit subtracts amount from the balance. The caller must have
// checked sufficiency first; Debit refuses to go negative.
func (c *Card) Debit(amount decimal.Decimal) error {
	if c.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	c.Balance = c.Balance.Sub(amount)
	return nil
}

// Credit adds amount to the balance
func (c *Card) Credit(amount decimal.Decimal) {
	c.Balance = c.Balance.Add(amount)
}
