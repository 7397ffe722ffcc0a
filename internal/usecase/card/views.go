package card

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// View is the card shape exposed to callers. The PAN appears only in
// masked form.
type View struct {
	Message    string          `json:"message,omitempty"`
	ID         uuid.UUID       `json:"id"`
	MaskedPan  string          `json:"maskedPan"`
	HolderName string          `json:"holderName"`
	ExpiryDate time.Time       `json:"expiryDate"`
	Balance    decimal.Decimal `json:"balance"`
	Status     string          `json:"status"`
	HolderID   uuid.UUID       `json:"holderId"`
}

// BalanceView is the balance shape exposed to callers
type BalanceView struct {
	CardID     uuid.UUID       `json:"cardId"`
	Balance    decimal.Decimal `json:"balance"`
	HolderName string          `json:"holderName"`
}

// Page is one page of card views
type Page struct {
	Content       []View `json:"content"`
	Page          int    `json:"page"`
	Size          int    `json:"size"`
	TotalElements int    `json:"totalElements"`
}
