package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCard() Card {
	return Card{
		ID:              uuid.New(),
		NumberEncrypted: "ZW5jcnlwdGVk",
		LastFourDigits:  "9010",
		HolderName:      "Ivan Petrov",
		ExpiryDate:      time.Now().AddDate(5, 0, 0),
		Balance:         decimal.NewFromInt(1000),
		Status:          CardStatus{ID: uuid.New(), Name: CardStatusActive},
		HolderID:        uuid.New(),
		HolderUsername:  "ivan",
	}
}

func TestCard_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Card)
		wantErr bool
	}{
		{name: "valid card", mutate: func(c *Card) {}, wantErr: false},
		{name: "missing encrypted number", mutate: func(c *Card) { c.NumberEncrypted = "" }, wantErr: true},
		{name: "short last four", mutate: func(c *Card) { c.LastFourDigits = "90" }, wantErr: true},
		{name: "empty holder name", mutate: func(c *Card) { c.HolderName = "" }, wantErr: true},
		{name: "negative balance", mutate: func(c *Card) { c.Balance = decimal.NewFromInt(-1) }, wantErr: true},
		{name: "unknown status", mutate: func(c *Card) { c.Status.Name = "FROZEN" }, wantErr: true},
		{name: "zero balance is fine", mutate: func(c *Card) { c.Balance = decimal.Zero }, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCard()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCard_DebitCredit(t *testing.T) {
	c := validCard()

	require.NoError(t, c.Debit(decimal.NewFromInt(400)))
	assert.True(t, c.Balance.Equal(decimal.NewFromInt(600)))

	c.Credit(decimal.NewFromInt(100))
	assert.True(t, c.Balance.Equal(decimal.NewFromInt(700)))

	// a debit past the balance is refused and changes nothing
	err := c.Debit(decimal.NewFromInt(701))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.True(t, c.Balance.Equal(decimal.NewFromInt(700)))

	// draining to exactly zero is allowed
	require.NoError(t, c.Debit(decimal.NewFromInt(700)))
	assert.True(t, c.Balance.IsZero())
}

func TestCard_OwnedBy(t *testing.T) {
	c := validCard()
	assert.True(t, c.OwnedBy("ivan"))
	assert.False(t, c.OwnedBy("maria"))
	assert.False(t, c.OwnedBy(""))
}

func TestTransaction_Validate(t *testing.T) {
	valid := Transaction{
		ID:         uuid.New(),
		FromCardID: uuid.New(),
		ToCardID:   uuid.New(),
		Amount:     decimal.NewFromInt(100),
		Status:     TransactionSuccess,
	}
	assert.NoError(t, valid.Validate())

	missingCard := valid
	missingCard.FromCardID = uuid.Nil
	assert.Error(t, missingCard.Validate())

	zeroAmount := valid
	zeroAmount.Amount = decimal.Zero
	assert.Error(t, zeroAmount.Validate())

	negativeAmount := valid
	negativeAmount.Amount = decimal.NewFromInt(-100)
	assert.Error(t, negativeAmount.Validate())

	badStatus := valid
	badStatus.Status = "PENDING"
	assert.Error(t, badStatus.Validate())

	failed := valid
	failed.Status = TransactionFailed
	assert.NoError(t, failed.Validate())
}

func TestCardStatusName_Valid(t *testing.T) {
	assert.True(t, CardStatusActive.Valid())
	assert.True(t, CardStatusBlocked.Valid())
	assert.True(t, CardStatusExpired.Valid())
	assert.False(t, CardStatusName("FROZEN").Valid())
	assert.False(t, CardStatusName("").Valid())
}
