package transfer

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ovolkov/bankcards-backend/internal/domain"
)

// MockCardRepository is a mock implementation of CardRepository for testing
type MockCardRepository struct {
	mock.Mock
}

func (m *MockCardRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Card), args.Error(1)
}

func (m *MockCardRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Card), args.Error(1)
}

func (m *MockCardRepository) Create(ctx context.Context, card *domain.Card) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *MockCardRepository) UpdateStatus(ctx context.Context, cardID uuid.UUID, status domain.CardStatus) error {
	args := m.Called(ctx, cardID, status)
	return args.Error(0)
}

func (m *MockCardRepository) UpdateBalance(ctx context.Context, cardID uuid.UUID, balance decimal.Decimal) error {
	args := m.Called(ctx, cardID, balance)
	return args.Error(0)
}

func (m *MockCardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCardRepository) List(ctx context.Context, q domain.ListCardsQuery) ([]*domain.Card, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Card), args.Error(1)
}

func (m *MockCardRepository) Count(ctx context.Context, q domain.ListCardsQuery) (int, error) {
	args := m.Called(ctx, q)
	return args.Int(0), args.Error(1)
}

// MockTransactionRepository is a mock implementation of TransactionRepository for testing
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) List(ctx context.Context, limit, offset int) ([]*domain.Transaction, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

// fakeUnitOfWork runs fn against the given repositories and records
// whether the work was committed (fn returned nil) or rolled back
type fakeUnitOfWork struct {
	cards        *MockCardRepository
	transactions *MockTransactionRepository

	committed  bool
	rolledBack bool
}

func (f *fakeUnitOfWork) Do(ctx context.Context, fn func(repos domain.TxRepositories) error) error {
	if err := fn(f); err != nil {
		f.rolledBack = true
		return err
	}
	f.committed = true
	return nil
}

func (f *fakeUnitOfWork) Cards() domain.CardRepository { return f.cards }

func (f *fakeUnitOfWork) Transactions() domain.TransactionRepository { return f.transactions }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestEngine() (*Engine, *fakeUnitOfWork) {
	uow := &fakeUnitOfWork{
		cards:        new(MockCardRepository),
		transactions: new(MockTransactionRepository),
	}
	return NewEngine(uow, quietLogger()), uow
}

var activeStatus = domain.CardStatus{
	ID:   uuid.MustParse("11111111-1111-1111-1111-111111111111"),
	Name: domain.CardStatusActive,
}

func ownedCard(id uuid.UUID, username string, balance string) *domain.Card {
	return &domain.Card{
		ID:              id,
		NumberEncrypted: "ZW5jcnlwdGVk" + id.String(),
		LastFourDigits:  "9010",
		HolderName:      "Ivan Petrov",
		ExpiryDate:      time.Now().AddDate(5, 0, 0),
		Balance:         decimal.RequireFromString(balance),
		Status:          activeStatus,
		HolderID:        uuid.New(),
		HolderUsername:  username,
	}
}

func TestTransfer_Success(t *testing.T) {
	ctx := context.Background()
	engine, uow := newTestEngine()

	fromID := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	toID := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000002")

	fromCard := ownedCard(fromID, "ivan", "1000.00")
	toCard := ownedCard(toID, "ivan", "1000.00")

	uow.cards.On("GetByIDForUpdate", ctx, fromID).Return(fromCard, nil)
	uow.cards.On("GetByIDForUpdate", ctx, toID).Return(toCard, nil)
	uow.cards.On("UpdateBalance", ctx, fromID, mock.Anything).Return(nil)
	uow.cards.On("UpdateBalance", ctx, toID, mock.Anything).Return(nil)

	var entry *domain.Transaction
	uow.transactions.On("Create", ctx, mock.AnythingOfType("*domain.Transaction")).
		Run(func(args mock.Arguments) {
			entry = args.Get(1).(*domain.Transaction)
		}).
		Return(nil)

	amount := decimal.RequireFromString("500.00")
	result, err := engine.Transfer(ctx, fromID, toID, amount, "ivan")
	require.NoError(t, err)

	// conservation: 1000/1000 -> 500/1500
	assert.True(t, fromCard.Balance.Equal(decimal.RequireFromString("500.00")))
	assert.True(t, toCard.Balance.Equal(decimal.RequireFromString("1500.00")))

	// exactly one SUCCESS row referencing both cards and the amount
	require.NotNil(t, entry)
	assert.Equal(t, domain.TransactionSuccess, entry.Status)
	assert.Equal(t, fromID, entry.FromCardID)
	assert.Equal(t, toID, entry.ToCardID)
	assert.True(t, entry.Amount.Equal(amount))
	uow.transactions.AssertNumberOfCalls(t, "Create", 1)

	assert.Equal(t, domain.TransactionSuccess, result.Status)
	assert.Equal(t, entry.ID, result.TransactionID)
	assert.True(t, uow.committed)
}

func TestTransfer_InsufficientBalance(t *testing.T) {
	ctx := context.Background()
	engine, uow := newTestEngine()

	fromID := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	toID := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000002")

	fromCard := ownedCard(fromID, "ivan", "1000.00")
	toCard := ownedCard(toID, "ivan", "1000.00")

	uow.cards.On("GetByIDForUpdate", ctx, fromID).Return(fromCard, nil)
	uow.cards.On("GetByIDForUpdate", ctx, toID).Return(toCard, nil)

	var entry *domain.Transaction
	uow.transactions.On("Create", ctx, mock.AnythingOfType("*domain.Transaction")).
		Run(func(args mock.Arguments) {
			entry = args.Get(1).(*domain.Transaction)
		}).
		Return(nil)

	amount := decimal.RequireFromString("2000.00")
	result, err := engine.Transfer(ctx, fromID, toID, amount, "ivan")
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// balances unchanged, no balance writes attempted
	assert.True(t, fromCard.Balance.Equal(decimal.RequireFromString("1000.00")))
	assert.True(t, toCard.Balance.Equal(decimal.RequireFromString("1000.00")))
	uow.cards.AssertNotCalled(t, "UpdateBalance", mock.Anything, mock.Anything, mock.Anything)

	// exactly one FAILED row with the attempted amount, committed so
	// the audit trail survives the rejection
	require.NotNil(t, entry)
	assert.Equal(t, domain.TransactionFailed, entry.Status)
	assert.True(t, entry.Amount.Equal(amount))
	uow.transactions.AssertNumberOfCalls(t, "Create", 1)
	assert.True(t, uow.committed)

	// the result still identifies the FAILED entry
	require.NotNil(t, result)
	assert.Equal(t, domain.TransactionFailed, result.Status)
	assert.Equal(t, entry.ID, result.TransactionID)
}

func TestTransfer_ForeignCardForbidden(t *testing.T) {
	ctx := context.Background()
	engine, uow := newTestEngine()

	fromID := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	toID := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000002")

	fromCard := ownedCard(fromID, "ivan", "1000.00")
	toCard := ownedCard(toID, "maria", "1000.00")

	uow.cards.On("GetByIDForUpdate", ctx, fromID).Return(fromCard, nil)
	uow.cards.On("GetByIDForUpdate", ctx, toID).Return(toCard, nil)

	_, err := engine.Transfer(ctx, fromID, toID, decimal.NewFromInt(100), "ivan")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// no ledger row, no balance change, transaction rolled back
	uow.transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	uow.cards.AssertNotCalled(t, "UpdateBalance", mock.Anything, mock.Anything, mock.Anything)
	assert.True(t, uow.rolledBack)
}

func TestTransfer_SourceCardNotFound(t *testing.T) {
	ctx := context.Background()
	engine, uow := newTestEngine()

	fromID := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	toID := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000002")

	uow.cards.On("GetByIDForUpdate", ctx, fromID).Return(nil, domain.ErrNotFound)

	_, err := engine.Transfer(ctx, fromID, toID, decimal.NewFromInt(100), "ivan")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "source card")
	uow.transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTransfer_DestinationCardNotFound(t *testing.T) {
	ctx := context.Background()
	engine, uow := newTestEngine()

	fromID := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	toID := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000002")

	fromCard := ownedCard(fromID, "ivan", "1000.00")
	uow.cards.On("GetByIDForUpdate", ctx, fromID).Return(fromCard, nil)
	uow.cards.On("GetByIDForUpdate", ctx, toID).Return(nil, domain.ErrNotFound)

	_, err := engine.Transfer(ctx, fromID, toID, decimal.NewFromInt(100), "ivan")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "destination card")
}

func TestTransfer_LocksInAscendingIDOrder(t *testing.T) {
	ctx := context.Background()
	engine, uow := newTestEngine()

	lowID := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	highID := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000002")

	lowCard := ownedCard(lowID, "ivan", "1000.00")
	highCard := ownedCard(highID, "ivan", "1000.00")

	var lockOrder []uuid.UUID
	record := func(args mock.Arguments) {
		lockOrder = append(lockOrder, args.Get(1).(uuid.UUID))
	}

	uow.cards.On("GetByIDForUpdate", ctx, lowID).Run(record).Return(lowCard, nil)
	uow.cards.On("GetByIDForUpdate", ctx, highID).Run(record).Return(highCard, nil)
	uow.cards.On("UpdateBalance", ctx, mock.Anything, mock.Anything).Return(nil)
	uow.transactions.On("Create", ctx, mock.Anything).Return(nil)

	// transfer from the higher ID to the lower one; the lower ID must
	// still be locked first
	_, err := engine.Transfer(ctx, highID, lowID, decimal.NewFromInt(100), "ivan")
	require.NoError(t, err)
	require.Len(t, lockOrder, 2)
	assert.Equal(t, lowID, lockOrder[0])
	assert.Equal(t, highID, lockOrder[1])

	// balances still moved in the requested direction
	assert.True(t, highCard.Balance.Equal(decimal.RequireFromString("900.00")))
	assert.True(t, lowCard.Balance.Equal(decimal.RequireFromString("1100.00")))
}

func TestTransfer_RejectsNonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	engine, uow := newTestEngine()

	_, err := engine.Transfer(ctx, uuid.New(), uuid.New(), decimal.Zero, "ivan")
	assert.Error(t, err)

	_, err = engine.Transfer(ctx, uuid.New(), uuid.New(), decimal.NewFromInt(-5), "ivan")
	assert.Error(t, err)

	uow.cards.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything)
}

func TestTransfer_RejectsSameCard(t *testing.T) {
	ctx := context.Background()
	engine, uow := newTestEngine()

	id := uuid.New()
	_, err := engine.Transfer(ctx, id, id, decimal.NewFromInt(100), "ivan")
	assert.Error(t, err)
	uow.cards.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything)
}

func TestTransfer_LedgerWriteFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	engine, uow := newTestEngine()

	fromID := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	toID := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000002")

	uow.cards.On("GetByIDForUpdate", ctx, fromID).Return(ownedCard(fromID, "ivan", "1000.00"), nil)
	uow.cards.On("GetByIDForUpdate", ctx, toID).Return(ownedCard(toID, "ivan", "1000.00"), nil)
	uow.cards.On("UpdateBalance", ctx, mock.Anything, mock.Anything).Return(nil)

	boom := errors.New("ledger unavailable")
	uow.transactions.On("Create", ctx, mock.Anything).Return(boom)

	_, err := engine.Transfer(ctx, fromID, toID, decimal.NewFromInt(100), "ivan")
	assert.ErrorIs(t, err, boom)

	// the unit of work must not commit a transfer whose ledger write
	// failed; balance mutations die with the rollback
	assert.True(t, uow.rolledBack)
	assert.False(t, uow.committed)
}
