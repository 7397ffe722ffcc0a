// Package transfer implements the atomic funds-transfer protocol
// between two cards of the same holder, with its append-only ledger.
package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ovolkov/bankcards-backend/internal/domain"
)

// Result is the transfer outcome shape exposed to callers
type Result struct {
	TransactionID uuid.UUID                `json:"transactionId"`
	Status        domain.TransactionStatus `json:"status"`
	Message       string                   `json:"message"`
}

// Engine orchestrates balance moves between two cards. All steps of
// one transfer run inside a single store transaction: either both
// balance mutations and the ledger write land together or none do.
type Engine struct {
	UoW domain.UnitOfWork
	Log *logrus.Logger
}

// NewEngine creates a new transfer Engine instance
func NewEngine(uow domain.UnitOfWork, log *logrus.Logger) *Engine {
	return &Engine{UoW: uow, Log: log}
}

// Transfer moves amount from one card of requestingUsername to
// another. A rejected-for-balance attempt still commits one FAILED
// ledger entry; not-found and ownership rejections leave no trace.
func (e *Engine) Transfer(ctx context.Context, fromCardID, toCardID uuid.UUID, amount decimal.Decimal, requestingUsername string) (*Result, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("transfer amount must be positive")
	}
	if fromCardID == toCardID {
		return nil, errors.New("cannot transfer a card to itself")
	}

	var result *Result
	var insufficient error

	err := e.UoW.Do(ctx, func(repos domain.TxRepositories) error {
		fromCard, toCard, err := e.lockCards(ctx, repos.Cards(), fromCardID, toCardID)
		if err != nil {
			return err
		}

		e.Log.WithFields(logrus.Fields{
			"user": requestingUsername,
			"from": fromCardID,
			"to":   toCardID,
		}).Info("transfer initiated")

		if !fromCard.OwnedBy(requestingUsername) || !toCard.OwnedBy(requestingUsername) {
			e.Log.WithField("user", requestingUsername).Warn("transfer attempt on another holder's card")
			return fmt.Errorf("cards must belong to the same account holder: %w", domain.ErrForbidden)
		}

		if fromCard.Balance.LessThan(amount) {
			// the rejected attempt is still recorded: committing the
			// FAILED entry is the whole point of this branch
			entry, err := e.appendLedger(ctx, repos.Transactions(), fromCard, toCard, amount, domain.TransactionFailed)
			if err != nil {
				return err
			}

			e.Log.WithFields(logrus.Fields{
				"from":   fromCardID,
				"amount": amount,
			}).Warn("transfer rejected for insufficient balance")

			result = &Result{
				TransactionID: entry.ID,
				Status:        domain.TransactionFailed,
				Message:       "Insufficient balance",
			}
			insufficient = fmt.Errorf("insufficient balance for transfer: %w", domain.ErrInsufficientBalance)
			return nil
		}

		if err := fromCard.Debit(amount); err != nil {
			return err
		}
		toCard.Credit(amount)

		if err := repos.Cards().UpdateBalance(ctx, fromCard.ID, fromCard.Balance); err != nil {
			return err
		}
		if err := repos.Cards().UpdateBalance(ctx, toCard.ID, toCard.Balance); err != nil {
			return err
		}

		entry, err := e.appendLedger(ctx, repos.Transactions(), fromCard, toCard, amount, domain.TransactionSuccess)
		if err != nil {
			return err
		}

		e.Log.WithFields(logrus.Fields{
			"from":   fromCardID,
			"to":     toCardID,
			"amount": amount,
		}).Info("transfer completed")

		result = &Result{
			TransactionID: entry.ID,
			Status:        domain.TransactionSuccess,
			Message:       "Transfer completed successfully",
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if insufficient != nil {
		return result, insufficient
	}

	return result, nil
}

// lockCards loads both cards under row locks, taking the locks in
// ascending ID order so opposite-direction transfers cannot deadlock.
func (e *Engine) lockCards(ctx context.Context, cards domain.CardRepository, fromCardID, toCardID uuid.UUID) (*domain.Card, *domain.Card, error) {
	firstID, secondID := fromCardID, toCardID
	if bytes.Compare(toCardID[:], fromCardID[:]) < 0 {
		firstID, secondID = toCardID, fromCardID
	}

	load := func(id uuid.UUID) (*domain.Card, error) {
		c, err := cards.GetByIDForUpdate(ctx, id)
		if err != nil {
			side := "source"
			if id == toCardID {
				side = "destination"
			}
			return nil, fmt.Errorf("%s card %s: %w", side, id, err)
		}
		return c, nil
	}

	first, err := load(firstID)
	if err != nil {
		return nil, nil, err
	}
	second, err := load(secondID)
	if err != nil {
		return nil, nil, err
	}

	if first.ID == fromCardID {
		return first, second, nil
	}
	return second, first, nil
}

func (e *Engine) appendLedger(ctx context.Context, ledger domain.TransactionRepository, from, to *domain.Card, amount decimal.Decimal, status domain.TransactionStatus) (*domain.Transaction, error) {
	entry := &domain.Transaction{
		ID:         uuid.New(),
		FromCardID: from.ID,
		ToCardID:   to.ID,
		Amount:     amount,
		Status:     status,
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := ledger.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
