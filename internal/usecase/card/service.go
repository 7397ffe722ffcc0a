// Package card implements card issuance, lifecycle transitions and
// card-scoped read operations.
package card

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ovolkov/bankcards-backend/internal/domain"
	"github.com/ovolkov/bankcards-backend/internal/pan"
)

const (
	// cards are seeded with a fixed opening amount and five years of
	// validity, matching issuance policy
	openingBalanceUnits = 1000
	validityYears       = 5

	defaultPageSize = 10
	maxPageSize     = 100
)

// Service handles card issuance, status changes and card-scoped reads
type Service struct {
	CardRepo   domain.CardRepository
	StatusRepo domain.CardStatusRepository
	HolderRepo domain.HolderRepository
	Generator  *pan.Generator
	Cipher     *pan.Cipher
	Log        *logrus.Logger
}

// NewService creates a new card Service instance
func NewService(
	cardRepo domain.CardRepository,
	statusRepo domain.CardStatusRepository,
	holderRepo domain.HolderRepository,
	generator *pan.Generator,
	cipher *pan.Cipher,
	log *logrus.Logger,
) *Service {
	return &Service{
		CardRepo:   cardRepo,
		StatusRepo: statusRepo,
		HolderRepo: holderRepo,
		Generator:  generator,
		Cipher:     cipher,
		Log:        log,
	}
}

// IssueCard creates a new ACTIVE card for the holder. The PAN is
// generated, encrypted for storage, and only ever surfaced masked.
func (s *Service) IssueCard(ctx context.Context, holderID uuid.UUID) (*View, error) {
	holder, err := s.HolderRepo.GetByID(ctx, holderID)
	if err != nil {
		return nil, fmt.Errorf("holder %s: %w", holderID, err)
	}

	status, err := s.StatusRepo.GetByName(ctx, domain.CardStatusActive)
	if err != nil {
		return nil, err
	}

	plainPan, err := s.Generator.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate card number: %w", err)
	}

	encrypted, err := s.Cipher.Encrypt(plainPan)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt card number: %w", err)
	}
	lastFour := plainPan[len(plainPan)-4:]

	now := time.Now()
	card := &domain.Card{
		ID:              uuid.New(),
		NumberEncrypted: encrypted,
		LastFourDigits:  lastFour,
		HolderName:      holder.FullName,
		ExpiryDate:      now.AddDate(validityYears, 0, 0),
		Balance:         decimal.NewFromInt(openingBalanceUnits),
		Status:          *status,
		HolderID:        holder.ID,
		HolderUsername:  holder.Username,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	if err := s.CardRepo.Create(ctx, card); err != nil {
		return nil, err
	}

	s.Log.WithFields(logrus.Fields{
		"card":   pan.Mask(lastFour),
		"holder": holder.Username,
	}).Info("card issued")

	return s.view(card, "Card created"), nil
}

// ChangeStatus moves a card to the target status. Transitions are
// administratively unrestricted between the three statuses, but a
// no-op transition is rejected rather than silently accepted.
func (s *Service) ChangeStatus(ctx context.Context, cardID uuid.UUID, target domain.CardStatusName) (*View, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("unknown card status %q", target)
	}

	card, err := s.CardRepo.GetByID(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("card %s: %w", cardID, err)
	}

	if card.Status.Name == target {
		s.Log.WithField("card", cardID).Warnf("card already %s", target)
		return nil, fmt.Errorf("card is already %s: %w", target, domain.ErrStatusConflict)
	}

	status, err := s.StatusRepo.GetByName(ctx, target)
	if err != nil {
		return nil, err
	}

	if err := s.CardRepo.UpdateStatus(ctx, cardID, *status); err != nil {
		return nil, err
	}
	card.Status = *status

	s.Log.WithFields(logrus.Fields{
		"card":   cardID,
		"status": target,
	}).Info("card status changed")

	return s.view(card, "Status changed"), nil
}

// DeleteCard removes a card row unconditionally. Deleting a card with
// a nonzero balance discards the funds; that is an administrative
// escape hatch, so it is logged but not blocked.
func (s *Service) DeleteCard(ctx context.Context, cardID uuid.UUID) (string, error) {
	card, err := s.CardRepo.GetByID(ctx, cardID)
	if err != nil {
		return "", fmt.Errorf("card %s: %w", cardID, err)
	}

	if !card.Balance.IsZero() {
		s.Log.WithFields(logrus.Fields{
			"card":    cardID,
			"balance": card.Balance,
		}).Warn("deleting card with nonzero balance")
	}

	if err := s.CardRepo.Delete(ctx, cardID); err != nil {
		return "", err
	}

	s.Log.WithField("card", cardID).Info("card deleted")
	return "Card deleted", nil
}

// GetCard returns a single card view. Non-admin callers may only see
// their own cards.
func (s *Service) GetCard(ctx context.Context, cardID uuid.UUID, requestingUsername string, isAdmin bool) (*View, error) {
	card, err := s.CardRepo.GetByID(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("card %s: %w", cardID, err)
	}

	if !isAdmin && !card.OwnedBy(requestingUsername) {
		return nil, fmt.Errorf("you cannot view this card: %w", domain.ErrForbidden)
	}

	return s.view(card, "Card found"), nil
}

// SelfBlock lets a holder block their own card
func (s *Service) SelfBlock(ctx context.Context, cardID uuid.UUID, requestingUsername string) (string, error) {
	card, err := s.CardRepo.GetByID(ctx, cardID)
	if err != nil {
		return "", fmt.Errorf("card %s: %w", cardID, err)
	}

	if !card.OwnedBy(requestingUsername) {
		s.Log.WithFields(logrus.Fields{
			"card": cardID,
			"user": requestingUsername,
		}).Warn("attempt to block another holder's card")
		return "", fmt.Errorf("you cannot block this card: %w", domain.ErrForbidden)
	}

	if card.Status.Name == domain.CardStatusBlocked {
		return "", fmt.Errorf("card is already blocked: %w", domain.ErrStatusConflict)
	}

	blocked, err := s.StatusRepo.GetByName(ctx, domain.CardStatusBlocked)
	if err != nil {
		return "", err
	}

	if err := s.CardRepo.UpdateStatus(ctx, cardID, *blocked); err != nil {
		return "", err
	}

	s.Log.WithFields(logrus.Fields{
		"card": pan.Mask(card.LastFourDigits),
		"user": requestingUsername,
	}).Info("card blocked by holder")

	return "Card blocked", nil
}

// GetBalance returns the balance view of the caller's own card
func (s *Service) GetBalance(ctx context.Context, cardID uuid.UUID, requestingUsername string) (*BalanceView, error) {
	card, err := s.CardRepo.GetByID(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("card %s: %w", cardID, err)
	}

	if !card.OwnedBy(requestingUsername) {
		return nil, fmt.Errorf("you cannot view this card: %w", domain.ErrForbidden)
	}

	return &BalanceView{
		CardID:     card.ID,
		Balance:    card.Balance,
		HolderName: card.HolderName,
	}, nil
}

// ListCards returns one page of cards matching the query, each mapped
// through the masker. An empty q.Username is the admin listing of all
// cards.
func (s *Service) ListCards(ctx context.Context, q domain.ListCardsQuery) (*Page, error) {
	if q.Limit <= 0 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	cards, err := s.CardRepo.List(ctx, q)
	if err != nil {
		return nil, err
	}

	total, err := s.CardRepo.Count(ctx, q)
	if err != nil {
		return nil, err
	}

	content := make([]View, 0, len(cards))
	for _, c := range cards {
		content = append(content, *s.view(c, ""))
	}

	return &Page{
		Content:       content,
		Page:          q.Offset / q.Limit,
		Size:          q.Limit,
		TotalElements: total,
	}, nil
}

func (s *Service) view(c *domain.Card, message string) *View {
	return &View{
		Message:    message,
		ID:         c.ID,
		MaskedPan:  pan.Mask(c.LastFourDigits),
		HolderName: c.HolderName,
		ExpiryDate: c.ExpiryDate,
		Balance:    c.Balance,
		Status:     string(c.Status.Name),
		HolderID:   c.HolderID,
	}
}
