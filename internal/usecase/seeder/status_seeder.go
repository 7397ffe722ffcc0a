package seeder

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ovolkov/bankcards-backend/internal/domain"
)

// Fixed UUIDs for the card status reference rows. The IDs are part of
// the schema contract and never change.
var (
	StatusActiveID  = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	StatusBlockedID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	StatusExpiredID = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

// StatusSeeder installs the closed card status set at startup
type StatusSeeder struct {
	repo domain.CardStatusRepository
}

// NewStatusSeeder creates a new StatusSeeder instance
func NewStatusSeeder(repo domain.CardStatusRepository) *StatusSeeder {
	return &StatusSeeder{repo: repo}
}

// Seed ensures all card status rows exist, creating any that are
// missing. Existing rows are left untouched.
func (s *StatusSeeder) Seed(ctx context.Context) error {
	statuses := []domain.CardStatus{
		{ID: StatusActiveID, Name: domain.CardStatusActive},
		{ID: StatusBlockedID, Name: domain.CardStatusBlocked},
		{ID: StatusExpiredID, Name: domain.CardStatusExpired},
	}

	for _, status := range statuses {
		_, err := s.repo.GetByID(ctx, status.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		st := status
		if err := s.repo.Create(ctx, &st); err != nil {
			return err
		}
	}

	return nil
}
