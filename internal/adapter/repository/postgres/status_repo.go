package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ovolkov/bankcards-backend/internal/domain"
)

// statusRepository implements domain.CardStatusRepository
type statusRepository struct {
	q querier
}

// NewStatusRepository creates a new card status repository
func NewStatusRepository(db *DB) domain.CardStatusRepository {
	return &statusRepository{q: db.DB}
}

// GetByName retrieves a status row by its stable name
func (r *statusRepository) GetByName(ctx context.Context, name domain.CardStatusName) (*domain.CardStatus, error) {
	query := `SELECT id, name FROM card_statuses WHERE name = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, string(name)))
}

// GetByID retrieves a status row by its fixed ID
func (r *statusRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CardStatus, error) {
	query := `SELECT id, name FROM card_statuses WHERE id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// Create inserts a status row
func (r *statusRepository) Create(ctx context.Context, status *domain.CardStatus) error {
	query := `INSERT INTO card_statuses (id, name) VALUES ($1, $2)`

	if _, err := r.q.ExecContext(ctx, query, status.ID, string(status.Name)); err != nil {
		return fmt.Errorf("failed to create card status: %w", err)
	}
	return nil
}

func (r *statusRepository) scanOne(row *sql.Row) (*domain.CardStatus, error) {
	var status domain.CardStatus
	var name string

	if err := row.Scan(&status.ID, &name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan card status: %w", err)
	}

	status.Name = domain.CardStatusName(name)
	return &status, nil
}
