package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ovolkov/bankcards-backend/internal/domain"
)

// uniqueViolation is the postgres error code for a unique constraint
const uniqueViolation = "23505"

// holderRepository implements domain.HolderRepository
type holderRepository struct {
	q querier
}

// NewHolderRepository creates a new holder repository
func NewHolderRepository(db *DB) domain.HolderRepository {
	return &holderRepository{q: db.DB}
}

// GetByID retrieves a holder by ID
func (r *holderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AccountHolder, error) {
	query := `
		SELECT id, username, full_name, password_hash, role, enabled
		FROM holders
		WHERE id = $1
	`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByUsername retrieves a holder by username
func (r *holderRepository) GetByUsername(ctx context.Context, username string) (*domain.AccountHolder, error) {
	query := `
		SELECT id, username, full_name, password_hash, role, enabled
		FROM holders
		WHERE username = $1
	`
	return r.scanOne(r.q.QueryRowContext(ctx, query, username))
}

// ExistsByUsername reports whether a holder with the username exists
func (r *holderRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM holders WHERE username = $1)`

	if err := r.q.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check holder existence: %w", err)
	}
	return exists, nil
}

// Create persists a new holder
func (r *holderRepository) Create(ctx context.Context, holder *domain.AccountHolder) error {
	query := `
		INSERT INTO holders (id, username, full_name, password_hash, role, enabled)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.ExecContext(ctx, query,
		holder.ID,
		holder.Username,
		holder.FullName,
		holder.PasswordHash,
		string(holder.Role),
		holder.Enabled,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return fmt.Errorf("username %s: %w", holder.Username, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create holder: %w", err)
	}

	return nil
}

func (r *holderRepository) scanOne(row *sql.Row) (*domain.AccountHolder, error) {
	var holder domain.AccountHolder
	var role string

	err := row.Scan(
		&holder.ID,
		&holder.Username,
		&holder.FullName,
		&holder.PasswordHash,
		&role,
		&holder.Enabled,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan holder: %w", err)
	}

	holder.Role = domain.Role(role)
	return &holder, nil
}
