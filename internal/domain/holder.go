package domain

import "github.com/google/uuid"

// Role of an account holder principal
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// AccountHolder is the external identity entity referenced by cards.
// This core reads it to resolve holder names at issuance and to
// authorize card-scoped operations by username equality; it never
// mutates holder rows except through the registration collaborator.
type AccountHolder struct {
	ID           uuid.UUID
	Username     string
	FullName     string
	PasswordHash string
	Role         Role
	Enabled      bool
}
