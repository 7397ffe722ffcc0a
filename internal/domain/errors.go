package domain

import "errors"

// Error kinds surfaced by the core. The transport adapter maps each
// kind to a status code; the core raises them at the point of
// detection and never retries.
var (
	// ErrNotFound signals that a card or holder does not exist
	ErrNotFound = errors.New("not found")

	// ErrStatusConflict signals a redundant status transition: the
	// card is already in the requested status. Modeled as its own
	// kind, distinct from identity collisions.
	ErrStatusConflict = errors.New("card already in requested status")

	// ErrForbidden signals an ownership mismatch on a card-scoped
	// operation
	ErrForbidden = errors.New("forbidden")

	// ErrInsufficientBalance signals a transfer amount exceeding the
	// source card balance
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrAlreadyExists signals a username collision at registration
	ErrAlreadyExists = errors.New("already exists")
)
