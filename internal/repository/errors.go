package repository

import "errors"

var (
	// ErrNotFound is returned when a requested transaction does not exist.
	ErrNotFound = errors.New("transaction not found")

	// ErrInvalidTransition is returned when a commit would overwrite a
	// terminal transaction, or the requested status is not terminal.
	ErrInvalidTransition = errors.New("invalid transaction state transition")
)
