package entities

import "errors"

// Domain errors
var (
	// ErrDuplicateIngestionKey is returned when another delivery already stored the key
	ErrDuplicateIngestionKey = errors.New("ingestion key already stored")

	ErrUserNotFound = errors.New("user not found")
)
