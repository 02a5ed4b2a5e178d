package domain

import "errors"

// Sentinel errors for the mutation pipeline. These provide consistent,
// checkable errors for the rejection outcomes a request can produce.
var (
	// ErrUnauthorized means the caller does not hold the GM secret. Dropped
	// silently; observers never learn why a request was denied.
	ErrUnauthorized = errors.New("caller is not the game master")

	// ErrNotFound means the referenced entity ID resolves to nothing.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput means a payload failed validation, e.g. a malformed
	// numeric bar edit. Surfaced to the caller as an explicit rejection.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoChange means the operation would leave the state exactly as it
	// is. Such requests produce no history entry, no broadcast and no write.
	ErrNoChange = errors.New("no change")
)
