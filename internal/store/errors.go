package store

import "errors"

var (
	// ErrRecordNotFound wraps GORM's not found error for consistency
	ErrRecordNotFound = errors.New("record not found")

	// ErrAlreadyConsumed is returned when an authorization code or refresh
	// token was revoked by a concurrent request (0 rows updated).
	ErrAlreadyConsumed = errors.New("grant artifact already consumed")

	// ErrClientRequired is returned when tokens are written without a client
	ErrClientRequired = errors.New("client id is required")
)
