package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrJobTerminal        = errors.New("job already reached a terminal state")
	ErrGenerationInFlight = errors.New("generation already in flight for session")
	ErrEmptyResult        = errors.New("model returned no questions")
	ErrRateLimited        = errors.New("too many generation requests")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")
)
