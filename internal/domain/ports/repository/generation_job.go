package repository

import (
	"context"

	"question-bank-service/internal/domain/model"
)

type GenerationJobRepository interface {
	// Create inserts a new job; domain.ErrAlreadyExists when the session id is taken.
	Create(ctx context.Context, tx Tx, job *model.GenerationJob) error

	// Save upserts the current job state (status, result, error, timestamps).
	Save(ctx context.Context, tx Tx, job *model.GenerationJob) error

	// FindBySessionID returns a copy of the job; domain.ErrNotFound when unknown.
	FindBySessionID(ctx context.Context, tx Tx, sessionID string) (*model.GenerationJob, error)

	// FetchAndMarkInProgress atomically claims the oldest pending job and marks
	// it 'in_progress' so no other worker picks it up.
	FetchAndMarkInProgress(ctx context.Context) (*model.GenerationJob, error)

	// CountByStatus powers the admin stats endpoint.
	CountByStatus(ctx context.Context, tx Tx) (map[string]int, error)
}
