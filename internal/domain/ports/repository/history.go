package repository

import (
	"context"
	"time"

	"question-bank-service/internal/domain/model"
)

type HistoryRepository interface {
	Save(ctx context.Context, tx Tx, rec *model.HistoryRecord) error
	FindBySessionID(ctx context.Context, tx Tx, sessionID string) (*model.HistoryRecord, error)
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.HistoryRecord, error)
	Count(ctx context.Context, tx Tx) (int, error)

	// DeleteOlderThan removes terminal records whose completion predates cutoff.
	// Returns the number of rows removed.
	DeleteOlderThan(ctx context.Context, tx Tx, cutoff time.Time) (int64, error)
}
