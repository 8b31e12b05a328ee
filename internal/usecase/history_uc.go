// File: internal/usecase/history_uc.go
package usecase

import (
	"context"
	"time"

	"question-bank-service/internal/domain/model"
	"question-bank-service/internal/domain/ports/repository"
)

// Compile-time check
var _ HistoryUseCase = (*historyUC)(nil)

type HistoryUseCase interface {
	Record(ctx context.Context, job *model.GenerationJob) error
	Get(ctx context.Context, sessionID string) (*model.HistoryRecord, error)
	List(ctx context.Context, page, pageSize int) ([]*model.HistoryRecord, int, error)
	// Purge removes terminal records older than the retention cutoff and
	// returns how many were deleted.
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

type historyUC struct {
	history repository.HistoryRepository
}

func NewHistoryUseCase(history repository.HistoryRepository) *historyUC {
	return &historyUC{history: history}
}

func (h *historyUC) Record(ctx context.Context, job *model.GenerationJob) error {
	rec := model.HistoryFromJob(job)
	return h.history.Save(ctx, nil, rec)
}

func (h *historyUC) Get(ctx context.Context, sessionID string) (*model.HistoryRecord, error) {
	return h.history.FindBySessionID(ctx, nil, sessionID)
}

func (h *historyUC) List(ctx context.Context, page, pageSize int) ([]*model.HistoryRecord, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	total, err := h.history.Count(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	records, err := h.history.List(ctx, nil, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (h *historyUC) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	return h.history.DeleteOlderThan(ctx, nil, cutoff)
}
