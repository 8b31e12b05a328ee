package web

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"question-bank-service/internal/domain"
	"question-bank-service/internal/domain/model"
)

// fakeGenUC implements usecase.GenerationUseCase in memory.
type fakeGenUC struct {
	mu        sync.Mutex
	jobs      map[string]*model.GenerationJob
	submitErr error
	models    []string
}

func newFakeGenUC() *fakeGenUC {
	return &fakeGenUC{jobs: make(map[string]*model.GenerationJob), models: []string{"gpt-4o-mini"}}
}

func (f *fakeGenUC) Submit(ctx context.Context, sessionID, sourceID string, params model.GenerationParams) (*model.GenerationJob, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if _, ok := f.jobs[sessionID]; ok {
		return nil, domain.ErrAlreadyExists
	}
	job := model.NewGenerationJob(sessionID, sourceID, params)
	f.jobs[sessionID] = job
	return job, nil
}

func (f *fakeGenUC) Status(ctx context.Context, sessionID string) (*model.GenerationJob, error) {
	if sessionID == "" {
		return nil, domain.ErrInvalidArgument
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (f *fakeGenUC) ListModels(ctx context.Context) ([]string, error) {
	return f.models, nil
}

func (f *fakeGenUC) Stats(ctx context.Context) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]int{}
	for _, j := range f.jobs {
		out[string(j.Status)]++
	}
	return out, nil
}

// fakeHistoryUC implements usecase.HistoryUseCase in memory.
type fakeHistoryUC struct {
	mu    sync.Mutex
	store map[string]*model.HistoryRecord
}

func newFakeHistoryUC() *fakeHistoryUC {
	return &fakeHistoryUC{store: make(map[string]*model.HistoryRecord)}
}

func (f *fakeHistoryUC) Record(ctx context.Context, job *model.GenerationJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[job.SessionID] = model.HistoryFromJob(job)
	return nil
}

func (f *fakeHistoryUC) Get(ctx context.Context, sessionID string) (*model.HistoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.store[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func (f *fakeHistoryUC) List(ctx context.Context, page, pageSize int) ([]*model.HistoryRecord, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.HistoryRecord, 0, len(f.store))
	for _, rec := range f.store {
		out = append(out, rec)
	}
	return out, len(out), nil
}

func (f *fakeHistoryUC) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}
