// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"question-bank-service/internal/domain"
	"question-bank-service/internal/domain/model"
	"question-bank-service/internal/domain/ports/adapter"
	"question-bank-service/internal/domain/ports/repository"
)

// memJobRepo is a small in-memory implementation used by unit tests.
type memJobRepo struct {
	mu        sync.RWMutex
	store     map[string]*model.GenerationJob // by session id
	createErr error                           // used by tests to simulate failures
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{store: make(map[string]*model.GenerationJob)}
}

func (m *memJobRepo) Create(ctx context.Context, _ repository.Tx, job *model.GenerationJob) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[job.SessionID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *job
	m.store[job.SessionID] = &cp
	return nil
}

func (m *memJobRepo) Save(ctx context.Context, _ repository.Tx, job *model.GenerationJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.store[job.SessionID] = &cp
	return nil
}

func (m *memJobRepo) FindBySessionID(ctx context.Context, _ repository.Tx, sessionID string) (*model.GenerationJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.store[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) FetchAndMarkInProgress(ctx context.Context) (*model.GenerationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.store))
	for id := range m.store {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool {
		return m.store[ids[a]].CreatedAt.Before(m.store[ids[b]].CreatedAt)
	})
	for _, id := range ids {
		j := m.store[id]
		if j.Status != model.JobStatusPending {
			continue
		}
		if err := j.Transition(model.JobStatusInProgress); err != nil {
			return nil, err
		}
		cp := *j
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memJobRepo) CountByStatus(ctx context.Context, _ repository.Tx) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int)
	for _, j := range m.store {
		out[string(j.Status)]++
	}
	return out, nil
}

// memHistoryRepo keeps history records in memory.
type memHistoryRepo struct {
	mu    sync.RWMutex
	store map[string]*model.HistoryRecord
}

func newMemHistoryRepo() *memHistoryRepo {
	return &memHistoryRepo{store: make(map[string]*model.HistoryRecord)}
}

func (m *memHistoryRepo) Save(ctx context.Context, _ repository.Tx, rec *model.HistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.store[rec.SessionID] = &cp
	return nil
}

func (m *memHistoryRepo) FindBySessionID(ctx context.Context, _ repository.Tx, sessionID string) (*model.HistoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.store[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memHistoryRepo) List(ctx context.Context, _ repository.Tx, offset, limit int) ([]*model.HistoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]*model.HistoryRecord, 0, len(m.store))
	for _, r := range m.store {
		cp := *r
		all = append(all, &cp)
	}
	sort.Slice(all, func(a, b int) bool { return all[a].CreatedAt.After(all[b].CreatedAt) })

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *memHistoryRepo) Count(ctx context.Context, _ repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store), nil
}

func (m *memHistoryRepo) DeleteOlderThan(ctx context.Context, _ repository.Tx, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, r := range m.store {
		if r.CompletedAt != nil && r.CompletedAt.Before(cutoff) {
			delete(m.store, id)
			n++
		}
	}
	return n, nil
}

// fakeAI returns a fixed reply and records calls.
type fakeAI struct {
	mu      sync.Mutex
	reply   string
	chatErr error
	calls   int
	models  []string
}

func (f *fakeAI) ListModels(ctx context.Context) ([]string, error) {
	if f.models != nil {
		return f.models, nil
	}
	return []string{"fake-model"}, nil
}

func (f *fakeAI) GetModelInfo(model string) (adapter.ModelInfo, error) {
	return adapter.ModelInfo{Name: model}, nil
}

func (f *fakeAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	n := 0
	for _, m := range messages {
		n += len(m.Content) / 4
	}
	return n, nil
}

func (f *fakeAI) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	reply, _, err := f.ChatWithUsage(ctx, model, messages)
	return reply, err
}

func (f *fakeAI) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.chatErr != nil {
		return "", adapter.Usage{}, f.chatErr
	}
	return f.reply, adapter.Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30}, nil
}
