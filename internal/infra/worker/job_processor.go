// File: internal/infra/worker/job_processor.go
package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"question-bank-service/internal/domain"
	"question-bank-service/internal/domain/model"
	"question-bank-service/internal/domain/ports/adapter"
	"question-bank-service/internal/domain/ports/repository"
	"question-bank-service/internal/generate"
	"question-bank-service/internal/infra/metrics"
	redisinfra "question-bank-service/internal/infra/redis"
	"question-bank-service/internal/usecase"
)

// maxChatAttempts bounds provider retries for one job before it fails.
const maxChatAttempts = 3

// GenerationProcessor drains pending generation jobs: it claims one from the
// queue, retrieves source passages, calls the model and persists the outcome.
type GenerationProcessor struct {
	jobs        repository.GenerationJobRepository
	history     usecase.HistoryUseCase
	retriever   adapter.ContentRetriever
	ai          adapter.AIServiceAdapter
	locker      redisinfra.Locker
	cache       *redisinfra.StatusCache
	pollEvery   time.Duration
	jobTimeout  time.Duration
	log         *zerolog.Logger
}

func NewGenerationProcessor(
	jobs repository.GenerationJobRepository,
	history usecase.HistoryUseCase,
	retriever adapter.ContentRetriever,
	ai adapter.AIServiceAdapter,
	locker redisinfra.Locker,
	cache *redisinfra.StatusCache,
	pollEvery, jobTimeout time.Duration,
	log *zerolog.Logger,
) *GenerationProcessor {
	if pollEvery <= 0 {
		pollEvery = 500 * time.Millisecond
	}
	if jobTimeout <= 0 {
		jobTimeout = 2 * time.Minute
	}
	return &GenerationProcessor{
		jobs:       jobs,
		history:    history,
		retriever:  retriever,
		ai:         ai,
		locker:     locker,
		cache:      cache,
		pollEvery:  pollEvery,
		jobTimeout: jobTimeout,
		log:        log,
	}
}

// Start runs the poll loop until ctx is cancelled. Run it in a goroutine.
func (p *GenerationProcessor) Start(ctx context.Context, pool *Pool) {
	p.log.Info().Dur("poll_interval", p.pollEvery).Msg("generation processor started")
	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("generation processor stopping")
			return
		case <-ticker.C:
			_ = pool.Submit(func(ctx context.Context) error {
				p.processOne(ctx)
				return nil
			})
		}
	}
}

func (p *GenerationProcessor) processOne(ctx context.Context) {
	job, err := p.jobs.FetchAndMarkInProgress(ctx)
	if err != nil {
		if err != domain.ErrNotFound {
			p.log.Error().Err(err).Msg("failed to fetch generation job")
		}
		return
	}

	log := p.log.With().Str("session_id", job.SessionID).Str("source_id", job.SourceID).Logger()
	log.Info().Msg("processing generation job")
	start := time.Now()

	// One runner per session even if the claim query raced.
	token, err := p.locker.TryLock(ctx, redisinfra.SessionLockKey(job.SessionID), p.jobTimeout)
	if err != nil {
		log.Warn().Err(err).Msg("session already being generated, failing duplicate claim")
		p.finish(ctx, job, nil, err)
		return
	}
	defer func() {
		_ = p.locker.Unlock(context.Background(), redisinfra.SessionLockKey(job.SessionID), token)
	}()

	runCtx, cancel := context.WithTimeout(ctx, p.jobTimeout)
	defer cancel()

	result, err := p.handleJob(runCtx, job)
	p.finish(ctx, job, result, err)

	log.Info().
		Str("status", string(job.Status)).
		Dur("duration", time.Since(start)).
		Msg("generation job finished")
	metrics.IncJobProcessed(string(job.Status))
	metrics.ObserveJobDuration(time.Since(job.CreatedAt).Seconds())
}

// finish moves the job to its terminal state and persists everything that
// hangs off it. The final write uses a background context so a cancelled run
// still records its outcome.
func (p *GenerationProcessor) finish(ctx context.Context, job *model.GenerationJob, result *model.QuestionSet, runErr error) {
	if runErr != nil {
		p.log.Error().Err(runErr).Str("session_id", job.SessionID).Msg("generation job failed")
		_ = job.Fail(runErr.Error())
	} else {
		_ = job.Complete(result)
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.jobs.Save(saveCtx, nil, job); err != nil {
		p.log.Error().Err(err).Str("session_id", job.SessionID).Msg("failed to save job outcome")
		return
	}
	if err := p.history.Record(saveCtx, job); err != nil {
		p.log.Error().Err(err).Str("session_id", job.SessionID).Msg("failed to record history")
	}
	if p.cache != nil {
		if err := p.cache.Store(saveCtx, job); err != nil {
			p.log.Warn().Err(err).Str("session_id", job.SessionID).Msg("status cache refresh failed")
		}
	}
}

// handleJob contains the core logic for a single job.
func (p *GenerationProcessor) handleJob(ctx context.Context, job *model.GenerationJob) (*model.QuestionSet, error) {
	passages, err := p.retriever.Retrieve(ctx, adapter.RetrievalQuery{
		ContentID:          job.Params.ContentID,
		ChapterName:        job.Params.ChapterName,
		LearningObjectives: job.Params.LearningObjectives,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve passages: %w", err)
	}
	if len(passages) == 0 {
		return nil, fmt.Errorf("content %s: %w", job.Params.ContentID, domain.ErrEmptyResult)
	}

	messages, err := generate.BuildMessages(job.Params, passages)
	if err != nil {
		return nil, err
	}

	if n, err := p.ai.CountTokens(ctx, job.Params.Model, messages); err == nil {
		p.log.Debug().Str("session_id", job.SessionID).Int("prompt_tokens", n).Msg("prompt sized")
	}

	reply, usage, err := p.chatWithRetry(ctx, job, messages)
	if err != nil {
		return nil, fmt.Errorf("ai adapter failed: %w", err)
	}

	modelName := job.Params.Model
	if modelName == "" {
		modelName = "default"
	}
	set, err := generate.ParseReply(job.SessionID, modelName, reply)
	if err != nil {
		return nil, err
	}
	p.log.Info().
		Str("session_id", job.SessionID).
		Int("questions", set.Count()).
		Int("total_tokens", usage.TotalTokens).
		Msg("questions generated")
	return set, nil
}

// chatWithRetry retries transient provider errors with a short backoff,
// bumping job.Retries so the count survives in the job record.
func (p *GenerationProcessor) chatWithRetry(ctx context.Context, job *model.GenerationJob, messages []adapter.Message) (string, adapter.Usage, error) {
	var lastErr error
	for attempt := 0; attempt < maxChatAttempts; attempt++ {
		if attempt > 0 {
			job.Retries++
			select {
			case <-ctx.Done():
				return "", adapter.Usage{}, ctx.Err()
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			}
		}

		callStart := time.Now()
		reply, usage, err := p.ai.ChatWithUsage(ctx, job.Params.Model, messages)
		latency := int(time.Since(callStart) / time.Millisecond)

		if err != nil {
			metrics.ObserveAIUsage(providerOf(job.Params.Model), job.Params.Model, 0, 0, 0, latency, false)
			lastErr = err
			if ctx.Err() != nil {
				return "", adapter.Usage{}, err
			}
			continue
		}

		metrics.ObserveAIUsage(
			providerOf(job.Params.Model), job.Params.Model,
			usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens,
			latency, true,
		)
		return reply, usage, nil
	}
	return "", adapter.Usage{}, lastErr
}

func providerOf(model string) string {
	l := strings.ToLower(model)
	switch {
	case strings.HasPrefix(l, "gemini"):
		return "gemini"
	case strings.HasPrefix(l, "gpt"):
		return "openai"
	default:
		return "default"
	}
}
