// File: internal/usecase/generation_uc.go
package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"question-bank-service/internal/domain"
	"question-bank-service/internal/domain/model"
	"question-bank-service/internal/domain/ports/adapter"
	"question-bank-service/internal/domain/ports/repository"
	"question-bank-service/internal/infra/metrics"
	redisinfra "question-bank-service/internal/infra/redis"
)

// Compile-time check
var _ GenerationUseCase = (*generationUC)(nil)

type GenerationUseCase interface {
	// Submit registers a generation job and returns it in 'pending' state.
	// The worker pool picks it up asynchronously.
	Submit(ctx context.Context, sessionID, sourceID string, params model.GenerationParams) (*model.GenerationJob, error)
	Status(ctx context.Context, sessionID string) (*model.GenerationJob, error)
	ListModels(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (map[string]int, error)
}

type generationUC struct {
	jobs       repository.GenerationJobRepository
	cache      *redisinfra.StatusCache
	limiter    *redisinfra.RateLimiter
	ai         adapter.AIServiceAdapter
	rateLimit  int
	rateWindow time.Duration
	devMode    bool
	log        *zerolog.Logger
}

func NewGenerationUseCase(
	jobs repository.GenerationJobRepository,
	cache *redisinfra.StatusCache,
	limiter *redisinfra.RateLimiter,
	ai adapter.AIServiceAdapter,
	rateLimit int,
	rateWindow time.Duration,
	devMode bool,
	log *zerolog.Logger,
) *generationUC {
	return &generationUC{
		jobs:       jobs,
		cache:      cache,
		limiter:    limiter,
		ai:         ai,
		rateLimit:  rateLimit,
		rateWindow: rateWindow,
		devMode:    devMode,
		log:        log,
	}
}

func (g *generationUC) Submit(ctx context.Context, sessionID, sourceID string, params model.GenerationParams) (*model.GenerationJob, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	// Flat per-source limit; skipped in dev so local loops aren't throttled.
	if !g.devMode && g.limiter != nil && g.rateLimit > 0 {
		ok, err := g.limiter.Allow(ctx, redisinfra.SourceGenerateKey(sourceID), g.rateLimit, g.rateWindow)
		if err != nil {
			g.log.Warn().Err(err).Msg("rate limiter unavailable, allowing request")
		} else if !ok {
			return nil, domain.ErrRateLimited
		}
	}

	job := model.NewGenerationJob(sessionID, sourceID, params)
	if err := g.jobs.Create(ctx, nil, job); err != nil {
		return nil, err
	}
	metrics.IncJobSubmitted()

	if g.cache != nil {
		if err := g.cache.Store(ctx, job); err != nil {
			g.log.Warn().Err(err).Str("session_id", sessionID).Msg("status cache store failed")
		}
	}
	return job, nil
}

func (g *generationUC) Status(ctx context.Context, sessionID string) (*model.GenerationJob, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, domain.ErrInvalidArgument
	}

	if g.cache != nil {
		if job, err := g.cache.Get(ctx, sessionID); err == nil {
			return job, nil
		}
	}

	job, err := g.jobs.FindBySessionID(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	if g.cache != nil {
		_ = g.cache.Store(ctx, job)
	}
	return job, nil
}

func (g *generationUC) ListModels(ctx context.Context) ([]string, error) {
	return g.ai.ListModels(ctx)
}

func (g *generationUC) Stats(ctx context.Context) (map[string]int, error) {
	return g.jobs.CountByStatus(ctx, nil)
}
