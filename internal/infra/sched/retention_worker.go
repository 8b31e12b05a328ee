package sched

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"question-bank-service/internal/usecase"
)

// RetentionWorker prunes terminal history records past the retention window
// on a cron schedule.
type RetentionWorker struct {
	schedule  string // standard 5-field cron spec, e.g. "0 3 * * *"
	retention time.Duration
	history   usecase.HistoryUseCase
	cron      *cron.Cron
	log       *zerolog.Logger
}

func NewRetentionWorker(schedule string, retentionDays int, history usecase.HistoryUseCase, logger *zerolog.Logger) *RetentionWorker {
	retLog := logger.With().Str("component", "RetentionWorker").Logger()
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &RetentionWorker{
		schedule:  schedule,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		history:   history,
		log:       &retLog,
	}
}

// Start registers the sweep job and starts the cron runner. It returns an
// error only when the schedule spec does not parse.
func (w *RetentionWorker) Start(ctx context.Context) error {
	w.cron = cron.New()
	_, err := w.cron.AddFunc(w.schedule, func() { w.sweep(ctx) })
	if err != nil {
		return err
	}
	w.cron.Start()
	w.log.Info().Str("schedule", w.schedule).Dur("retention", w.retention).Msg("retention worker started")
	return nil
}

func (w *RetentionWorker) Stop() {
	if w.cron != nil {
		<-w.cron.Stop().Done()
	}
	w.log.Info().Msg("retention worker stopped")
}

func (w *RetentionWorker) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-w.retention)
	n, err := w.history.Purge(ctx, cutoff)
	if err != nil {
		w.log.Error().Err(err).Msg("retention sweep failed")
		return
	}
	if n > 0 {
		w.log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("history records pruned")
	}
}
