package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"pcred/internal/domain/ports/repository"
	"pcred/internal/infra/metrics"
)

// PurgeWorker periodically removes expired unused codes. Reads already purge
// lazily; the worker keeps the store from accumulating garbage between reads.
type PurgeWorker struct {
	interval time.Duration
	codes    repository.CodeRepository
	log      *zerolog.Logger
}

func NewPurgeWorker(interval time.Duration, codes repository.CodeRepository, logger *zerolog.Logger) *PurgeWorker {
	l := logger.With().Str("component", "PurgeWorker").Logger()
	return &PurgeWorker{interval: interval, codes: codes, log: &l}
}

func (w *PurgeWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting purge worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping purge worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.codes.PurgeExpired(ctx, nil, time.Now())
			if err != nil {
				w.log.Error().Err(err).Msg("purge worker error")
				continue
			}
			if n > 0 {
				metrics.AddCodesPurged(n)
				w.log.Info().Int("count", n).Msg("expired codes purged")
			}
		}
	}
}
