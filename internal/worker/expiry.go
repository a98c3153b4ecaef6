package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tourney-pay/internal/domain"
	"tourney-pay/internal/metrics"
	"tourney-pay/internal/repo"
)

const sweepBatchSize = 100

// ExpirySweep terminates PENDING attempts that have aged past the timeout,
// so an abandoned checkout never stays pending forever. It shares the
// conditional update with the webhook path, so whichever of the two reaches
// a row first wins and the other no-ops.
type ExpirySweep struct {
	attempts repo.AttemptRepo
	timeout  time.Duration
	interval time.Duration
	counters *metrics.Counters
	logger   *zap.Logger
}

func NewExpirySweep(
	attempts repo.AttemptRepo,
	timeout, interval time.Duration,
	counters *metrics.Counters,
	logger *zap.Logger,
) *ExpirySweep {
	return &ExpirySweep{
		attempts: attempts,
		timeout:  timeout,
		interval: interval,
		counters: counters,
		logger:   logger,
	}
}

func (s *ExpirySweep) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("expiry sweep started",
		zap.Duration("timeout", s.timeout),
		zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error("expiry sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep runs one tick. Exported so the scheduler collaborator (or a test)
// can invoke "run now" directly.
func (s *ExpirySweep) Sweep(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.timeout)
	stale, err := s.attempts.FindPendingBefore(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return err
	}

	for _, attempt := range stale {
		changed, err := s.attempts.UpdateStatusIfPending(ctx, attempt.ID, domain.AttemptFailed)
		if err != nil {
			s.logger.Error("failed to expire attempt",
				zap.String("attempt_id", attempt.ID.String()), zap.Error(err))
			continue
		}
		if changed == 0 {
			// A webhook landed between the select and the update. Its word
			// stands.
			continue
		}
		s.counters.AttemptsExpired.Inc()
		s.logger.Info("expired stale attempt",
			zap.String("attempt_id", attempt.ID.String()),
			zap.String("provider", attempt.Provider),
			zap.Time("created_at", attempt.CreatedAt))
	}
	return nil
}
