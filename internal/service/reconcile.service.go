package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"tourney-pay/internal/domain"
	"tourney-pay/internal/identity"
	"tourney-pay/internal/metrics"
	"tourney-pay/internal/repo"
)

// ApprovedEvent is the normalized form of a provider's "transaction approved"
// webhook, after authentication and parsing.
type ApprovedEvent struct {
	Provider      string
	Reference     string
	CustomerEmail string
}

// Outcome says what an approved event did to the store. Every outcome is
// acknowledged to the provider the same way; these exist for logs and
// counters.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeUnmatched Outcome = "unmatched"
	OutcomeAmbiguous Outcome = "ambiguous"
)

type ReconcileService interface {
	ApplyApproved(ctx context.Context, event ApprovedEvent) (Outcome, error)
}

type reconcileService struct {
	attempts repo.AttemptRepo
	verifier identity.Verifier
	counters *metrics.Counters
	logger   *zap.Logger
}

func NewReconcileService(
	attempts repo.AttemptRepo,
	verifier identity.Verifier,
	counters *metrics.Counters,
	logger *zap.Logger,
) ReconcileService {
	return &reconcileService{
		attempts: attempts,
		verifier: verifier,
		counters: counters,
		logger:   logger,
	}
}

// ApplyApproved resolves the event to a payment attempt and applies the
// PENDING -> SUCCEEDED transition. Resolution by external reference whenever
// the provider supplies one; matching by customer contact is a degraded
// fallback that refuses to guess between multiple pending attempts.
func (s *reconcileService) ApplyApproved(ctx context.Context, event ApprovedEvent) (Outcome, error) {
	if event.Reference != "" {
		return s.applyByReference(ctx, event)
	}
	return s.applyByOwnerFallback(ctx, event)
}

func (s *reconcileService) applyByReference(ctx context.Context, event ApprovedEvent) (Outcome, error) {
	attempt, err := s.attempts.FindByRef(ctx, event.Provider, event.Reference)
	if errors.Is(err, domain.ErrNotFound) {
		s.counters.WebhooksUnmatched.WithLabelValues(event.Provider).Inc()
		s.logger.Warn("webhook references unknown transaction",
			zap.String("provider", event.Provider),
			zap.String("external_ref", event.Reference))
		return OutcomeUnmatched, nil
	}
	if err != nil {
		return "", err
	}
	return s.transition(ctx, event.Provider, attempt)
}

func (s *reconcileService) applyByOwnerFallback(ctx context.Context, event ApprovedEvent) (Outcome, error) {
	if event.CustomerEmail == "" {
		s.counters.WebhooksUnmatched.WithLabelValues(event.Provider).Inc()
		s.logger.Warn("webhook carries neither reference nor customer contact",
			zap.String("provider", event.Provider))
		return OutcomeUnmatched, nil
	}

	ownerID, err := s.verifier.ResolveEmail(ctx, event.CustomerEmail)
	if errors.Is(err, domain.ErrNotFound) {
		s.counters.WebhooksUnmatched.WithLabelValues(event.Provider).Inc()
		s.logger.Warn("webhook customer contact matches no account",
			zap.String("provider", event.Provider))
		return OutcomeUnmatched, nil
	}
	if err != nil {
		return "", err
	}

	pending, err := s.attempts.FindPendingByOwner(ctx, ownerID)
	if err != nil {
		return "", err
	}

	switch len(pending) {
	case 0:
		s.counters.WebhooksUnmatched.WithLabelValues(event.Provider).Inc()
		s.logger.Warn("owner has no pending attempt for fallback match",
			zap.String("provider", event.Provider),
			zap.String("owner_id", ownerID.String()))
		return OutcomeUnmatched, nil
	case 1:
		return s.transition(ctx, event.Provider, &pending[0])
	default:
		// Guessing here could credit the wrong tournament. Refuse, log, and
		// let an operator reconcile by hand.
		s.counters.WebhooksAmbiguous.WithLabelValues(event.Provider).Inc()
		s.logger.Warn("ambiguous fallback match, refusing to pick",
			zap.String("provider", event.Provider),
			zap.String("owner_id", ownerID.String()),
			zap.Int("pending_candidates", len(pending)))
		return OutcomeAmbiguous, nil
	}
}

func (s *reconcileService) transition(ctx context.Context, providerName string, attempt *domain.PaymentAttempt) (Outcome, error) {
	changed, err := s.attempts.UpdateStatusIfPending(ctx, attempt.ID, domain.AttemptSucceeded)
	if err != nil {
		return "", err
	}
	if changed == 0 {
		// Already terminal: a prior delivery or the expiry sweep got there
		// first. Nothing to re-apply.
		s.counters.WebhooksDuplicate.WithLabelValues(providerName).Inc()
		s.logger.Info("webhook for already-resolved attempt",
			zap.String("provider", providerName),
			zap.String("attempt_id", attempt.ID.String()))
		return OutcomeDuplicate, nil
	}

	s.counters.WebhooksApplied.WithLabelValues(providerName).Inc()
	s.logger.Info("payment attempt succeeded",
		zap.String("provider", providerName),
		zap.String("attempt_id", attempt.ID.String()),
		zap.String("external_ref", attempt.ExternalRef))
	return OutcomeApplied, nil
}
