package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tourney-pay/internal/domain"
	"tourney-pay/internal/service"
)

func pendingAttempt(ownerID uuid.UUID, providerName, ref string, createdAt time.Time) domain.PaymentAttempt {
	return domain.PaymentAttempt{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		TournamentID:   uuid.New(),
		TournamentName: "Abuja Masters",
		Amount:         5000,
		Status:         domain.AttemptPending,
		ValidationCode: "CODE" + ref,
		ExternalRef:    ref,
		Provider:       providerName,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
}

func newReconciler(repo *fakeAttemptRepo, owners map[string]uuid.UUID) service.ReconcileService {
	return service.NewReconcileService(repo, &fakeVerifier{owners: owners}, newCounters(), zap.NewNop())
}

func TestApplyApproved_ByReference(t *testing.T) {
	repo := newFakeAttemptRepo()
	attempt := pendingAttempt(uuid.New(), "paystack", "ps_ref_1", time.Now().UTC())
	repo.put(attempt)
	svc := newReconciler(repo, nil)

	outcome, err := svc.ApplyApproved(context.Background(), service.ApprovedEvent{
		Provider:  "paystack",
		Reference: "ps_ref_1",
	})
	require.NoError(t, err)
	require.Equal(t, service.OutcomeApplied, outcome)

	got, err := repo.FindByID(context.Background(), attempt.ID)
	require.NoError(t, err)
	require.Equal(t, domain.AttemptSucceeded, got.Status)
}

func TestApplyApproved_RedeliveryIsIdempotent(t *testing.T) {
	repo := newFakeAttemptRepo()
	attempt := pendingAttempt(uuid.New(), "paystack", "ps_ref_1", time.Now().UTC())
	repo.put(attempt)
	svc := newReconciler(repo, nil)

	event := service.ApprovedEvent{Provider: "paystack", Reference: "ps_ref_1"}

	outcome, err := svc.ApplyApproved(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, service.OutcomeApplied, outcome)

	outcome, err = svc.ApplyApproved(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, service.OutcomeDuplicate, outcome)

	got, err := repo.FindByID(context.Background(), attempt.ID)
	require.NoError(t, err)
	require.Equal(t, domain.AttemptSucceeded, got.Status)
}

func TestApplyApproved_TerminalStateNeverChanges(t *testing.T) {
	repo := newFakeAttemptRepo()
	attempt := pendingAttempt(uuid.New(), "paystack", "ps_ref_1", time.Now().UTC())
	attempt.Status = domain.AttemptFailed // expired before the webhook arrived
	repo.put(attempt)
	svc := newReconciler(repo, nil)

	outcome, err := svc.ApplyApproved(context.Background(), service.ApprovedEvent{
		Provider:  "paystack",
		Reference: "ps_ref_1",
	})
	require.NoError(t, err)
	require.Equal(t, service.OutcomeDuplicate, outcome)

	got, err := repo.FindByID(context.Background(), attempt.ID)
	require.NoError(t, err)
	require.Equal(t, domain.AttemptFailed, got.Status)
}

func TestApplyApproved_UnknownReferenceIsNoOp(t *testing.T) {
	repo := newFakeAttemptRepo()
	svc := newReconciler(repo, nil)

	outcome, err := svc.ApplyApproved(context.Background(), service.ApprovedEvent{
		Provider:  "paystack",
		Reference: "never_seen",
	})
	require.NoError(t, err)
	require.Equal(t, service.OutcomeUnmatched, outcome)
}

func TestApplyApproved_FallbackMatchesSolePendingAttempt(t *testing.T) {
	ownerID := uuid.New()
	repo := newFakeAttemptRepo()
	attempt := pendingAttempt(ownerID, "fastpay", "fp_1", time.Now().UTC())
	repo.put(attempt)
	svc := newReconciler(repo, map[string]uuid.UUID{"player@example.com": ownerID})

	outcome, err := svc.ApplyApproved(context.Background(), service.ApprovedEvent{
		Provider:      "fastpay",
		CustomerEmail: "player@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, service.OutcomeApplied, outcome)

	got, err := repo.FindByID(context.Background(), attempt.ID)
	require.NoError(t, err)
	require.Equal(t, domain.AttemptSucceeded, got.Status)
}

func TestApplyApproved_FallbackRefusesAmbiguousMatch(t *testing.T) {
	ownerID := uuid.New()
	repo := newFakeAttemptRepo()
	first := pendingAttempt(ownerID, "fastpay", "fp_1", time.Now().UTC().Add(-time.Minute))
	second := pendingAttempt(ownerID, "fastpay", "fp_2", time.Now().UTC())
	repo.put(first)
	repo.put(second)
	svc := newReconciler(repo, map[string]uuid.UUID{"player@example.com": ownerID})

	outcome, err := svc.ApplyApproved(context.Background(), service.ApprovedEvent{
		Provider:      "fastpay",
		CustomerEmail: "player@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, service.OutcomeAmbiguous, outcome)

	// Neither attempt may be guessed at.
	for _, id := range []uuid.UUID{first.ID, second.ID} {
		got, err := repo.FindByID(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, domain.AttemptPending, got.Status)
	}
}

func TestApplyApproved_FallbackWithUnknownContactIsNoOp(t *testing.T) {
	repo := newFakeAttemptRepo()
	svc := newReconciler(repo, map[string]uuid.UUID{})

	outcome, err := svc.ApplyApproved(context.Background(), service.ApprovedEvent{
		Provider:      "fastpay",
		CustomerEmail: "stranger@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, service.OutcomeUnmatched, outcome)
}

func TestApplyApproved_NoReferenceNoContactIsNoOp(t *testing.T) {
	repo := newFakeAttemptRepo()
	svc := newReconciler(repo, nil)

	outcome, err := svc.ApplyApproved(context.Background(), service.ApprovedEvent{Provider: "fastpay"})
	require.NoError(t, err)
	require.Equal(t, service.OutcomeUnmatched, outcome)
}

func TestConditionalTransition_ConcurrentRacersSeeOneWinner(t *testing.T) {
	repo := newFakeAttemptRepo()
	attempt := pendingAttempt(uuid.New(), "paystack", "ps_race", time.Now().UTC())
	repo.put(attempt)

	var wg sync.WaitGroup
	results := make([]int64, 2)
	statuses := []domain.AttemptStatus{domain.AttemptSucceeded, domain.AttemptFailed}
	for i := range statuses {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			changed, err := repo.UpdateStatusIfPending(context.Background(), attempt.ID, statuses[i])
			require.NoError(t, err)
			results[i] = changed
		}(i)
	}
	wg.Wait()

	require.Equal(t, int64(1), results[0]+results[1], "exactly one racer must win")

	got, err := repo.FindByID(context.Background(), attempt.ID)
	require.NoError(t, err)
	require.True(t, got.Status.Terminal())
}
