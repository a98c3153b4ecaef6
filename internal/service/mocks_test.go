package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"tourney-pay/internal/domain"
	"tourney-pay/internal/identity"
	"tourney-pay/internal/metrics"
	"tourney-pay/internal/provider"
)

// fakeAttemptRepo mirrors the store contract in memory, including the
// conditional-transition semantics the services rely on.
type fakeAttemptRepo struct {
	mu       sync.Mutex
	attempts map[uuid.UUID]*domain.PaymentAttempt
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{attempts: make(map[uuid.UUID]*domain.PaymentAttempt)}
}

func (f *fakeAttemptRepo) Create(_ context.Context, a *domain.PaymentAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.attempts[a.ID]; exists {
		return domain.ErrDuplicateID
	}
	clone := *a
	f.attempts[a.ID] = &clone
	return nil
}

func (f *fakeAttemptRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.PaymentAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (f *fakeAttemptRepo) FindByValidationCode(_ context.Context, code string) (*domain.PaymentAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attempts {
		if a.ValidationCode == code {
			clone := *a
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAttemptRepo) FindByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.PaymentAttempt, error) {
	return f.filter(func(a *domain.PaymentAttempt) bool { return a.OwnerID == ownerID }), nil
}

func (f *fakeAttemptRepo) FindByTournament(_ context.Context, tournamentID uuid.UUID) ([]domain.PaymentAttempt, error) {
	return f.filter(func(a *domain.PaymentAttempt) bool { return a.TournamentID == tournamentID }), nil
}

func (f *fakeAttemptRepo) FindByRef(_ context.Context, providerName, externalRef string) (*domain.PaymentAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attempts {
		if a.Provider == providerName && a.ExternalRef != "" && a.ExternalRef == externalRef {
			clone := *a
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAttemptRepo) FindPendingByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.PaymentAttempt, error) {
	return f.filter(func(a *domain.PaymentAttempt) bool {
		return a.OwnerID == ownerID && a.Status == domain.AttemptPending
	}), nil
}

func (f *fakeAttemptRepo) FindPendingBefore(_ context.Context, cutoff time.Time, limit int) ([]domain.PaymentAttempt, error) {
	out := f.filter(func(a *domain.PaymentAttempt) bool {
		return a.Status == domain.AttemptPending && a.CreatedAt.Before(cutoff)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeAttemptRepo) UpdateStatusIfPending(_ context.Context, id uuid.UUID, status domain.AttemptStatus) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok || a.Status != domain.AttemptPending {
		return 0, nil
	}
	a.Status = status
	a.UpdatedAt = time.Now().UTC()
	return 1, nil
}

func (f *fakeAttemptRepo) filter(keep func(*domain.PaymentAttempt) bool) []domain.PaymentAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.PaymentAttempt
	for _, a := range f.attempts {
		if keep(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeAttemptRepo) all() []domain.PaymentAttempt {
	return f.filter(func(*domain.PaymentAttempt) bool { return true })
}

func (f *fakeAttemptRepo) put(a domain.PaymentAttempt) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := a
	f.attempts[a.ID] = &clone
}

type fakeTournamentRepo struct {
	tournaments map[uuid.UUID]domain.Tournament
}

func (f *fakeTournamentRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Tournament, error) {
	t, ok := f.tournaments[id]
	if !ok {
		return nil, domain.ErrTournamentNotFound
	}
	return &t, nil
}

type fakeVerifier struct {
	principal *identity.Principal
	owners    map[string]uuid.UUID
}

func (f *fakeVerifier) Verify(_ context.Context, bearer string) (*identity.Principal, error) {
	if bearer == "" || f.principal == nil {
		return nil, domain.ErrUnauthorized
	}
	return f.principal, nil
}

func (f *fakeVerifier) ResolveEmail(_ context.Context, email string) (uuid.UUID, error) {
	id, ok := f.owners[email]
	if !ok {
		return uuid.Nil, domain.ErrNotFound
	}
	return id, nil
}

type fakeGateway struct {
	name      string
	createFn  func(provider.TransactionRequest) (*provider.Transaction, error)
	mintFn    func(string) (string, error)
	mintCalls int
}

func (f *fakeGateway) Name() string { return f.name }

func (f *fakeGateway) CreateTransaction(_ context.Context, req provider.TransactionRequest) (*provider.Transaction, error) {
	return f.createFn(req)
}

func (f *fakeGateway) MintCheckoutLink(_ context.Context, ref string) (string, error) {
	f.mintCalls++
	return f.mintFn(ref)
}

func newCounters() *metrics.Counters {
	return metrics.New(prometheus.NewRegistry())
}
