package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tourney-pay/internal/domain"
	"tourney-pay/internal/identity"
	"tourney-pay/internal/metrics"
	"tourney-pay/internal/provider"
	"tourney-pay/internal/repo"
)

// Dropped I, O, 0 and 1 so the code survives being read over the phone.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const codeLength = 8

type InitiateResult struct {
	AttemptID      uuid.UUID
	CheckoutURL    string
	ValidationCode string
}

type RegistrationService interface {
	// Initiate starts a paid registration: verify the caller, price the
	// tournament server-side, open a provider transaction, then persist
	// exactly one PENDING attempt. On any failure before the final persist,
	// nothing is written.
	Initiate(ctx context.Context, bearer string, tournamentID uuid.UUID, claimedAmount int64, providerName string) (*InitiateResult, error)
}

type registrationService struct {
	attempts    repo.AttemptRepo
	tournaments repo.TournamentRepo
	verifier    identity.Verifier
	gateways    provider.Registry
	callbackURL string
	counters    *metrics.Counters
	logger      *zap.Logger
}

func NewRegistrationService(
	attempts repo.AttemptRepo,
	tournaments repo.TournamentRepo,
	verifier identity.Verifier,
	gateways provider.Registry,
	callbackURL string,
	counters *metrics.Counters,
	logger *zap.Logger,
) RegistrationService {
	return &registrationService{
		attempts:    attempts,
		tournaments: tournaments,
		verifier:    verifier,
		gateways:    gateways,
		callbackURL: callbackURL,
		counters:    counters,
		logger:      logger,
	}
}

func (s *registrationService) Initiate(ctx context.Context, bearer string, tournamentID uuid.UUID, claimedAmount int64, providerName string) (*InitiateResult, error) {
	principal, err := s.verifier.Verify(ctx, bearer)
	if err != nil {
		return nil, err
	}

	tournament, err := s.tournaments.FindByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	// The stored entry fee is the only amount we will ever charge. The
	// client-claimed figure is cross-checked so a stale or tampered page
	// fails loudly instead of charging something else.
	if claimedAmount != tournament.EntryFee {
		return nil, domain.ErrAmountMismatch
	}

	gateway, ok := s.gateways.Get(providerName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, providerName)
	}

	code, err := newValidationCode()
	if err != nil {
		return nil, err
	}

	tx, err := gateway.CreateTransaction(ctx, provider.TransactionRequest{
		CustomerEmail: principal.Email,
		Amount:        tournament.EntryFee,
		Description:   fmt.Sprintf("Entry: %s", tournament.Name),
		CallbackURL:   s.callbackURL,
	})
	if err != nil {
		return nil, err
	}

	checkoutURL := tx.CheckoutURL
	if checkoutURL == "" {
		checkoutURL, err = gateway.MintCheckoutLink(ctx, tx.Reference)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	attempt := &domain.PaymentAttempt{
		ID:             uuid.New(),
		OwnerID:        principal.ID,
		TournamentID:   tournament.ID,
		TournamentName: tournament.Name,
		Amount:         tournament.EntryFee,
		Status:         domain.AttemptPending,
		ValidationCode: code,
		ExternalRef:    tx.Reference,
		Provider:       gateway.Name(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, err
	}

	s.counters.AttemptsInitiated.WithLabelValues(gateway.Name()).Inc()
	s.logger.Info("payment attempt initiated",
		zap.String("attempt_id", attempt.ID.String()),
		zap.String("owner_id", principal.ID.String()),
		zap.String("tournament_id", tournament.ID.String()),
		zap.String("provider", gateway.Name()),
		zap.String("external_ref", tx.Reference))

	return &InitiateResult{
		AttemptID:      attempt.ID,
		CheckoutURL:    checkoutURL,
		ValidationCode: code,
	}, nil
}

func newValidationCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
