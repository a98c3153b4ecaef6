package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"tourney-pay/internal/domain"
)

// Principal is a verified caller as reported by the session collaborator.
type Principal struct {
	ID    uuid.UUID
	Email string
}

// Verifier is the capability this core consumes from the identity/session
// collaborator. It never implements authentication itself.
type Verifier interface {
	// Verify resolves a bearer credential to a principal, or
	// domain.ErrUnauthorized.
	Verify(ctx context.Context, bearer string) (*Principal, error)
	// ResolveEmail maps a customer contact to an owner id, for the degraded
	// webhook fallback. domain.ErrNotFound when no account matches.
	ResolveEmail(ctx context.Context, email string) (uuid.UUID, error)
}

type httpVerifier struct {
	baseURL string
	client  *http.Client
}

func NewHTTPVerifier(baseURL string) Verifier {
	return &httpVerifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type sessionResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func (v *httpVerifier) Verify(ctx context.Context, bearer string) (*Principal, error) {
	if bearer == "" {
		return nil, domain.ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/v1/sessions/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, domain.ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity service: unexpected status %d", resp.StatusCode)
	}

	var out sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("identity service: %w", err)
	}
	id, err := uuid.Parse(out.UserID)
	if err != nil {
		return nil, fmt.Errorf("identity service: bad user_id: %w", err)
	}
	return &Principal{ID: id, Email: out.Email}, nil
}

func (v *httpVerifier) ResolveEmail(ctx context.Context, email string) (uuid.UUID, error) {
	u := v.baseURL + "/v1/users/by-email?email=" + url.QueryEscape(email)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return uuid.Nil, err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return uuid.Nil, fmt.Errorf("identity service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return uuid.Nil, domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return uuid.Nil, fmt.Errorf("identity service: unexpected status %d", resp.StatusCode)
	}

	var out sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return uuid.Nil, fmt.Errorf("identity service: %w", err)
	}
	id, err := uuid.Parse(out.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("identity service: bad user_id: %w", err)
	}
	return id, nil
}
