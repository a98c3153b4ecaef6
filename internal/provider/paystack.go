package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Paystack initializes the transaction and issues the checkout link in a
// single call, so MintCheckoutLink is never needed for it.
type Paystack struct {
	baseURL   string
	secretKey string
	client    *http.Client
	logger    *zap.Logger
}

func NewPaystack(baseURL, secretKey string, logger *zap.Logger) *Paystack {
	return &Paystack{
		baseURL:   baseURL,
		secretKey: secretKey,
		client:    &http.Client{Timeout: 15 * time.Second},
		logger:    logger,
	}
}

func (p *Paystack) Name() string { return "paystack" }

type paystackInitRequest struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type paystackInitResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

func (p *Paystack) CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error) {
	body, err := json.Marshal(paystackInitRequest{
		Email:       req.CustomerEmail,
		Amount:      req.Amount * 100, // paystack takes minor units
		CallbackURL: req.CallbackURL,
		Metadata:    map[string]string{"description": req.Description},
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: paystack initialize: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var out paystackInitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: paystack initialize: %v", ErrProtocol, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !out.Status {
		p.logger.Warn("paystack rejected transaction",
			zap.Int("http_status", resp.StatusCode),
			zap.String("message", out.Message))
		return nil, fmt.Errorf("%w: paystack: %s", ErrRejected, out.Message)
	}

	if out.Data.Reference == "" || out.Data.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: paystack initialize response missing reference or url", ErrProtocol)
	}

	return &Transaction{
		Reference:   out.Data.Reference,
		CheckoutURL: out.Data.AuthorizationURL,
	}, nil
}

func (p *Paystack) MintCheckoutLink(ctx context.Context, reference string) (string, error) {
	return "", fmt.Errorf("%w: paystack issues checkout links at transaction creation", ErrProtocol)
}
