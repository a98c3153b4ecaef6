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

// FastPay separates transaction creation from checkout-link issuance: the
// create call returns only a transaction id, and a second call mints the
// hosted checkout link for it.
type FastPay struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

func NewFastPay(baseURL, apiKey string, logger *zap.Logger) *FastPay {
	return &FastPay{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

func (f *FastPay) Name() string { return "fastpay" }

type fastpayCreateRequest struct {
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Description   string `json:"description"`
	CustomerEmail string `json:"customer_email"`
	CallbackURL   string `json:"callback_url"`
}

type fastpayCreateResponse struct {
	TransactionID string `json:"transaction_id"`
	Error         string `json:"error"`
}

type fastpayLinkResponse struct {
	CheckoutURL string `json:"checkout_url"`
	Error       string `json:"error"`
}

func (f *FastPay) CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error) {
	var out fastpayCreateResponse
	err := f.post(ctx, "/v1/transactions", fastpayCreateRequest{
		Amount:        req.Amount,
		Currency:      "NGN",
		Description:   req.Description,
		CustomerEmail: req.CustomerEmail,
		CallbackURL:   req.CallbackURL,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.TransactionID == "" {
		return nil, fmt.Errorf("%w: fastpay create response missing transaction_id", ErrProtocol)
	}
	// Checkout link is minted separately.
	return &Transaction{Reference: out.TransactionID}, nil
}

func (f *FastPay) MintCheckoutLink(ctx context.Context, reference string) (string, error) {
	var out fastpayLinkResponse
	path := fmt.Sprintf("/v1/transactions/%s/checkout-link", reference)
	if err := f.post(ctx, path, struct{}{}, &out); err != nil {
		return "", err
	}
	if out.CheckoutURL == "" {
		return "", fmt.Errorf("%w: fastpay link response missing checkout_url", ErrProtocol)
	}
	return out.CheckoutURL, nil
}

func (f *FastPay) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("X-Api-Key", f.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: fastpay %s: %v", ErrUnavailable, path, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: fastpay %s: %v", ErrProtocol, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := errField(out)
		f.logger.Warn("fastpay rejected request",
			zap.String("path", path),
			zap.Int("http_status", resp.StatusCode),
			zap.String("message", msg))
		return fmt.Errorf("%w: fastpay: %s", ErrRejected, msg)
	}
	return nil
}

func errField(out any) string {
	switch v := out.(type) {
	case *fastpayCreateResponse:
		return v.Error
	case *fastpayLinkResponse:
		return v.Error
	}
	return ""
}
