package provider

import (
	"context"
	"errors"
)

// Gateway failure kinds. Callers branch with errors.Is; the concrete message
// carries the provider detail.
var (
	// ErrUnavailable covers network and transport failures: the provider may
	// or may not have seen the request.
	ErrUnavailable = errors.New("provider unavailable")
	// ErrRejected is a well-formed refusal: bad amount, unknown customer,
	// misconfigured account.
	ErrRejected = errors.New("provider rejected transaction")
	// ErrProtocol means the response could not be parsed into the expected
	// shape.
	ErrProtocol = errors.New("provider protocol error")
)

// TransactionRequest is what a gateway needs to open a checkout with the
// remote provider.
type TransactionRequest struct {
	CustomerEmail string
	Amount        int64
	Description   string
	CallbackURL   string
}

// Transaction is the provider-side result of a create call. CheckoutURL may
// be empty for providers that issue checkout links in a separate call.
type Transaction struct {
	Reference   string
	CheckoutURL string
}

// Gateway creates transactions with one external payment provider. A gateway
// never touches the payment store; the caller persists nothing until the
// gateway call has fully succeeded.
type Gateway interface {
	Name() string
	CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error)
	MintCheckoutLink(ctx context.Context, reference string) (string, error)
}

// Registry holds the configured gateways keyed by provider name.
type Registry map[string]Gateway

func (r Registry) Get(name string) (Gateway, bool) {
	gw, ok := r[name]
	return gw, ok
}
