package webhook

import (
	"encoding/json"

	"tourney-pay/internal/service"
)

type paystackEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Customer  struct {
			Email string `json:"email"`
		} `json:"customer"`
	} `json:"data"`
}

// ParsePaystack accepts charge.success events; everything else is an
// acknowledged no-op.
func ParsePaystack(body []byte) (service.ApprovedEvent, bool, error) {
	var ev paystackEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return service.ApprovedEvent{}, false, err
	}
	if ev.Event != "charge.success" {
		return service.ApprovedEvent{}, false, nil
	}
	return service.ApprovedEvent{
		Reference:     ev.Data.Reference,
		CustomerEmail: ev.Data.Customer.Email,
	}, true, nil
}

type fastpayEvent struct {
	EventType string `json:"event_type"`
	Payload   struct {
		TransactionID string `json:"transaction_id"`
		CustomerEmail string `json:"customer_email"`
	} `json:"payload"`
}

// ParseFastPay accepts transaction.approved events. FastPay omits the
// transaction id from some legacy event versions; those fall through to the
// customer-contact fallback.
func ParseFastPay(body []byte) (service.ApprovedEvent, bool, error) {
	var ev fastpayEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return service.ApprovedEvent{}, false, err
	}
	if ev.EventType != "transaction.approved" {
		return service.ApprovedEvent{}, false, nil
	}
	return service.ApprovedEvent{
		Reference:     ev.Payload.TransactionID,
		CustomerEmail: ev.Payload.CustomerEmail,
	}, true, nil
}
