package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters exposes the reconciliation outcomes that matter operationally.
// Everything here is monotonic; rates and ratios are derived in queries.
type Counters struct {
	AttemptsInitiated *prometheus.CounterVec
	WebhooksReceived  *prometheus.CounterVec
	WebhooksApplied   *prometheus.CounterVec
	WebhooksDuplicate *prometheus.CounterVec
	WebhooksUnmatched *prometheus.CounterVec
	WebhooksAmbiguous *prometheus.CounterVec
	AttemptsExpired   prometheus.Counter
}

func New(reg prometheus.Registerer) *Counters {
	factory := promauto.With(reg)
	return &Counters{
		AttemptsInitiated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tourneypay_attempts_initiated_total",
			Help: "Payment attempts persisted as PENDING.",
		}, []string{"provider"}),
		WebhooksReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tourneypay_webhooks_received_total",
			Help: "Authenticated webhook deliveries received.",
		}, []string{"provider"}),
		WebhooksApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tourneypay_webhooks_applied_total",
			Help: "Webhook deliveries that transitioned an attempt to SUCCEEDED.",
		}, []string{"provider"}),
		WebhooksDuplicate: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tourneypay_webhooks_duplicate_total",
			Help: "Webhook deliveries for attempts already terminal.",
		}, []string{"provider"}),
		WebhooksUnmatched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tourneypay_webhooks_unmatched_total",
			Help: "Webhook deliveries that resolved to no attempt.",
		}, []string{"provider"}),
		WebhooksAmbiguous: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tourneypay_webhooks_ambiguous_total",
			Help: "Fallback matches refused because the owner had multiple pending attempts.",
		}, []string{"provider"}),
		AttemptsExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "tourneypay_attempts_expired_total",
			Help: "Pending attempts failed by the expiry sweep.",
		}),
	}
}
