package webhook

import (
	"crypto/subtle"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tourney-pay/internal/metrics"
	"tourney-pay/internal/service"
)

// TokenHeader carries the provider-specific pre-shared secret on every
// inbound delivery.
const TokenHeader = "X-Webhook-Token"

// EventParser turns a provider's raw delivery into a normalized approved
// event. approved=false means the event type is not a successful transaction
// and the delivery is acknowledged without any action.
type EventParser func(body []byte) (event service.ApprovedEvent, approved bool, err error)

// Handler guards one provider's webhook route. Construction fails without a
// secret, so an unauthenticated integration cannot exist.
type Handler struct {
	provider   string
	secret     []byte
	parse      EventParser
	reconciler service.ReconcileService
	counters   *metrics.Counters
	logger     *zap.Logger
}

func NewHandler(
	providerName, secret string,
	parse EventParser,
	reconciler service.ReconcileService,
	counters *metrics.Counters,
	logger *zap.Logger,
) (*Handler, error) {
	if secret == "" {
		return nil, errors.New("webhook: refusing to mount " + providerName + " route without a secret")
	}
	return &Handler{
		provider:   providerName,
		secret:     []byte(secret),
		parse:      parse,
		reconciler: reconciler,
		counters:   counters,
		logger:     logger,
	}, nil
}

// Handle authenticates, parses, resolves, transitions. Once the secret check
// passes, every path acknowledges with 200: the provider redelivers on
// anything else, and redelivery cannot improve an event we have already
// decided to ignore.
func (h *Handler) Handle(c *gin.Context) {
	token := c.GetHeader(TokenHeader)
	if subtle.ConstantTimeCompare([]byte(token), h.secret) != 1 {
		c.Status(http.StatusUnauthorized)
		return
	}

	h.counters.WebhooksReceived.WithLabelValues(h.provider).Inc()

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<16))
	if err != nil {
		h.logger.Warn("webhook body unreadable",
			zap.String("provider", h.provider), zap.Error(err))
		c.Status(http.StatusOK)
		return
	}

	event, approved, err := h.parse(body)
	if err != nil {
		h.logger.Warn("webhook body unparseable",
			zap.String("provider", h.provider), zap.Error(err))
		c.Status(http.StatusOK)
		return
	}
	if !approved {
		c.Status(http.StatusOK)
		return
	}

	event.Provider = h.provider
	if _, err := h.reconciler.ApplyApproved(c.Request.Context(), event); err != nil {
		// Store or identity failure. The attempt stays PENDING; if no later
		// delivery lands, the expiry sweep terminates it.
		h.logger.Error("webhook reconciliation failed",
			zap.String("provider", h.provider), zap.Error(err))
	}
	c.Status(http.StatusOK)
}
