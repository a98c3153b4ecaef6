package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tourney-pay/internal/database"
	"tourney-pay/internal/domain"
	"tourney-pay/internal/provider"
	"tourney-pay/internal/repo"
	"tourney-pay/internal/service"
)

type Handlers struct {
	registrations   service.RegistrationService
	attempts        repo.AttemptRepo
	defaultProvider string
	db              *sql.DB
	logger          *zap.Logger
}

func NewHandlers(
	registrations service.RegistrationService,
	attempts repo.AttemptRepo,
	defaultProvider string,
	db *sql.DB,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		registrations:   registrations,
		attempts:        attempts,
		defaultProvider: defaultProvider,
		db:              db,
		logger:          logger,
	}
}

type initiateRequest struct {
	TournamentID string `json:"tournament_id" binding:"required"`
	Amount       int64  `json:"amount" binding:"required"`
	Provider     string `json:"provider"`
}

type initiateResponse struct {
	AttemptID      string `json:"attempt_id"`
	CheckoutURL    string `json:"checkout_url"`
	ValidationCode string `json:"validation_code"`
}

func (h *Handlers) Initiate(c *gin.Context) {
	var req initiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tournamentID, err := uuid.Parse(req.TournamentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tournament_id"})
		return
	}

	providerName := req.Provider
	if providerName == "" {
		providerName = h.defaultProvider
	}

	result, err := h.registrations.Initiate(c.Request.Context(), bearerToken(c), tournamentID, req.Amount, providerName)
	if err != nil {
		h.writeInitiateError(c, err)
		return
	}

	c.JSON(http.StatusCreated, initiateResponse{
		AttemptID:      result.AttemptID.String(),
		CheckoutURL:    result.CheckoutURL,
		ValidationCode: result.ValidationCode,
	})
}

func (h *Handlers) writeInitiateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
	case errors.Is(err, domain.ErrTournamentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "tournament not found"})
	case errors.Is(err, domain.ErrAmountMismatch):
		c.JSON(http.StatusConflict, gin.H{"error": "amount does not match entry fee"})
	case errors.Is(err, domain.ErrUnknownProvider):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, provider.ErrRejected):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, provider.ErrUnavailable), errors.Is(err, provider.ErrProtocol):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.logger.Error("initiation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type attemptView struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	TournamentID   string    `json:"tournament_id"`
	TournamentName string    `json:"tournament_name"`
	Amount         int64     `json:"amount"`
	Status         string    `json:"status"`
	ValidationCode string    `json:"validation_code"`
	Provider       string    `json:"provider"`
	CreatedAt      time.Time `json:"created_at"`
}

func (h *Handlers) AttemptsByOwner(c *gin.Context) {
	ownerID, err := uuid.Parse(c.Query("owner_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid owner_id"})
		return
	}
	attempts, err := h.attempts.FindByOwner(c.Request.Context(), ownerID)
	if err != nil {
		h.logger.Error("attempt listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, toViews(attempts))
}

func (h *Handlers) AttemptsByTournament(c *gin.Context) {
	tournamentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tournament id"})
		return
	}
	attempts, err := h.attempts.FindByTournament(c.Request.Context(), tournamentID)
	if err != nil {
		h.logger.Error("attempt listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, toViews(attempts))
}

func (h *Handlers) AttemptByCode(c *gin.Context) {
	attempt, err := h.attempts.FindByValidationCode(c.Request.Context(), c.Param("code"))
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no attempt with that code"})
		return
	}
	if err != nil {
		h.logger.Error("attempt lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, toView(*attempt))
}

func (h *Handlers) Health(c *gin.Context) {
	stats := database.Health(h.db)
	code := http.StatusOK
	if stats["status"] != "up" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, stats)
}

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return ""
	}
	return token
}

func toView(a domain.PaymentAttempt) attemptView {
	return attemptView{
		ID:             a.ID.String(),
		OwnerID:        a.OwnerID.String(),
		TournamentID:   a.TournamentID.String(),
		TournamentName: a.TournamentName,
		Amount:         a.Amount,
		Status:         string(a.Status),
		ValidationCode: a.ValidationCode,
		Provider:       a.Provider,
		CreatedAt:      a.CreatedAt,
	}
}

func toViews(attempts []domain.PaymentAttempt) []attemptView {
	views := make([]attemptView, 0, len(attempts))
	for _, a := range attempts {
		views = append(views, toView(a))
	}
	return views
}
