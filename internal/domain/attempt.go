package domain

import (
	"time"

	"github.com/google/uuid"
)

type AttemptStatus string

const (
	AttemptPending   AttemptStatus = "PENDING"
	AttemptSucceeded AttemptStatus = "SUCCEEDED"
	AttemptFailed    AttemptStatus = "FAILED"
)

// Terminal reports whether no further status transition is permitted.
func (s AttemptStatus) Terminal() bool {
	return s == AttemptSucceeded || s == AttemptFailed
}

// PaymentAttempt is one registrant's try at paying for one tournament entry.
// Every field except Status is immutable after creation; Status moves from
// PENDING to exactly one of SUCCEEDED or FAILED, only through the store's
// conditional update.
type PaymentAttempt struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	TournamentID   uuid.UUID
	TournamentName string
	Amount         int64
	Status         AttemptStatus
	ValidationCode string
	ExternalRef    string
	Provider       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
