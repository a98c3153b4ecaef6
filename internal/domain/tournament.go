package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tournament is the thing being paid for. This core only reads it: the
// stored EntryFee is the source of truth for what a registration costs.
type Tournament struct {
	ID       uuid.UUID
	Name     string
	EntryFee int64
	StartsAt time.Time
}
