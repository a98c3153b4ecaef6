package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"tourney-pay/internal/domain"
)

type TournamentRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Tournament, error)
}

type tournamentRepo struct {
	db *sql.DB
}

func NewTournamentRepo(db *sql.DB) TournamentRepo {
	return &tournamentRepo{db: db}
}

func (r *tournamentRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Tournament, error) {
	var t domain.Tournament
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, entry_fee, starts_at FROM tournaments WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.EntryFee, &t.StartsAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrTournamentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
