package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"tourney-pay/internal/domain"
)

const attemptColumns = `id, owner_id, tournament_id, tournament_name, amount,
	status, validation_code, external_ref, provider, created_at, updated_at`

type AttemptRepo interface {
	Create(ctx context.Context, attempt *domain.PaymentAttempt) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.PaymentAttempt, error)
	FindByValidationCode(ctx context.Context, code string) (*domain.PaymentAttempt, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.PaymentAttempt, error)
	FindByTournament(ctx context.Context, tournamentID uuid.UUID) ([]domain.PaymentAttempt, error)
	// FindByRef resolves a webhook to its attempt by the provider's own
	// transaction identifier, regardless of status. The only unambiguous
	// match; redelivered events find the already-terminal row here.
	FindByRef(ctx context.Context, provider, externalRef string) (*domain.PaymentAttempt, error)
	// FindPendingByOwner returns pending attempts newest first. Degraded
	// fallback path for events that carry no reference.
	FindPendingByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.PaymentAttempt, error)
	FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.PaymentAttempt, error)
	// UpdateStatusIfPending is the sole mutation path for status. It applies
	// the transition only while the row is still PENDING and reports how many
	// rows changed (0 or 1). Callers racing on the same row see exactly one
	// 1 and must treat 0 as "already resolved", not as an error.
	UpdateStatusIfPending(ctx context.Context, id uuid.UUID, status domain.AttemptStatus) (int64, error)
}

type attemptRepo struct {
	db *sql.DB
}

func NewAttemptRepo(db *sql.DB) AttemptRepo {
	return &attemptRepo{db: db}
}

func (r *attemptRepo) Create(ctx context.Context, a *domain.PaymentAttempt) error {
	query := `INSERT INTO payment_attempts (` + attemptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.OwnerID, a.TournamentID, a.TournamentName, a.Amount,
		a.Status, a.ValidationCode, a.ExternalRef, a.Provider, a.CreatedAt, a.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrDuplicateID
	}
	return err
}

func (r *attemptRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.PaymentAttempt, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+attemptColumns+` FROM payment_attempts WHERE id = $1`, id)
	return scanAttempt(row)
}

func (r *attemptRepo) FindByValidationCode(ctx context.Context, code string) (*domain.PaymentAttempt, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+attemptColumns+` FROM payment_attempts WHERE validation_code = $1`, code)
	return scanAttempt(row)
}

func (r *attemptRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.PaymentAttempt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+attemptColumns+` FROM payment_attempts
		 WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	return scanAttempts(rows)
}

func (r *attemptRepo) FindByTournament(ctx context.Context, tournamentID uuid.UUID) ([]domain.PaymentAttempt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+attemptColumns+` FROM payment_attempts
		 WHERE tournament_id = $1 ORDER BY created_at DESC`, tournamentID)
	if err != nil {
		return nil, err
	}
	return scanAttempts(rows)
}

func (r *attemptRepo) FindByRef(ctx context.Context, provider, externalRef string) (*domain.PaymentAttempt, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+attemptColumns+` FROM payment_attempts
		 WHERE provider = $1 AND external_ref = $2 AND external_ref <> ''`,
		provider, externalRef)
	return scanAttempt(row)
}

func (r *attemptRepo) FindPendingByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.PaymentAttempt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+attemptColumns+` FROM payment_attempts
		 WHERE owner_id = $1 AND status = $2 ORDER BY created_at DESC`,
		ownerID, domain.AttemptPending)
	if err != nil {
		return nil, err
	}
	return scanAttempts(rows)
}

func (r *attemptRepo) FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.PaymentAttempt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+attemptColumns+` FROM payment_attempts
		 WHERE status = $1 AND created_at < $2 ORDER BY created_at LIMIT $3`,
		domain.AttemptPending, cutoff, limit)
	if err != nil {
		return nil, err
	}
	return scanAttempts(rows)
}

func (r *attemptRepo) UpdateStatusIfPending(ctx context.Context, id uuid.UUID, status domain.AttemptStatus) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payment_attempts SET status = $2, updated_at = now()
		 WHERE id = $1 AND status = $3`,
		id, status, domain.AttemptPending)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanAttempt(row *sql.Row) (*domain.PaymentAttempt, error) {
	var a domain.PaymentAttempt
	err := row.Scan(
		&a.ID, &a.OwnerID, &a.TournamentID, &a.TournamentName, &a.Amount,
		&a.Status, &a.ValidationCode, &a.ExternalRef, &a.Provider, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAttempts(rows *sql.Rows) ([]domain.PaymentAttempt, error) {
	defer rows.Close()
	var attempts []domain.PaymentAttempt
	for rows.Next() {
		var a domain.PaymentAttempt
		if err := rows.Scan(
			&a.ID, &a.OwnerID, &a.TournamentID, &a.TournamentName, &a.Amount,
			&a.Status, &a.ValidationCode, &a.ExternalRef, &a.Provider, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
