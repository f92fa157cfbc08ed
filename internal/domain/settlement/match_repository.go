package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

// MatchRepository tracks the settlement state of reported matches.
type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// Get returns the match, or nil if it was never reported.
func (r *MatchRepository) Get(ctx context.Context, id uuid.UUID) (*Match, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var m Match
	err := r.db.GetContext(ctx2, &m, `SELECT * FROM matches WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get match", ErrInternal)
	}
	return &m, nil
}

// Ensure creates the match row if it was never reported.
func (r *MatchRepository) Ensure(ctx context.Context, id, reportedBy uuid.UUID) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO matches (id, reported_by, state)
		VALUES ($1, $2, 'unreported')
		ON CONFLICT (id) DO NOTHING
	`, id, reportedBy)
	if err != nil {
		return fmt.Errorf("%w: ensure match", ErrInternal)
	}
	return nil
}

// EnsureTx creates the match row on first report and locks it, so two
// devices reporting the same match serialize here.
func (r *MatchRepository) EnsureTx(ctx context.Context, tx *sqlx.Tx, id, reportedBy uuid.UUID) (*Match, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO matches (id, reported_by, state)
		VALUES ($1, $2, 'unreported')
		ON CONFLICT (id) DO NOTHING
	`, id, reportedBy); err != nil {
		return nil, fmt.Errorf("%w: ensure match", ErrInternal)
	}

	var m Match
	if err := tx.GetContext(ctx, &m, `SELECT * FROM matches WHERE id = $1 FOR UPDATE`, id); err != nil {
		return nil, fmt.Errorf("%w: lock match", ErrInternal)
	}
	return &m, nil
}

// SetStateTx updates the match state within an external transaction.
func (r *MatchRepository) SetStateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, state MatchState) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE matches SET state = $2, updated_at = now() WHERE id = $1
	`, id, state)
	if err != nil {
		return fmt.Errorf("%w: set match state", ErrInternal)
	}
	return nil
}
