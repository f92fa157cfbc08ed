package membership

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

var ErrInternal = errors.New("internal error")

// Repository provides membership state access.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the player's membership, or nil if they never had one.
func (r *Repository) Get(ctx context.Context, playerID uuid.UUID) (*Membership, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var m Membership
	err := r.db.GetContext(ctx2, &m, `
		SELECT player_id, tier, expires_at, updated_at
		FROM memberships
		WHERE player_id = $1
	`, playerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get membership", ErrInternal)
	}
	return &m, nil
}

// GetTx is Get with a row lock inside an external transaction, so a
// concurrent renewal for the same player serializes behind it.
func (r *Repository) GetTx(ctx context.Context, tx *sqlx.Tx, playerID uuid.UUID) (*Membership, error) {
	var m Membership
	err := tx.GetContext(ctx, &m, `
		SELECT player_id, tier, expires_at, updated_at
		FROM memberships
		WHERE player_id = $1
		FOR UPDATE
	`, playerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: lock membership", ErrInternal)
	}
	return &m, nil
}

// UpsertTx writes the renewed expiry within an external transaction.
func (r *Repository) UpsertTx(ctx context.Context, tx *sqlx.Tx, playerID uuid.UUID, tier string, expiresAt time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO memberships (player_id, tier, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (player_id) DO UPDATE
		SET tier = EXCLUDED.tier, expires_at = EXCLUDED.expires_at, updated_at = now()
	`, playerID, tier, expiresAt)
	if err != nil {
		return fmt.Errorf("%w: upsert membership", ErrInternal)
	}
	return nil
}

// Upsert writes the renewed expiry outside a settlement transaction.
func (r *Repository) Upsert(ctx context.Context, playerID uuid.UUID, tier string, expiresAt time.Time) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO memberships (player_id, tier, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (player_id) DO UPDATE
		SET tier = EXCLUDED.tier, expires_at = EXCLUDED.expires_at, updated_at = now()
	`, playerID, tier, expiresAt)
	if err != nil {
		return fmt.Errorf("%w: upsert membership", ErrInternal)
	}
	return nil
}
