package player

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const queryTimeout = 3 * time.Second

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create registers a new player.
func (r *Repository) Create(ctx context.Context, p *Player) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx2, `
		INSERT INTO players (id, name, email, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, p.ID, p.Name, p.Email, p.Phone).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("%w: insert player", ErrInternal)
	}
	return nil
}

// GetByID returns a player.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Player, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p Player
	err := r.db.GetContext(ctx2, &p, `SELECT * FROM players WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("%w: get player", ErrInternal)
	}
	return &p, nil
}

// List returns all players ordered by name.
func (r *Repository) List(ctx context.Context) ([]Player, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	players := make([]Player, 0)
	err := r.db.SelectContext(ctx2, &players, `SELECT * FROM players ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: list players", ErrInternal)
	}
	return players, nil
}
