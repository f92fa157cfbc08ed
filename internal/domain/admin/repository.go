package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// GetByEmail returns the admin account, or nil if none exists. The
// caller treats a missing account the same as a bad password.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var a Admin
	err := r.db.GetContext(ctx2, &a, `SELECT * FROM admins WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get admin", ErrInternal)
	}
	return &a, nil
}
