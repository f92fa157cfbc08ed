package player

import (
	"time"

	"github.com/google/uuid"
)

// Player is a league member identified to the ledger. All balances and
// trust tiers are derived from the ledger, never stored here.
type Player struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
