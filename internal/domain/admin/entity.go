package admin

import (
	"time"

	"github.com/google/uuid"
)

// Admin is a league operator account. Players never log in: the API is
// driven by admins and trusted kiosk devices.
type Admin struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
