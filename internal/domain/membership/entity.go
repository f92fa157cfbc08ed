package membership

import (
	"time"

	"github.com/google/uuid"
)

// BillingPeriod is how long one membership payment covers.
const BillingPeriod = 30 * 24 * time.Hour

// Membership tracks a player's ladder membership window. A player is
// active strictly before expires_at; there is no silent renewal, and
// expiry is a hard gate on match reporting.
type Membership struct {
	PlayerID  uuid.UUID `db:"player_id" json:"player_id"`
	Tier      string    `db:"tier" json:"tier"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the membership covers the given instant.
// A nil membership (no record) is expired.
func (m *Membership) IsActive(now time.Time) bool {
	if m == nil {
		return false
	}
	return now.Before(m.ExpiresAt)
}

// RenewedUntil computes the new expiry after one billing period: paid
// time left on an active membership is kept, but a lapsed membership
// extends from now, not from the old expiry.
func (m *Membership) RenewedUntil(now time.Time) time.Time {
	from := now
	if m != nil && m.ExpiresAt.After(now) {
		from = m.ExpiresAt
	}
	return from.Add(BillingPeriod)
}
