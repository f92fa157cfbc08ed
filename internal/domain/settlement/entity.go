package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ladderleague/ladder-api/internal/domain/admission"
	"github.com/ladderleague/ladder-api/internal/domain/ledger"
)

// MatchState tracks whether a reported match counts in standings.
type MatchState string

const (
	// MatchUnreported is the initial state; no fee has settled.
	MatchUnreported MatchState = "unreported"
	// MatchFeeSettled counts in standings immediately.
	MatchFeeSettled MatchState = "fee_settled"
	// MatchPendingVerification is gated until an admin confirms the fee.
	MatchPendingVerification MatchState = "pending_verification"
)

// Match is a reported ladder match awaiting fee settlement.
type Match struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	ReportedBy uuid.UUID  `db:"reported_by" json:"reported_by"`
	State      MatchState `db:"state" json:"state"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// Outcome is the result of a settlement attempt. A duplicate attempt
// returns the prior outcome with Duplicate set instead of charging
// again.
type Outcome struct {
	MatchID      uuid.UUID              `json:"match_id"`
	PlayerID     uuid.UUID              `json:"player_id"`
	Decision     admission.Decision     `json:"decision"`
	AmountDue    decimal.Decimal        `json:"amount_due"`
	MatchState   MatchState             `json:"match_state"`
	Records      []ledger.PaymentRecord `json:"records"`
	RenewedUntil *time.Time             `json:"renewed_until,omitempty"`
	Duplicate    bool                   `json:"duplicate"`
}
