package notification

import (
	"time"

	"github.com/google/uuid"
)

// Event types published on ledger state transitions.
const (
	EventPaymentCompleted  = "payment:completed"
	EventPaymentPending    = "payment:pending_review"
	EventPaymentRejected   = "payment:rejected"
	EventPaymentAudit      = "payment:audit"
	EventMembershipRenewed = "membership:renewed"
	EventMatchSettled      = "match:fee_settled"
	EventPenaltyIssued     = "penalty:issued"
)

// Event is a fire-and-forget state transition notice. Delivery failures
// never roll back the ledger write that produced the event.
type Event struct {
	Type      string    `json:"type"`
	PlayerID  uuid.UUID `json:"player_id"`
	PaymentID uuid.UUID `json:"payment_id,omitempty"`
	MatchID   string    `json:"match_id,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	At        time.Time `json:"at"`
}
