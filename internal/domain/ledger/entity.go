package ledger

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentType is the closed set of ledger event types. The balance
// calculator switches over it exhaustively, so adding a type forces a
// decision about whether it counts toward season dues.
type PaymentType string

const (
	TypeRegistrationFee  PaymentType = "registration_fee"
	TypeWeeklyDues       PaymentType = "weekly_dues"
	TypeParticipationFee PaymentType = "participation_fee"
	TypePenalty          PaymentType = "penalty"
	TypeMembership       PaymentType = "membership"
	TypeMatchFee         PaymentType = "match_fee"
	TypeCreditsPurchase  PaymentType = "credits_purchase"
)

// KnownPaymentType reports whether t is one of the closed enum values.
func KnownPaymentType(t PaymentType) bool {
	switch t {
	case TypeRegistrationFee, TypeWeeklyDues, TypeParticipationFee,
		TypePenalty, TypeMembership, TypeMatchFee, TypeCreditsPurchase:
		return true
	}
	return false
}

// Status represents a payment record's lifecycle state
type Status string

const (
	StatusPending   Status = "pending"
	StatusVerified  Status = "verified"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// IsTerminal reports whether the status is immutable. Corrections to a
// terminal record are new records, never edits.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// PaymentRecord is an append-only ledger row.
type PaymentRecord struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	PlayerID        uuid.UUID       `db:"player_id" json:"player_id"`
	MatchID         uuid.NullUUID   `db:"match_id" json:"match_id,omitempty"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	PaymentType     PaymentType     `db:"payment_type" json:"payment_type"`
	PaymentMethod   string          `db:"payment_method" json:"payment_method"`
	Status          Status          `db:"status" json:"status"`
	ScheduleVersion int             `db:"schedule_version" json:"schedule_version"`
	ExternalTxID    sql.NullString  `db:"external_tx_id" json:"external_tx_id,omitempty"`
	Notes           string          `db:"notes" json:"notes"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	ResolvedAt      sql.NullTime    `db:"resolved_at" json:"resolved_at,omitempty"`
}

// Penalty is a strike issued against a player. Strike levels are
// explicit: the engine never auto-advances them.
type Penalty struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	PlayerID    uuid.UUID       `db:"player_id" json:"player_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	StrikeLevel int             `db:"strike_level" json:"strike_level"`
	Reason      string          `db:"reason" json:"reason"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}
