package credits

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TxType defines supported credit transaction types.
type TxType string

const (
	TxTypePurchase TxType = "purchase"
	TxTypeDebit    TxType = "debit"
)

// Account is a player's prepaid credit balance. The balance is never
// negative: a debit exceeding it is rejected, not clamped.
type Account struct {
	PlayerID  uuid.UUID       `db:"player_id" json:"player_id"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Transaction is a credit ledger row. AmountDelta is negative for
// debits.
type Transaction struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	PlayerID    uuid.UUID       `db:"player_id" json:"player_id"`
	AmountDelta decimal.Decimal `db:"amount_delta" json:"amount_delta"`
	TxType      TxType          `db:"tx_type" json:"tx_type"`
	ReferenceID string          `db:"reference_id" json:"reference_id"`
	Description string          `db:"description" json:"description"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}
