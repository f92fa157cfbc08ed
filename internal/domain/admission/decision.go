package admission

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/ladderleague/ladder-api/internal/domain/ledger"
)

// Decision is the settlement path for a pending charge.
type Decision string

const (
	// SettleFromCredits debits prepaid credits and completes immediately.
	SettleFromCredits Decision = "settle_from_credits"
	// AutoApprovePending completes immediately without a hold.
	AutoApprovePending Decision = "auto_approve"
	// RequireManualReview writes a pending record gated on an admin.
	RequireManualReview Decision = "manual_review"
)

// ErrNonPositiveAmount is a caller error: charges must be validated
// before asking for admission.
var ErrNonPositiveAmount = errors.New("amount due must be greater than 0")

// Result carries the chosen path. Audit is set for verified-tier
// auto-approvals, which get a non-blocking async audit.
type Result struct {
	Decision Decision
	Audit    bool
}

// Decide routes a charge based on credits and trust tier. Credits win
// over everything: pre-purchased funds are already verified, so even a
// new player with sufficient balance settles instantly. Otherwise
// trusted and verified players auto-approve (verified with an audit
// flag) and new players wait for manual review.
func Decide(tier ledger.Tier, amountDue, creditBalance decimal.Decimal) (Result, error) {
	if amountDue.Sign() <= 0 {
		return Result{}, ErrNonPositiveAmount
	}

	if creditBalance.GreaterThanOrEqual(amountDue) {
		return Result{Decision: SettleFromCredits}, nil
	}

	switch tier {
	case ledger.TierTrusted:
		return Result{Decision: AutoApprovePending}, nil
	case ledger.TierVerified:
		return Result{Decision: AutoApprovePending, Audit: true}, nil
	default:
		return Result{Decision: RequireManualReview}, nil
	}
}
