package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/ladderleague/ladder-api/internal/domain/feeschedule"
)

// BalanceStatus buckets a player's outstanding balance for display.
type BalanceStatus string

const (
	BalancePaid    BalanceStatus = "paid"
	BalancePartial BalanceStatus = "partial"
	BalanceOverdue BalanceStatus = "overdue"
)

// BalancePolicy holds the display thresholds. PartialLimit defaults to
// 20 — roughly two weeks of dues behind — but is league-configurable.
type BalancePolicy struct {
	PartialLimit decimal.Decimal
}

func DefaultBalancePolicy() BalancePolicy {
	return BalancePolicy{PartialLimit: decimal.NewFromInt(20)}
}

// countsTowardDues decides whether a payment type reduces the season
// balance. The switch is exhaustive over the closed enum.
func countsTowardDues(t PaymentType) bool {
	switch t {
	case TypeRegistrationFee, TypeWeeklyDues, TypeParticipationFee, TypePenalty:
		return true
	case TypeMembership, TypeMatchFee, TypeCreditsPurchase:
		return false
	}
	return false
}

// ComputeBalance reduces a player's ledger and the current fee schedule
// into an outstanding balance and status bucket. Pure: it assumes a
// validated ledger and performs no I/O. Only completed records count;
// pending and rejected money is excluded.
func ComputeBalance(schedule feeschedule.FeeSchedule, payments []PaymentRecord, penalties []Penalty, policy BalancePolicy) (decimal.Decimal, BalanceStatus) {
	expected := schedule.ExpectedTotal()

	totalPaid := decimal.Zero
	for _, p := range payments {
		if p.Status != StatusCompleted {
			continue
		}
		if countsTowardDues(p.PaymentType) {
			totalPaid = totalPaid.Add(p.Amount)
		}
	}

	totalPenalties := decimal.Zero
	for _, p := range penalties {
		totalPenalties = totalPenalties.Add(p.Amount)
	}

	balance := expected.Sub(totalPaid).Add(totalPenalties)

	switch {
	case balance.LessThanOrEqual(decimal.Zero):
		return balance, BalancePaid
	case balance.LessThanOrEqual(policy.PartialLimit):
		return balance, BalancePartial
	default:
		return balance, BalanceOverdue
	}
}
