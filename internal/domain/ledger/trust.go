package ledger

// Tier classifies how much friction a player's payments face before
// settlement.
type Tier string

const (
	TierNew      Tier = "new"
	TierVerified Tier = "verified"
	TierTrusted  Tier = "trusted"
)

// TrustStats is derived from a player's resolved payment history. It is
// never stored, so it cannot drift from the ledger.
type TrustStats struct {
	TotalPayments  int `db:"total_payments" json:"total_payments"`
	FailedPayments int `db:"failed_payments" json:"failed_payments"`
}

// SuccessRate returns (total-failed)/total, or 0 with no history.
func (s TrustStats) SuccessRate() float64 {
	if s.TotalPayments == 0 {
		return 0
	}
	return float64(s.TotalPayments-s.FailedPayments) / float64(s.TotalPayments)
}

// TrustPolicy holds the classification thresholds. The 0.80/0.95 rates
// and 3/10 payment floors are league-configurable defaults.
type TrustPolicy struct {
	TrustedMinPayments  int
	TrustedMinRate      float64
	VerifiedMinPayments int
	VerifiedMinRate     float64
}

func DefaultTrustPolicy() TrustPolicy {
	return TrustPolicy{
		TrustedMinPayments:  10,
		TrustedMinRate:      0.95,
		VerifiedMinPayments: 3,
		VerifiedMinRate:     0.80,
	}
}

// Classify reduces payment stats into a trust tier. Trusted is checked
// before verified: the thresholds overlap and order matters.
func Classify(stats TrustStats, policy TrustPolicy) Tier {
	rate := stats.SuccessRate()
	if stats.TotalPayments >= policy.TrustedMinPayments && rate >= policy.TrustedMinRate {
		return TierTrusted
	}
	if stats.TotalPayments >= policy.VerifiedMinPayments && rate >= policy.VerifiedMinRate {
		return TierVerified
	}
	return TierNew
}
