package ledger_test

import (
	"testing"

	"github.com/ladderleague/ladder-api/internal/domain/ledger"
)

func TestClassifyBoundaries(t *testing.T) {
	policy := ledger.DefaultTrustPolicy()

	cases := []struct {
		name   string
		total  int
		failed int
		tier   ledger.Tier
	}{
		{"perfect record at floor is trusted", 10, 0, ledger.TierTrusted},
		{"one failure drops to verified", 10, 1, ledger.TierVerified},
		{"below payment floor stays new", 2, 0, ledger.TierNew},
		{"perfect record below trusted floor is verified", 3, 0, ledger.TierVerified},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stats := ledger.TrustStats{TotalPayments: tc.total, FailedPayments: tc.failed}
			if got := ledger.Classify(stats, policy); got != tc.tier {
				t.Fatalf("total=%d failed=%d: expected %s, got %s", tc.total, tc.failed, tc.tier, got)
			}
		})
	}
}

func TestClassifyNoHistory(t *testing.T) {
	stats := ledger.TrustStats{}
	if rate := stats.SuccessRate(); rate != 0 {
		t.Fatalf("expected success rate 0 with no history, got %f", rate)
	}
	if got := ledger.Classify(stats, ledger.DefaultTrustPolicy()); got != ledger.TierNew {
		t.Fatalf("expected new, got %s", got)
	}
}

func TestClassifyTrustedEvaluatedFirst(t *testing.T) {
	// 20/1 satisfies both tiers; trusted must win.
	stats := ledger.TrustStats{TotalPayments: 20, FailedPayments: 1}
	if got := ledger.Classify(stats, ledger.DefaultTrustPolicy()); got != ledger.TierTrusted {
		t.Fatalf("expected trusted, got %s", got)
	}
}

func TestClassifyConfigurableThresholds(t *testing.T) {
	policy := ledger.TrustPolicy{
		TrustedMinPayments:  5,
		TrustedMinRate:      0.90,
		VerifiedMinPayments: 2,
		VerifiedMinRate:     0.50,
	}
	stats := ledger.TrustStats{TotalPayments: 5, FailedPayments: 0}
	if got := ledger.Classify(stats, policy); got != ledger.TierTrusted {
		t.Fatalf("expected trusted with relaxed policy, got %s", got)
	}
}
