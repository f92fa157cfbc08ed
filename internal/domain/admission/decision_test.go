package admission_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ladderleague/ladder-api/internal/domain/admission"
	"github.com/ladderleague/ladder-api/internal/domain/ledger"
)

func money(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func TestDecideCreditPrecedence(t *testing.T) {
	// A new player with enough credits bypasses manual review entirely.
	result, err := admission.Decide(ledger.TierNew, money(5), money(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Decision != admission.SettleFromCredits {
		t.Fatalf("expected settle_from_credits, got %s", result.Decision)
	}

	// Exact balance still qualifies.
	result, err = admission.Decide(ledger.TierNew, money(5), money(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Decision != admission.SettleFromCredits {
		t.Fatalf("expected settle_from_credits at exact balance, got %s", result.Decision)
	}
}

func TestDecideTierRouting(t *testing.T) {
	cases := []struct {
		name     string
		tier     ledger.Tier
		decision admission.Decision
		audit    bool
	}{
		{"trusted auto-approves", ledger.TierTrusted, admission.AutoApprovePending, false},
		{"verified auto-approves with audit", ledger.TierVerified, admission.AutoApprovePending, true},
		{"new requires review", ledger.TierNew, admission.RequireManualReview, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := admission.Decide(tc.tier, money(5), money(0))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Decision != tc.decision {
				t.Fatalf("expected %s, got %s", tc.decision, result.Decision)
			}
			if result.Audit != tc.audit {
				t.Fatalf("expected audit=%v, got %v", tc.audit, result.Audit)
			}
		})
	}
}

func TestDecideInsufficientCreditsFallThrough(t *testing.T) {
	// Credits below the amount due do not partially settle.
	result, err := admission.Decide(ledger.TierNew, money(10), money(9))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Decision != admission.RequireManualReview {
		t.Fatalf("expected manual_review, got %s", result.Decision)
	}
}

func TestDecideNonPositiveAmount(t *testing.T) {
	if _, err := admission.Decide(ledger.TierTrusted, money(0), money(100)); !errors.Is(err, admission.ErrNonPositiveAmount) {
		t.Fatalf("expected ErrNonPositiveAmount, got %v", err)
	}
	if _, err := admission.Decide(ledger.TierTrusted, money(-5), money(100)); !errors.Is(err, admission.ErrNonPositiveAmount) {
		t.Fatalf("expected ErrNonPositiveAmount for negative amount, got %v", err)
	}
}
