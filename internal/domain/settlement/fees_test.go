package settlement

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ladderleague/ladder-api/internal/domain/feeschedule"
	"github.com/ladderleague/ladder-api/internal/domain/ledger"
)

func testSchedule() feeschedule.FeeSchedule {
	return feeschedule.FeeSchedule{
		Version:       1,
		MatchFee:      decimal.NewFromInt(5),
		MembershipFee: decimal.NewFromInt(5),
	}
}

func TestFeeLinesActiveMembership(t *testing.T) {
	lines := feeLines(testSchedule(), true)

	if len(lines) != 1 {
		t.Fatalf("expected 1 line for an active member, got %d", len(lines))
	}
	if lines[0].paymentType != ledger.TypeMatchFee {
		t.Fatalf("expected match_fee line, got %s", lines[0].paymentType)
	}
	if !totalDue(lines).Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected total 5, got %s", totalDue(lines))
	}
}

func TestFeeLinesLapsedMembershipAddsRenewal(t *testing.T) {
	lines := feeLines(testSchedule(), false)

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines for a lapsed member, got %d", len(lines))
	}
	if lines[1].paymentType != ledger.TypeMembership {
		t.Fatalf("expected membership line, got %s", lines[1].paymentType)
	}
	if !totalDue(lines).Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected combined total 10, got %s", totalDue(lines))
	}
}
