package ledger_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ladderleague/ladder-api/internal/domain/feeschedule"
	"github.com/ladderleague/ladder-api/internal/domain/ledger"
)

func testSchedule() feeschedule.FeeSchedule {
	return feeschedule.FeeSchedule{
		Version:         1,
		RegistrationFee: decimal.NewFromInt(30),
		WeeklyDues:      decimal.NewFromInt(10),
		TotalWeeks:      10,
		MatchFee:        decimal.NewFromInt(5),
		MembershipFee:   decimal.NewFromInt(5),
	}
}

func completedPayment(t ledger.PaymentType, amount int64) ledger.PaymentRecord {
	return ledger.PaymentRecord{
		ID:          uuid.New(),
		PlayerID:    uuid.New(),
		Amount:      decimal.NewFromInt(amount),
		PaymentType: t,
		Status:      ledger.StatusCompleted,
	}
}

func TestComputeBalanceStatusBuckets(t *testing.T) {
	// expectedTotal = 30 + 10*10 = 130
	cases := []struct {
		name    string
		paid    int64
		balance int64
		status  ledger.BalanceStatus
	}{
		{"fully paid", 130, 0, ledger.BalancePaid},
		{"overdue", 100, 30, ledger.BalanceOverdue},
		{"partial", 115, 15, ledger.BalancePartial},
		{"boundary at threshold is partial", 110, 20, ledger.BalancePartial},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payments := []ledger.PaymentRecord{
				completedPayment(ledger.TypeRegistrationFee, 30),
				completedPayment(ledger.TypeWeeklyDues, tc.paid-30),
			}

			balance, status := ledger.ComputeBalance(testSchedule(), payments, nil, ledger.DefaultBalancePolicy())

			if !balance.Equal(decimal.NewFromInt(tc.balance)) {
				t.Fatalf("expected balance %d, got %s", tc.balance, balance)
			}
			if status != tc.status {
				t.Fatalf("expected status %s, got %s", tc.status, status)
			}
		})
	}
}

func TestComputeBalanceExcludesUnresolvedMoney(t *testing.T) {
	pending := completedPayment(ledger.TypeWeeklyDues, 50)
	pending.Status = ledger.StatusPending
	rejected := completedPayment(ledger.TypeWeeklyDues, 50)
	rejected.Status = ledger.StatusRejected

	payments := []ledger.PaymentRecord{
		completedPayment(ledger.TypeRegistrationFee, 30),
		pending,
		rejected,
	}

	balance, status := ledger.ComputeBalance(testSchedule(), payments, nil, ledger.DefaultBalancePolicy())

	if !balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected balance 100 with pending/rejected excluded, got %s", balance)
	}
	if status != ledger.BalanceOverdue {
		t.Fatalf("expected overdue, got %s", status)
	}
}

func TestComputeBalanceIgnoresNonDuesTypes(t *testing.T) {
	payments := []ledger.PaymentRecord{
		completedPayment(ledger.TypeRegistrationFee, 130),
		completedPayment(ledger.TypeMatchFee, 5),
		completedPayment(ledger.TypeMembership, 5),
		completedPayment(ledger.TypeCreditsPurchase, 50),
	}

	balance, status := ledger.ComputeBalance(testSchedule(), payments, nil, ledger.DefaultBalancePolicy())

	if !balance.IsZero() {
		t.Fatalf("expected balance 0, got %s", balance)
	}
	if status != ledger.BalancePaid {
		t.Fatalf("expected paid, got %s", status)
	}
}

func TestComputeBalanceAddsPenalties(t *testing.T) {
	payments := []ledger.PaymentRecord{
		completedPayment(ledger.TypeRegistrationFee, 130),
	}
	penalties := []ledger.Penalty{
		{ID: uuid.New(), Amount: decimal.NewFromInt(5), StrikeLevel: 1},
		{ID: uuid.New(), Amount: decimal.NewFromInt(10), StrikeLevel: 2},
	}

	balance, status := ledger.ComputeBalance(testSchedule(), payments, penalties, ledger.DefaultBalancePolicy())

	if !balance.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected balance 15, got %s", balance)
	}
	if status != ledger.BalancePartial {
		t.Fatalf("expected partial, got %s", status)
	}
}

func TestComputeBalanceConfigurableThreshold(t *testing.T) {
	payments := []ledger.PaymentRecord{
		completedPayment(ledger.TypeRegistrationFee, 100),
	}
	policy := ledger.BalancePolicy{PartialLimit: decimal.NewFromInt(40)}

	_, status := ledger.ComputeBalance(testSchedule(), payments, nil, policy)

	if status != ledger.BalancePartial {
		t.Fatalf("expected partial with raised threshold, got %s", status)
	}
}

func TestComputeBalanceOverpayment(t *testing.T) {
	payments := []ledger.PaymentRecord{
		completedPayment(ledger.TypeRegistrationFee, 150),
	}

	balance, status := ledger.ComputeBalance(testSchedule(), payments, nil, ledger.DefaultBalancePolicy())

	if !balance.Equal(decimal.NewFromInt(-20)) {
		t.Fatalf("expected balance -20, got %s", balance)
	}
	if status != ledger.BalancePaid {
		t.Fatalf("overpayment should still read as paid, got %s", status)
	}
}
