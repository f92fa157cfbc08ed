package membership_test

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ladderleague/ladder-api/internal/domain/membership"
)

func TestIsActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var missing *membership.Membership
	if missing.IsActive(now) {
		t.Fatal("nil membership must be expired")
	}

	active := &membership.Membership{PlayerID: uuid.New(), ExpiresAt: now.Add(time.Hour)}
	if !active.IsActive(now) {
		t.Fatal("expected active before expiry")
	}

	atExpiry := &membership.Membership{PlayerID: uuid.New(), ExpiresAt: now}
	if atExpiry.IsActive(now) {
		t.Fatal("membership at exact expiry instant must be expired")
	}
}

func TestRenewedUntilActiveKeepsPaidTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expires := now.Add(10 * 24 * time.Hour)

	m := &membership.Membership{PlayerID: uuid.New(), ExpiresAt: expires}
	renewed := m.RenewedUntil(now)

	if !renewed.Equal(expires.Add(membership.BillingPeriod)) {
		t.Fatalf("expected extension from current expiry, got %s", renewed)
	}
}

func TestRenewedUntilLapsedExtendsFromNow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expires := now.Add(-40 * 24 * time.Hour)

	m := &membership.Membership{PlayerID: uuid.New(), ExpiresAt: expires}
	renewed := m.RenewedUntil(now)

	if !renewed.Equal(now.Add(membership.BillingPeriod)) {
		t.Fatalf("lapsed membership must extend from now, got %s", renewed)
	}

	var missing *membership.Membership
	if !missing.RenewedUntil(now).Equal(now.Add(membership.BillingPeriod)) {
		t.Fatal("first membership must extend from now")
	}
}
