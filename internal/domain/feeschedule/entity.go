package feeschedule

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeAmount = errors.New("fee schedule amounts must not be negative")
	ErrInvalidWeeks   = errors.New("total weeks must be greater than zero")
)

// FeeSchedule is the league's versioned fee policy. Instances are
// immutable: changing the policy means inserting a new version, and the
// change applies prospectively only.
type FeeSchedule struct {
	Version          int             `db:"version" json:"version"`
	RegistrationFee  decimal.Decimal `db:"registration_fee" json:"registration_fee"`
	WeeklyDues       decimal.Decimal `db:"weekly_dues" json:"weekly_dues"`
	TotalWeeks       int             `db:"total_weeks" json:"total_weeks"`
	ParticipationFee decimal.Decimal `db:"participation_fee" json:"participation_fee"`
	MatchFee         decimal.Decimal `db:"match_fee" json:"match_fee"`
	MembershipFee    decimal.Decimal `db:"membership_fee" json:"membership_fee"`
	PenaltyStrike1   decimal.Decimal `db:"penalty_strike1" json:"penalty_strike1"`
	PenaltyStrike2   decimal.Decimal `db:"penalty_strike2" json:"penalty_strike2"`
	PenaltyStrike3   decimal.Decimal `db:"penalty_strike3" json:"penalty_strike3"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}

// Validate checks the schedule invariants. PenaltyStrike3 may be zero:
// a third strike means removal from the ladder rather than a fine.
func (s *FeeSchedule) Validate() error {
	amounts := []decimal.Decimal{
		s.RegistrationFee, s.WeeklyDues, s.ParticipationFee,
		s.MatchFee, s.MembershipFee,
		s.PenaltyStrike1, s.PenaltyStrike2, s.PenaltyStrike3,
	}
	for _, a := range amounts {
		if a.IsNegative() {
			return ErrNegativeAmount
		}
	}
	if s.TotalWeeks <= 0 {
		return ErrInvalidWeeks
	}
	return nil
}

// ExpectedTotal is what a player owes for a full season of dues.
func (s *FeeSchedule) ExpectedTotal() decimal.Decimal {
	return s.RegistrationFee.Add(s.WeeklyDues.Mul(decimal.NewFromInt(int64(s.TotalWeeks))))
}

// PenaltyAmount returns the fine for a given strike level.
func (s *FeeSchedule) PenaltyAmount(strikeLevel int) decimal.Decimal {
	switch strikeLevel {
	case 1:
		return s.PenaltyStrike1
	case 2:
		return s.PenaltyStrike2
	case 3:
		return s.PenaltyStrike3
	default:
		return decimal.Zero
	}
}
