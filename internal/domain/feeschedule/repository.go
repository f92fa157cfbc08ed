package feeschedule

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

// Repository provides versioned fee schedule access
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// GetCurrent returns the latest schedule version, or nil if no schedule
// has been configured yet.
func (r *Repository) GetCurrent(ctx context.Context) (*FeeSchedule, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var s FeeSchedule
	err := r.db.GetContext(ctx2, &s, `
		SELECT version, registration_fee, weekly_dues, total_weeks, participation_fee,
		       match_fee, membership_fee, penalty_strike1, penalty_strike2, penalty_strike3,
		       created_at
		FROM fee_schedules
		ORDER BY version DESC
		LIMIT 1
	`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Create inserts a new schedule version. The version number is assigned
// by the database so concurrent updates cannot collide.
func (r *Repository) Create(ctx context.Context, s *FeeSchedule) error {
	if err := s.Validate(); err != nil {
		return err
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return r.db.QueryRowContext(ctx2, `
		INSERT INTO fee_schedules (
			version, registration_fee, weekly_dues, total_weeks, participation_fee,
			match_fee, membership_fee, penalty_strike1, penalty_strike2, penalty_strike3
		)
		VALUES (
			COALESCE((SELECT MAX(version) FROM fee_schedules), 0) + 1,
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		RETURNING version, created_at
	`,
		s.RegistrationFee, s.WeeklyDues, s.TotalWeeks, s.ParticipationFee,
		s.MatchFee, s.MembershipFee, s.PenaltyStrike1, s.PenaltyStrike2, s.PenaltyStrike3,
	).Scan(&s.Version, &s.CreatedAt)
}
