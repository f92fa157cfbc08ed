package feeschedule

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Service resolves the schedule in effect. When the league has not
// configured one yet, the deployment defaults are used.
type Service struct {
	repo     *Repository
	defaults FeeSchedule
}

func NewService(repo *Repository, defaults FeeSchedule) *Service {
	return &Service{repo: repo, defaults: defaults}
}

// Current returns the schedule version in effect right now. Balances are
// always computed against the current version, never a snapshot; the
// schedule version is stamped onto each payment row so historical
// figures stay reproducible.
func (s *Service) Current(ctx context.Context) (FeeSchedule, error) {
	current, err := s.repo.GetCurrent(ctx)
	if err != nil {
		return FeeSchedule{}, err
	}
	if current == nil {
		return s.defaults, nil
	}
	return *current, nil
}

// Update publishes a new schedule version, applying prospectively only.
func (s *Service) Update(ctx context.Context, next FeeSchedule) (FeeSchedule, error) {
	if err := next.Validate(); err != nil {
		return FeeSchedule{}, err
	}
	if err := s.repo.Create(ctx, &next); err != nil {
		return FeeSchedule{}, err
	}
	log.Info().Int("version", next.Version).Msg("fee schedule updated")
	return next, nil
}
