package admin

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/ladderleague/ladder-api/internal/pkg/jwt"
	"github.com/ladderleague/ladder-api/internal/pkg/password"
)

type Service struct {
	repo *Repository
	jwt  *jwt.Service
}

func NewService(repo *Repository, jwtService *jwt.Service) *Service {
	return &Service{repo: repo, jwt: jwtService}
}

// Authenticate checks credentials and issues an access token.
func (s *Service) Authenticate(ctx context.Context, email, plaintext string) (string, *Admin, error) {
	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if a == nil || !password.Verify(plaintext, a.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateAccessToken(a.ID, a.Role)
	if err != nil {
		log.Error().Err(err).Str("admin_id", a.ID.String()).Msg("failed to sign access token")
		return "", nil, ErrInternal
	}
	return token, a, nil
}
