package auth

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
)

// GetProfile returns the caller's user without the password hash.
func (s *Service) GetProfile(ctx context.Context, userID string) (domain.PublicUser, error) {
	u, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return domain.PublicUser{}, err
	}
	return u.Public(), nil
}
