package auth

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/application/accounts"
)

type RegisterInput struct {
	Email     string
	Password  string
	Name      string
	AvatarURL *string
}

// Register creates the account, then issues and records a token pair.
// A ledger failure after the account exists is returned as-is; the account is
// not rolled back.
func (s *Service) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	u, err := s.accounts.Create(ctx, accounts.NewAccount{
		Email:     in.Email,
		Password:  in.Password,
		Name:      in.Name,
		AvatarURL: in.AvatarURL,
	})
	if err != nil {
		return AuthResult{}, err
	}

	res, err := s.issueTokens(ctx, u)
	if err != nil {
		return AuthResult{}, err
	}

	s.audit(ctx, "register", map[string]string{"user_id": u.ID, "email": u.Email})
	return res, nil
}
