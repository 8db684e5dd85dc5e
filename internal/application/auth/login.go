package auth

import (
	"context"
	"errors"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
)

// Login authenticates a user and issues tokens.
// Unknown email and wrong password share one message so emails can't be
// enumerated. A deactivated account is reported distinctly.
func (s *Service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	u, err := s.validate(ctx, email, password)
	if err != nil {
		s.audit(ctx, "login_failed", map[string]string{"email": email, "reason": errCode(err)})
		return AuthResult{}, err
	}

	res, err := s.issueTokens(ctx, u)
	if err != nil {
		return AuthResult{}, err
	}

	s.audit(ctx, "login", map[string]string{"user_id": u.ID, "email": u.Email})
	return res, nil
}

// validate checks existence, then the active flag, then the password.
func (s *Service) validate(ctx context.Context, email, password string) (domain.User, error) {
	if email == "" || password == "" {
		return domain.User{}, domain.ErrInvalidCredentials()
	}

	u, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if !domain.Is(err, "user_not_found") {
			return domain.User{}, err
		}
		s.accounts.CompareDummy(password)
		return domain.User{}, domain.ErrInvalidCredentials()
	}

	if !u.IsActive {
		return domain.User{}, domain.ErrAccountDeactivated()
	}

	if !s.accounts.VerifyPassword(u, password) {
		return domain.User{}, domain.ErrInvalidCredentials()
	}
	return u, nil
}

func errCode(err error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Code
	}
	return "internal_error"
}
