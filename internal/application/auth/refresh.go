package auth

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
)

// Refresh issues a new pair for the owner of refreshToken.
//
// Every failure in verification or ledger lookup collapses to
// refresh_token_invalid. The presented token is left in the ledger and stays
// usable until it expires or is logged out.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	u, err := s.resolveRefresh(ctx, refreshToken)
	if err != nil {
		return AuthResult{}, domain.ErrRefreshTokenInvalid()
	}

	res, err := s.issueTokens(ctx, u)
	if err != nil {
		return AuthResult{}, err
	}

	s.audit(ctx, "refresh", map[string]string{"user_id": u.ID})
	return res, nil
}

func (s *Service) resolveRefresh(ctx context.Context, refreshToken string) (domain.User, error) {
	if refreshToken == "" {
		return domain.User{}, domain.ErrTokenMissing()
	}

	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return domain.User{}, err
	}

	rt, u, err := s.ledger.FindByToken(ctx, refreshToken)
	if err != nil {
		return domain.User{}, err
	}
	if rt.Expired(s.now()) {
		return domain.User{}, domain.ErrTokenExpired()
	}
	if claims.Subject != rt.UserID {
		return domain.User{}, domain.ErrTokenInvalid()
	}
	return u, nil
}
