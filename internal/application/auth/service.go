package auth

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
)

// Service is the auth orchestrator. It holds no shared mutable state of its
// own; all shared state lives behind the ports.
type Service struct {
	accounts AccountStore
	tokens   TokenIssuer
	ledger   RefreshLedger

	audit AuditFunc
	now   func() time.Time
}

func NewService(accounts AccountStore, tokens TokenIssuer, ledger RefreshLedger) *Service {
	return &Service{
		accounts: accounts,
		tokens:   tokens,
		ledger:   ledger,
		audit:    func(context.Context, string, map[string]string) {},
		now:      time.Now,
	}
}

// AuthResult is the common output of register/login/refresh.
type AuthResult struct {
	User   domain.PublicUser
	Tokens domain.TokenPair
}

// AuditFunc receives one call per completed auth action.
type AuditFunc func(ctx context.Context, action string, fields map[string]string)

func (s *Service) WithAudit(fn AuditFunc) *Service {
	if fn != nil {
		s.audit = fn
	}
	return s
}

// WithClock overrides the clock used for ledger expiry checks.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// issueTokens signs a fresh pair for u and records the refresh half.
// If the ledger write fails the pair is discarded and the error propagates.
func (s *Service) issueTokens(ctx context.Context, u domain.User) (AuthResult, error) {
	pair, err := s.tokens.Issue(ctx, domain.ClaimsFor(u))
	if err != nil {
		return AuthResult{}, domain.ErrTokenSignFailed(err)
	}

	if err := s.ledger.Save(ctx, u.ID, pair.RefreshToken); err != nil {
		return AuthResult{}, err
	}

	return AuthResult{User: u.Public(), Tokens: pair}, nil
}
