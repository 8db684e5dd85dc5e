package auth

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/application/accounts"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
)

/*
AccountStore
------------
The slice of accounts.Store the orchestrator needs.
*/
type AccountStore interface {
	Create(ctx context.Context, in accounts.NewAccount) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id string) (domain.User, error)
	VerifyPassword(u domain.User, password string) bool
	CompareDummy(password string)
}

/*
TokenIssuer
-----------
Signs access/refresh token pairs with independent secrets and TTLs.
The two halves must not be verifiable with each other's secret.
*/
type TokenIssuer interface {
	Issue(ctx context.Context, claims domain.Claims) (domain.TokenPair, error)
	VerifyRefresh(token string) (domain.Claims, error)
}

/*
RefreshLedger
-------------
Persisted record of issued refresh tokens.
- Save never replaces earlier tokens of the same user.
- FindByToken returns the owning user alongside the row.
- Deletes are idempotent.
*/
type RefreshLedger interface {
	Save(ctx context.Context, userID, token string) error
	FindByToken(ctx context.Context, token string) (domain.RefreshToken, domain.User, error)
	DeleteByUserAndToken(ctx context.Context, userID, token string) error
	DeleteByToken(ctx context.Context, token string) error
}
