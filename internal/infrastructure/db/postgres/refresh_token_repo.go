package postgres

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
)

// RefreshTokenRepo is the Postgres refresh token ledger.
type RefreshTokenRepo struct {
	db  DBTX
	now func() time.Time
}

func NewRefreshTokenRepo(db DBTX) *RefreshTokenRepo {
	return &RefreshTokenRepo{db: db, now: time.Now}
}

// Save inserts a new row expiring RefreshTokenRetention from now. Earlier
// tokens of the same user are left in place.
func (r *RefreshTokenRepo) Save(ctx context.Context, userID, token string) error {
	if userID == "" {
		return domain.ErrMissingField("user_id")
	}
	if token == "" {
		return domain.ErrMissingField("token")
	}

	const q = `
INSERT INTO refresh_tokens (token, user_id, expires_at)
VALUES ($1, $2, $3);
`
	expiresAt := r.now().Add(domain.RefreshTokenRetention)
	if _, err := r.db.ExecContext(ctx, q, token, userID, expiresAt); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}

// FindByToken loads the ledger row together with its owner.
// Expiry is not checked here.
func (r *RefreshTokenRepo) FindByToken(ctx context.Context, token string) (domain.RefreshToken, domain.User, error) {
	if token == "" {
		return domain.RefreshToken{}, domain.User{}, domain.ErrRefreshTokenInvalid()
	}

	const q = `
SELECT rt.token, rt.user_id, rt.expires_at, rt.created_at,
       u.id, u.email, u.password_hash, u.name, u.avatar_url, u.is_active, u.email_verified, u.created_at, u.updated_at
FROM refresh_tokens rt
JOIN users u ON u.id = rt.user_id
WHERE rt.token = $1
LIMIT 1;
`
	var (
		rt domain.RefreshToken
		ur userRow
	)
	dest := append([]any{&rt.Token, &rt.UserID, &rt.ExpiresAt, &rt.CreatedAt}, ur.dest()...)

	if err := r.db.QueryRowContext(ctx, q, token).Scan(dest...); err != nil {
		if isNoRows(err) {
			return domain.RefreshToken{}, domain.User{}, domain.ErrRefreshTokenInvalid()
		}
		return domain.RefreshToken{}, domain.User{}, domain.ErrDBUnavailable(err)
	}
	return rt, ur.toDomain(), nil
}

func (r *RefreshTokenRepo) DeleteByUserAndToken(ctx context.Context, userID, token string) error {
	const q = `DELETE FROM refresh_tokens WHERE user_id = $1 AND token = $2;`
	if _, err := r.db.ExecContext(ctx, q, userID, token); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}

func (r *RefreshTokenRepo) DeleteByToken(ctx context.Context, token string) error {
	const q = `DELETE FROM refresh_tokens WHERE token = $1;`
	if _, err := r.db.ExecContext(ctx, q, token); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}

// PurgeExpired removes rows whose expiry has passed and reports how many.
func (r *RefreshTokenRepo) PurgeExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM refresh_tokens WHERE expires_at <= $1;`
	res, err := r.db.ExecContext(ctx, q, r.now())
	if err != nil {
		return 0, domain.ErrDBUnavailable(err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
