package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/application/accounts"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/domain"
	"github.com/baechuer/real-time-ressys/services/ms-auth/internal/logger"
)

// CachedUserRepo decorates an accounts.UserRepo with a Redis read-through
// cache keyed by user id.
// - Read path: Redis -> DB fallback -> Redis set
// - Write path (update): DB -> Redis DEL (best effort)
// Redis errors never fail a request; the DB stays the source of truth.
type CachedUserRepo struct {
	inner   accounts.UserRepo
	rdb     *goredis.Client
	ttl     time.Duration
	keyPref string
}

func NewCachedUserRepo(inner accounts.UserRepo, client *Client, ttl time.Duration) *CachedUserRepo {
	var rdb *goredis.Client
	if client != nil {
		rdb = client.rdb
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedUserRepo{
		inner:   inner,
		rdb:     rdb,
		ttl:     ttl,
		keyPref: "user:",
	}
}

type cachedUser struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Name          string    `json:"name"`
	AvatarURL     *string   `json:"avatar_url,omitempty"`
	IsActive      bool      `json:"is_active"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (c *CachedUserRepo) key(userID string) string {
	return c.keyPref + userID
}

func (c *CachedUserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	// 1) Try Redis
	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, c.key(id)).Bytes()
		if err == nil {
			var cu cachedUser
			if jerr := json.Unmarshal(raw, &cu); jerr == nil {
				return domain.User(cu), nil
			}
			// decode error -> fall back to DB
		} else if err != goredis.Nil {
			logger.WithCtx(ctx).Debug().Err(err).Msg("user cache read failed")
		}
	}

	// 2) DB source of truth
	u, err := c.inner.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	// 3) Best-effort cache fill
	c.store(ctx, u)
	return u, nil
}

func (c *CachedUserRepo) Update(ctx context.Context, id string, p domain.UserPatch) (domain.User, error) {
	u, err := c.inner.Update(ctx, id, p)
	if err != nil {
		return domain.User{}, err
	}
	c.evict(ctx, id)
	return u, nil
}

func (c *CachedUserRepo) store(ctx context.Context, u domain.User) {
	if c.rdb == nil {
		return
	}
	raw, err := json.Marshal(cachedUser(u))
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, c.key(u.ID), raw, c.ttl).Err()
}

func (c *CachedUserRepo) evict(ctx context.Context, id string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, c.key(id)).Err(); err != nil {
		logger.WithCtx(ctx).Warn().Err(err).Str("user_id", id).Msg("user cache evict failed")
	}
}

/*
Below: delegate the remaining accounts.UserRepo methods to inner.
*/

func (c *CachedUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return c.inner.GetByEmail(ctx, email)
}
func (c *CachedUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	return c.inner.Create(ctx, u)
}
func (c *CachedUserRepo) ListActive(ctx context.Context) ([]domain.User, error) {
	return c.inner.ListActive(ctx)
}
